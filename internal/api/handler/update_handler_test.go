package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/prestalink/lending-bot/internal/core/ports"
)

type stubQueue struct {
	enqueued []ports.Update
}

func (q *stubQueue) Enqueue(up ports.Update) {
	q.enqueued = append(q.enqueued, up)
}

type stubDedup struct {
	seen map[int64]bool
}

func newStubDedup() *stubDedup { return &stubDedup{seen: make(map[int64]bool)} }

func (d *stubDedup) IsDuplicate(_ context.Context, updateID int64) (bool, error) {
	return d.seen[updateID], nil
}

func (d *stubDedup) Mark(_ context.Context, updateID int64) error {
	d.seen[updateID] = true
	return nil
}

func postUpdate(t *testing.T, h *UpdateHandler, body, secret string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if secret != "" {
		req.Header.Set(secretHeader, secret)
	}
	rec := httptest.NewRecorder()
	if err := h.Receive(e.NewContext(req, rec)); err != nil {
		t.Fatalf("receive: %v", err)
	}
	return rec
}

const messageBody = `{
	"update_id": 1001,
	"message": {"message_id": 5, "text": "/signin", "chat": {"id": 42}}
}`

func TestReceive_MessageUpdate(t *testing.T) {
	queue := &stubQueue{}
	h := NewUpdateHandler(queue, newStubDedup(), "", zerolog.Nop())

	rec := postUpdate(t, h, messageBody, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(queue.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued update, got %d", len(queue.enqueued))
	}
	up := queue.enqueued[0]
	if up.ChatID != 42 || up.Text != "/signin" || !up.HasText || up.IsCallback {
		t.Fatalf("unexpected update %+v", up)
	}
}

func TestReceive_CallbackUpdate(t *testing.T) {
	queue := &stubQueue{}
	h := NewUpdateHandler(queue, newStubDedup(), "", zerolog.Nop())

	body := `{
		"update_id": 1002,
		"callback_query": {"id": "cb9", "data": "balance", "message": {"message_id": 6, "chat": {"id": 42}}}
	}`
	postUpdate(t, h, body, "")
	if len(queue.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued update")
	}
	up := queue.enqueued[0]
	if !up.IsCallback || up.CallbackID != "cb9" || up.CallbackData != "balance" || up.ChatID != 42 {
		t.Fatalf("unexpected update %+v", up)
	}
}

func TestReceive_SecretMismatch(t *testing.T) {
	queue := &stubQueue{}
	h := NewUpdateHandler(queue, newStubDedup(), "shh", zerolog.Nop())

	rec := postUpdate(t, h, messageBody, "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(queue.enqueued) != 0 {
		t.Fatalf("rejected update must not be enqueued")
	}
}

func TestReceive_DuplicateDropped(t *testing.T) {
	queue := &stubQueue{}
	h := NewUpdateHandler(queue, newStubDedup(), "", zerolog.Nop())

	postUpdate(t, h, messageBody, "")
	rec := postUpdate(t, h, messageBody, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicates still get a 200, got %d", rec.Code)
	}
	if len(queue.enqueued) != 1 {
		t.Fatalf("duplicate must not be enqueued twice, got %d", len(queue.enqueued))
	}
}

func TestReceive_IgnoredUpdateKind(t *testing.T) {
	queue := &stubQueue{}
	h := NewUpdateHandler(queue, newStubDedup(), "", zerolog.Nop())

	rec := postUpdate(t, h, `{"update_id": 1003, "edited_message": {"message_id": 9}}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unhandled kinds are acknowledged, got %d", rec.Code)
	}
	if len(queue.enqueued) != 0 {
		t.Fatalf("unhandled kinds must not be enqueued")
	}
}

func TestReceive_BadPayload(t *testing.T) {
	queue := &stubQueue{}
	h := NewUpdateHandler(queue, newStubDedup(), "", zerolog.Nop())

	rec := postUpdate(t, h, `{"message": {}}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing update_id, got %d", rec.Code)
	}
}
