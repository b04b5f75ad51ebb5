package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/prestalink/lending-bot/internal/api/metrics"
	"github.com/prestalink/lending-bot/internal/core/ports"
)

// secretHeader is the header the transport attaches when a webhook is
// registered with a secret token.
const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Enqueuer hands an accepted update to the dispatcher.
type Enqueuer interface {
	Enqueue(up ports.Update)
}

// DedupChecker abstracts the idempotency store (Redis). The transport
// redelivers updates it did not see acknowledged.
type DedupChecker interface {
	IsDuplicate(ctx context.Context, updateID int64) (bool, error)
	Mark(ctx context.Context, updateID int64) error
}

// UpdateHandler receives webhook updates, validates them, and enqueues
// them for processing. It always acknowledges fast: the dialogue logic
// runs on the dispatcher workers, not on the webhook goroutine.
type UpdateHandler struct {
	queue  Enqueuer
	dedup  DedupChecker
	secret string
	log    zerolog.Logger
}

func NewUpdateHandler(queue Enqueuer, dedup DedupChecker, secret string, log zerolog.Logger) *UpdateHandler {
	return &UpdateHandler{queue: queue, dedup: dedup, secret: secret, log: log}
}

func (h *UpdateHandler) Receive(c echo.Context) error {
	if h.secret != "" && c.Request().Header.Get(secretHeader) != h.secret {
		metrics.UpdatesRejectedTotal.WithLabelValues("bad_secret").Inc()
		return c.NoContent(http.StatusUnauthorized)
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		metrics.UpdatesRejectedTotal.WithLabelValues("bad_payload").Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		metrics.UpdatesRejectedTotal.WithLabelValues("bad_payload").Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	up, ok := req.toUpdate()
	if !ok {
		// Update kinds the bot does not handle still get a 200 so the
		// transport stops redelivering them.
		metrics.UpdatesRejectedTotal.WithLabelValues("no_content").Inc()
		return c.NoContent(http.StatusOK)
	}

	ctx := c.Request().Context()
	isDup, err := h.dedup.IsDuplicate(ctx, up.ID)
	if err != nil {
		h.log.Warn().Err(err).Int64("update_id", up.ID).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.DedupTotal.WithLabelValues("hit").Inc()
		return c.NoContent(http.StatusOK)
	}
	metrics.DedupTotal.WithLabelValues("miss").Inc()
	if err := h.dedup.Mark(ctx, up.ID); err != nil {
		h.log.Warn().Err(err).Int64("update_id", up.ID).Msg("failed to set dedup key")
	}

	kind := "message"
	if up.IsCallback {
		kind = "callback"
	}
	metrics.UpdatesReceivedTotal.WithLabelValues(kind).Inc()

	h.queue.Enqueue(up)
	return c.NoContent(http.StatusOK)
}
