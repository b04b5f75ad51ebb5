package ports

import "context"

// Update is one inbound event from the chat transport, already stripped of
// wire-format detail. Exactly one of the two entry surfaces applies: a
// message (Text/HasText) or a button press (IsCallback/CallbackData).
type Update struct {
	ID        int64
	ChatID    int64
	MessageID int

	Text    string
	HasText bool

	IsCallback   bool
	CallbackID   string
	CallbackData string
}

// UpdateRouter consumes inbound updates. Implemented by the core router;
// called by the dispatcher workers.
type UpdateRouter interface {
	Route(ctx context.Context, up Update) error
}
