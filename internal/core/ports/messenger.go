package ports

import "context"

// ReplyOptions controls the presentation of an outbound reply. Zero value
// means plain text with whatever keyboard the chat already shows.
type ReplyOptions struct {
	// ForceReply asks the client to open a reply prompt for the next
	// message (used for wizard questions).
	ForceReply bool
	// RemoveMenu removes any custom keyboard from the chat.
	RemoveMenu bool
	// Menu, when non-empty, attaches a reply keyboard: one row per outer
	// slice, one button per label.
	Menu [][]string
}

// Messenger delivers replies to the chat transport. The bot knows nothing
// about the wire format behind it.
type Messenger interface {
	// Send delivers text to a conversation.
	Send(ctx context.Context, chatID int64, text string, opts *ReplyOptions) error

	// Delete removes a previously received message from the conversation
	// history. Best-effort: callers must tolerate failure.
	Delete(ctx context.Context, chatID int64, messageID int) error

	// Ack acknowledges a button-press callback so the client stops showing
	// a progress indicator.
	Ack(ctx context.Context, callbackID string) error
}
