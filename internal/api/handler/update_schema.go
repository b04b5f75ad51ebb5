package handler

import "github.com/prestalink/lending-bot/internal/core/ports"

// Webhook DTOs mirror the slice of the transport's update object the bot
// consumes. Unknown fields are ignored on bind.

type chatSchema struct {
	ID int64 `json:"id" validate:"required"`
}

type messageSchema struct {
	MessageID int        `json:"message_id" validate:"required"`
	Text      string     `json:"text"`
	Chat      chatSchema `json:"chat"`
}

type callbackSchema struct {
	ID      string         `json:"id" validate:"required"`
	Data    string         `json:"data"`
	Message *messageSchema `json:"message" validate:"required"`
}

type updateRequest struct {
	UpdateID      int64           `json:"update_id" validate:"required"`
	Message       *messageSchema  `json:"message" validate:"omitempty"`
	CallbackQuery *callbackSchema `json:"callback_query" validate:"omitempty"`
}

// toUpdate maps the DTO onto the transport-agnostic update. The second
// return is false when the update carries nothing the bot handles (edits,
// channel posts, member events).
func (r *updateRequest) toUpdate() (ports.Update, bool) {
	switch {
	case r.CallbackQuery != nil && r.CallbackQuery.Message != nil:
		return ports.Update{
			ID:           r.UpdateID,
			ChatID:       r.CallbackQuery.Message.Chat.ID,
			MessageID:    r.CallbackQuery.Message.MessageID,
			IsCallback:   true,
			CallbackID:   r.CallbackQuery.ID,
			CallbackData: r.CallbackQuery.Data,
		}, true
	case r.Message != nil:
		return ports.Update{
			ID:        r.UpdateID,
			ChatID:    r.Message.Chat.ID,
			MessageID: r.Message.MessageID,
			Text:      r.Message.Text,
			HasText:   r.Message.Text != "",
		}, true
	}
	return ports.Update{}, false
}
