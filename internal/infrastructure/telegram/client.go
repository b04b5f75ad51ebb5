// Package telegram implements the outbound Messenger port against the
// Telegram Bot API. Only the three calls the bot needs are wrapped;
// inbound traffic arrives through the webhook, not here.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/prestalink/lending-bot/internal/core/ports"
)

const defaultBaseURL = "https://api.telegram.org"

// Client is a thin Bot API HTTP client.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	log     zerolog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL overrides the API host (tests point this at a local server).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New builds a Client for the given bot token.
func New(token string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: defaultBaseURL,
		token:   token,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Keyboard payloads per the Bot API reply_markup contract.

type keyboardButton struct {
	Text string `json:"text"`
}

type replyKeyboard struct {
	Keyboard       [][]keyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard"`
}

type keyboardRemove struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

type forceReply struct {
	ForceReply bool `json:"force_reply"`
}

type sendMessageRequest struct {
	ChatID      int64  `json:"chat_id"`
	Text        string `json:"text"`
	ReplyMarkup any    `json:"reply_markup,omitempty"`
}

func (c *Client) Send(ctx context.Context, chatID int64, text string, opts *ports.ReplyOptions) error {
	req := sendMessageRequest{ChatID: chatID, Text: text}
	if opts != nil {
		switch {
		case len(opts.Menu) > 0:
			kb := replyKeyboard{ResizeKeyboard: true}
			for _, row := range opts.Menu {
				var btns []keyboardButton
				for _, label := range row {
					btns = append(btns, keyboardButton{Text: label})
				}
				kb.Keyboard = append(kb.Keyboard, btns)
			}
			req.ReplyMarkup = kb
		case opts.RemoveMenu:
			req.ReplyMarkup = keyboardRemove{RemoveKeyboard: true}
		case opts.ForceReply:
			req.ReplyMarkup = forceReply{ForceReply: true}
		}
	}
	return c.call(ctx, "sendMessage", req)
}

func (c *Client) Delete(ctx context.Context, chatID int64, messageID int) error {
	return c.call(ctx, "deleteMessage", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	})
}

func (c *Client) Ack(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackID,
	})
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram %s: encode: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("telegram %s: read response: %w", method, err)
	}

	var api apiResponse
	if err := json.Unmarshal(raw, &api); err != nil {
		return fmt.Errorf("telegram %s: decode response (status %d): %w", method, resp.StatusCode, err)
	}
	if !api.OK {
		return fmt.Errorf("telegram %s: api error: %s", method, api.Description)
	}
	return nil
}
