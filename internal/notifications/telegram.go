package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const telegramAPI = "https://api.telegram.org"

// Telegram sends messages to a chat through the Bot API.
type Telegram struct {
	Token   string
	ChatID  string
	BaseURL string // defaults to the public Bot API
	poster  poster
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{Token: token, ChatID: chatID, BaseURL: telegramAPI, poster: newPoster(10 * time.Second)}
}

func (t *Telegram) Notify(ctx context.Context, msg string) error {
	if t.Token == "" || t.ChatID == "" {
		return errors.New("telegram credentials missing")
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, t.Token)
	payload := map[string]string{
		"chat_id": t.ChatID,
		"text":    msg,
	}
	if err := t.poster.postJSON(ctx, url, payload); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}
