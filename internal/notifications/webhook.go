package notifications

import (
	"context"
	"errors"
	"time"
)

// Webhook posts {"content": msg} to a chat webhook (Discord style).
type Webhook struct {
	URL    string
	poster poster
}

func NewWebhook(url string) *Webhook {
	return &Webhook{URL: url, poster: newPoster(10 * time.Second)}
}

func (w *Webhook) Notify(ctx context.Context, msg string) error {
	if w.URL == "" {
		return errors.New("webhook url not configured")
	}
	return w.poster.postJSON(ctx, w.URL, map[string]string{"content": msg})
}
