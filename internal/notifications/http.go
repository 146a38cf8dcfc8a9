package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// Backoff bounds for delivery retries.
var (
	retryDelay    = 100 * time.Millisecond
	retryMaxDelay = 2 * time.Second
)

const maxRetries = 3

// poster sends JSON bodies with a retry policy on network errors, 5xx and 429.
type poster struct {
	client   *http.Client
	pipeline failsafe.Executor[*http.Response]
}

func newPoster(timeout time.Duration) poster {
	retryPolicy := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		}).
		WithBackoff(retryDelay, retryMaxDelay).
		WithMaxRetries(maxRetries).
		Build()

	return poster{
		client:   &http.Client{Timeout: timeout},
		pipeline: failsafe.With[*http.Response](retryPolicy),
	}
}

func (p poster) postJSON(ctx context.Context, target string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := p.pipeline.WithContext(ctx).GetWithExecution(func(exec failsafe.Execution[*http.Response]) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			var uerr *url.Error
			if errors.As(err, &uerr) {
				uerr.URL = redactURL(uerr.URL)
			}
			return nil, err
		}
		// Bodies are not needed; close each attempt so retries do not leak connections.
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return resp, nil
	})
	if err != nil {
		return fmt.Errorf("post failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post failed: status %s", resp.Status)
	}
	return nil
}

// redactURL keeps only scheme and host. Bot tokens and webhook secrets live in the path.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "<redacted>"
	}
	return u.Scheme + "://" + u.Host + "/<redacted>"
}
