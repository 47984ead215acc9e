package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"deckhand/internal/config"
)

const userAgent = "deckhand/0.1"

// Service pushes run lifecycle events to the operator's phone.
type Service interface {
	RunStarted(ctx context.Context, images int) error
	RunCompleted(ctx context.Context, placed, skipped int, duration time.Duration) error
	RunFailed(ctx context.Context, runErr error, state string) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) RunStarted(ctx context.Context, images int) error {
	return n.send(ctx, payload{
		title:   "Deckhand - Run Started",
		message: fmt.Sprintf("Filling order with %d images", images),
		tags:    []string{"deckhand", "run", "started"},
	})
}

func (n *ntfyService) RunCompleted(ctx context.Context, placed, skipped int, duration time.Duration) error {
	message := fmt.Sprintf("Placed %d images in %s", placed, duration.Round(time.Second))
	if skipped > 0 {
		message = fmt.Sprintf("Placed %d images, %d skipped, in %s", placed, skipped, duration.Round(time.Second))
	}
	return n.send(ctx, payload{
		title:   "Deckhand - Run Completed",
		message: message,
		tags:    []string{"deckhand", "run", "completed"},
	})
}

func (n *ntfyService) RunFailed(ctx context.Context, runErr error, state string) error {
	message := fmt.Sprintf("Run failed in state %s: %v", state, runErr)
	return n.send(ctx, payload{
		title:    "Deckhand - Run Failed",
		message:  message,
		tags:     []string{"deckhand", "run", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if data.title != "" {
		req.Header.Set("X-Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("X-Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("X-Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification rejected with status %d", resp.StatusCode)
	}
	return nil
}

type noopService struct{}

func (noopService) RunStarted(context.Context, int) error { return nil }

func (noopService) RunCompleted(context.Context, int, int, time.Duration) error { return nil }

func (noopService) RunFailed(context.Context, error, string) error { return nil }
