package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"muzzman/internal/config"
)

const userAgent = "muzzman/0.1"

// Event names a notification kind.
type Event string

const (
	EventElementCompleted Event = "element_completed"
	EventElementFailed    Event = "element_failed"
	EventTest             Event = "test"
)

// Payload carries the event fields. Known keys: "name", "path", "error",
// "location".
type Payload map[string]string

// Service publishes daemon events to the user.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return noopService{}
	}

	timeout := cfg.NotifyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: strings.TrimSpace(cfg.Notifications.NtfyTopic),
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventElementCompleted: cfg.Notifications.NotifyCompleted,
			EventElementFailed:    cfg.Notifications.NotifyFailed,
			EventTest:             true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return fmt.Errorf("unknown notification event %q", event)
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	name := strings.TrimSpace(payload["name"])
	if name == "" {
		name = "element"
	}
	switch event {
	case EventElementCompleted:
		body := fmt.Sprintf("Download complete: %s", name)
		if path := strings.TrimSpace(payload["path"]); path != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, path)
		}
		return message{
			title: "muzzman - Complete",
			body:  body,
			tags:  []string{"muzzman", "element", "completed"},
		}, true
	case EventElementFailed:
		reason := strings.TrimSpace(payload["error"])
		if reason == "" {
			reason = "unknown"
		}
		return message{
			title:    "muzzman - Failed",
			body:     fmt.Sprintf("Download failed: %s\nError: %s", name, reason),
			tags:     []string{"muzzman", "element", "failed"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "muzzman - Test",
			body:     "Notification system test",
			tags:     []string{"muzzman", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
