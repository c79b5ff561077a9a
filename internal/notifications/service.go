package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quietcut/internal/config"
)

const userAgent = "quietcut/0.1"

// Event names a notification kind.
type Event string

const (
	EventBatchStarted   Event = "batch_started"
	EventBatchCompleted Event = "batch_completed"
	EventFileFailed     Event = "file_failed"
	EventTest           Event = "test"
)

// Payload carries event fields. Unknown keys are ignored.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a no-op when no topic is set.
// File failures are dropped unless notifications.notify_failures is enabled.
func NewService(cfg *config.Config) Service {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:       strings.TrimSpace(cfg.Notifications.NtfyTopic),
		client:         &http.Client{Timeout: timeout},
		notifyFailures: cfg.Notifications.NotifyFailures,
	}
}

// Enabled reports whether svc actually sends anything.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	notifyFailures bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if event == EventFileFailed && !n.notifyFailures {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, p Payload) (message, bool) {
	switch event {
	case EventBatchStarted:
		return message{
			title: "quietcut - Batch Started",
			body:  fmt.Sprintf("Processing %d %s", p.count("total"), plural(p.count("total"), "file", "files")),
			tags:  []string{"quietcut", "batch", "started"},
		}, true
	case EventBatchCompleted:
		title := "quietcut - Batch Complete"
		if p.count("failed") > 0 {
			title += " (with errors)"
		}
		return message{
			title: title,
			body: fmt.Sprintf("%d succeeded, %d empty, %d failed, %d skipped in %s",
				p.count("succeeded"), p.count("empty"), p.count("failed"), p.count("skipped"), p.elapsed("elapsed")),
			tags: []string{"quietcut", "batch", "completed"},
		}, true
	case EventFileFailed:
		body := p.text("file")
		if reason := p.text("error"); reason != "" {
			body += ": " + reason
		}
		tags := []string{"quietcut", "error"}
		if outcome := p.text("outcome"); outcome != "" {
			tags = append(tags, outcome)
		}
		return message{
			title:    "quietcut - File Failed",
			body:     body,
			tags:     tags,
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "quietcut - Test",
			body:     "Notification system test",
			tags:     []string{"quietcut", "test"},
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
	if msg.priority != "" {
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

func (p Payload) text(key string) string {
	if v, ok := p[key]; ok && v != nil {
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return ""
}

func (p Payload) count(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (p Payload) elapsed(key string) time.Duration {
	d, _ := p[key].(time.Duration)
	if d < 0 {
		return 0
	}
	return d.Round(time.Second)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
