package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pomo/internal/config"
	"pomo/internal/countdown"
)

const userAgent = "pomo/0.1.0"

// Service defines the notification surface used by the daemon and CLI.
type Service interface {
	NotifyPeriodFinished(ctx context.Context, done countdown.Finished, d countdown.Durations) error
	TestNotification(ctx context.Context) error
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
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		focusFinished: cfg.Notifications.FocusFinished,
		restFinished:  cfg.Notifications.RestFinished,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	focusFinished bool
	restFinished  bool
}

func (n *ntfyService) NotifyPeriodFinished(ctx context.Context, done countdown.Finished, d countdown.Durations) error {
	switch done.Type {
	case countdown.Focus:
		if !n.focusFinished {
			return nil
		}
		return n.send(ctx, focusFinishedPayload(done, d))
	case countdown.Rest:
		if !n.restFinished {
			return nil
		}
		return n.send(ctx, restFinishedPayload(done, d))
	default:
		return fmt.Errorf("notify period finished: unknown type %s", done.Type)
	}
}

// focusFinishedPayload describes the break that follows a focus period.
// done.Cycle already counts the completed focus period.
func focusFinishedPayload(done countdown.Finished, d countdown.Durations) payload {
	completed := done.Cycle
	if completed > 0 {
		completed--
	}
	kind := "short break"
	tags := []string{"tomato", "pomo", "focus"}
	if d.LongBreakAfter > 0 && done.Cycle%(d.LongBreakAfter+1) == 0 {
		kind = "long break"
		tags = append(tags, "long_break")
	}
	return payload{
		title:    "Pomo - Focus Finished",
		message:  fmt.Sprintf("🍅 Focus #%d done. Time for a %s (%s).", completed, kind, formatMinutes(d.For(countdown.Rest, done.Cycle))),
		tags:     tags,
		priority: "high",
	}
}

func restFinishedPayload(done countdown.Finished, d countdown.Durations) payload {
	return payload{
		title:   "Pomo - Break Over",
		message: fmt.Sprintf("⏰ Break over. Focus #%d is next (%s).", done.Cycle, formatMinutes(d.Focus)),
		tags:    []string{"hourglass", "pomo", "rest"},
	}
}

func formatMinutes(d time.Duration) string {
	d = d.Round(time.Second)
	if d%time.Minute == 0 {
		return fmt.Sprintf("%d min", int(d/time.Minute))
	}
	return d.String()
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Pomo - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"pomo", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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

func (noopService) NotifyPeriodFinished(context.Context, countdown.Finished, countdown.Durations) error {
	return nil
}
func (noopService) TestNotification(context.Context) error { return nil }
