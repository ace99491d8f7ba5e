package notifications

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"telemetry_ingest/internal/ingest"

	"github.com/rs/zerolog"
)

// Client posts plain text messages to an ntfy topic.
type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	priority   string
	log        zerolog.Logger
}

type NotificationError struct {
	Type       string
	StatusCode int
	Underlying error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification failed [%s]: %v", e.Type, e.Underlying)
}

func (e *NotificationError) Unwrap() error { return e.Underlying }

func NewClient(baseURL, topic, priority string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		topic:    topic,
		priority: priority,
		log:      log,
	}
}

// Send posts message once. There is no retry; callers log and move on.
func (c *Client) Send(ctx context.Context, message string) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)

	c.log.Debug().
		Str("url", url).
		Str("message", message).
		Msg("Sending notification")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(message))
	if err != nil {
		return &NotificationError{Type: "client", Underlying: err}
	}
	req.Header.Set("Content-Type", "text/plain")
	if c.priority != "" {
		req.Header.Set("Priority", c.priority)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NotificationError{Type: "network", Underlying: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &NotificationError{
			Type:       categorizeHTTPError(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Underlying: fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	c.log.Debug().Int("status_code", resp.StatusCode).Msg("Notification sent successfully")
	return nil
}

func categorizeHTTPError(statusCode int) string {
	switch {
	case statusCode == 401 || statusCode == 403:
		return "auth"
	case statusCode == 429:
		return "rate_limit"
	case statusCode >= 400 && statusCode < 500:
		return "client"
	case statusCode >= 500:
		return "server"
	default:
		return "unknown"
	}
}

// Reporter sends one message when a batch completes. Other events are ignored.
type Reporter struct {
	client *Client
	log    zerolog.Logger
}

func NewReporter(client *Client, log zerolog.Logger) *Reporter {
	return &Reporter{client: client, log: log}
}

func (r *Reporter) BatchStarted(context.Context, string, int)     {}
func (r *Reporter) FileStarted(context.Context, ingest.FileEvent) {}
func (r *Reporter) FileDone(context.Context, ingest.FileEvent)    {}
func (r *Reporter) FileFailed(context.Context, ingest.FileEvent)  {}

func (r *Reporter) BatchDone(ctx context.Context, s ingest.Summary) {
	if err := r.client.Send(ctx, formatSummary(s)); err != nil {
		r.log.Warn().Err(err).Msg("Failed to send completion notification")
	}
}

const maxFailedKeysShown = 10

func formatSummary(s ingest.Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Telemetry ingest completed: %d files processed, %d inserted records\n",
		s.Processed(), s.RecordsInserted)
	if s.Failed > 0 {
		fmt.Fprintf(&sb, "%d files failed:\n", s.Failed)
		for i, key := range s.FailedKeys {
			if i == maxFailedKeysShown {
				fmt.Fprintf(&sb, "... and %d more\n", len(s.FailedKeys)-maxFailedKeysShown)
				break
			}
			fmt.Fprintf(&sb, "- %s\n", key)
		}
	}
	fmt.Fprintf(&sb, "Run %s took %s", s.RunID, s.Elapsed.Round(time.Millisecond))
	return sb.String()
}
