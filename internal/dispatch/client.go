// Package dispatch delivers canonical notification records to the
// notification-ingestion service.
//
// Delivery is best-effort: one POST per record, no retry, no batching. A
// failed delivery is logged and reported through Result; it is never returned
// as an error and never panics, so a failed notification cannot fail the
// action that triggered it.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"pactnotify/internal/eventbus"
	"pactnotify/internal/notification"
	logx "pactnotify/pkg/logx"
)

// DefaultBaseURL is used when Config.BaseURL is empty.
const DefaultBaseURL = "http://localhost:5000"

const (
	notificationsPath = "/api/notifications"
	maxResponseBytes  = 1 << 20
	maxErrorBody      = 512
)

type Config struct {
	BaseURL string
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	return c
}

type Option func(*Client)

// WithHTTPClient replaces the default otelhttp-instrumented client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

func WithLogger(log logx.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithBus(bus eventbus.Bus) Option {
	return func(c *Client) { c.bus = bus }
}

// Client posts records to {BaseURL}/api/notifications.
//
// A Client is immutable after New and safe for concurrent use.
type Client struct {
	baseURL  string
	endpoint string
	hc       *http.Client
	log      logx.Logger
	bus      eventbus.Bus
}

func New(cfg Config, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		baseURL:  cfg.BaseURL,
		endpoint: cfg.BaseURL + notificationsPath,
		// No Timeout: the caller's context (or the transport) bounds the call.
		hc: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.log.IsZero() {
		c.log = logx.Nop()
	}
	c.log = c.log.With(logx.String("comp", "dispatch"))
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Send delivers rec using token as the bearer credential.
func (c *Client) Send(ctx context.Context, token string, rec notification.Record) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	reqID := uuid.NewString()
	start := time.Now()

	stored, status, err := c.post(ctx, token, reqID, rec)
	out := Outcome{
		Type:       rec.Type,
		Priority:   rec.Priority,
		Recipient:  rec.Recipient,
		RequestID:  reqID,
		StatusCode: status,
		Duration:   time.Since(start),
	}

	if err != nil {
		out.Error = err.Error()
		c.log.Warn("notification delivery failed",
			logx.String("type", string(rec.Type)),
			logx.String("recipient", rec.Recipient),
			logx.String("request_id", reqID),
			logx.Int("status", status),
			logx.Err(err),
		)
		c.publish(eventbus.TopicFailed, out)
		return Result{Err: err}
	}

	c.log.Debug("notification delivered",
		logx.String("type", string(rec.Type)),
		logx.String("id", stored.ID),
		logx.String("request_id", reqID),
		logx.Duration("took", out.Duration),
	)
	c.publish(eventbus.TopicDelivered, out)
	return Result{Stored: stored}
}

func (c *Client) post(ctx context.Context, token, reqID string, rec notification.Record) (*Stored, int, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, 0, &DeliveryError{Kind: FailureEncode, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, &DeliveryError{Kind: FailureTransport, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, 0, &DeliveryError{Kind: FailureTransport, Err: fmt.Errorf("POST %s: %w", notificationsPath, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, &DeliveryError{Kind: FailureTransport, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, &DeliveryError{
			Kind:       FailureStatus,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(respBody)), maxErrorBody),
		}
	}

	stored, err := decodeStored(respBody, rec)
	if err != nil {
		return nil, resp.StatusCode, &DeliveryError{Kind: FailureDecode, StatusCode: resp.StatusCode, Err: err}
	}
	return stored, resp.StatusCode, nil
}

var errNotObject = errors.New("response body is not a JSON object")

// createdAtLayouts are tried in order for string timestamps.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

// decodeStored requires a JSON object and nothing more. Identity fields are
// read leniently. Record fields present in the body override sent; a body
// whose record fields do not decode keeps sent as is.
func decodeStored(b []byte, sent notification.Record) (*Stored, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errNotObject
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	s := Stored{Record: sent, Raw: append(json.RawMessage(nil), trimmed...)}
	rec := sent
	if err := json.Unmarshal(trimmed, &rec); err == nil {
		s.Record = rec
	}
	for _, key := range []string{"id", "_id"} {
		if id := identity(fields[key]); id != "" {
			s.ID = id
			break
		}
	}
	s.CreatedAt = timestamp(fields["createdAt"])
	return &s, nil
}

// identity accepts a string or a number.
func identity(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	return ""
}

// timestamp accepts the layouts above or epoch seconds/milliseconds. Anything
// else yields nil.
func timestamp(raw json.RawMessage) *time.Time {
	if len(raw) == 0 {
		return nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		for _, layout := range createdAtLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(str)); err == nil {
				return &t
			}
		}
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return nil
	}
	n, err := num.Int64()
	if err != nil {
		return nil
	}
	var t time.Time
	if n > 1e11 || n < -1e11 {
		t = time.UnixMilli(n).UTC()
	} else {
		t = time.Unix(n, 0).UTC()
	}
	return &t
}

func (c *Client) publish(topic string, out Outcome) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(eventbus.Event{Type: topic, Time: time.Now(), Data: out})
}

func truncate(s string, maxN int) string {
	if maxN <= 0 || len(s) <= maxN {
		return s
	}
	if maxN < 10 {
		return s[:maxN]
	}
	return s[:maxN-3] + "..."
}
