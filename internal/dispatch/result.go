package dispatch

import (
	"encoding/json"
	"fmt"
	"time"

	"pactnotify/internal/notification"
)

// Stored is the ingestion service's view of a created notification. ID and
// CreatedAt are best-effort; Raw is authoritative.
type Stored struct {
	notification.Record
	ID        string     `json:"id,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`

	// Raw is the response body exactly as received.
	Raw json.RawMessage `json:"-"`
}

// Result is the outcome of one Send: either Stored or Err is set, never both.
//
// Callers that treat notifications as fire-and-forget simply ignore it.
type Result struct {
	Stored *Stored
	Err    error
}

func (r Result) Delivered() bool { return r.Err == nil && r.Stored != nil }

type FailureKind string

const (
	FailureEncode    FailureKind = "encode"
	FailureTransport FailureKind = "transport"
	FailureStatus    FailureKind = "status"
	FailureDecode    FailureKind = "decode"
)

// DeliveryError explains why a notification was not accepted.
type DeliveryError struct {
	Kind       FailureKind
	StatusCode int    // set for FailureStatus (and FailureDecode when known)
	Body       string // truncated response body, if any
	Err        error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("notification %s failure (status %d): %v", e.Kind, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("notification %s failure (status %d): %s", e.Kind, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("notification %s failure: %v", e.Kind, e.Err)
	}
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Outcome is published on the event bus after every Send.
type Outcome struct {
	Type       notification.Type     `json:"type"`
	Priority   notification.Priority `json:"priority"`
	Recipient  string                `json:"recipient"`
	RequestID  string                `json:"request_id"`
	StatusCode int                   `json:"status_code,omitempty"`
	Duration   time.Duration         `json:"duration"`
	Error      string                `json:"error,omitempty"`
}
