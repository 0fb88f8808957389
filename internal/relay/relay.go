// Package relay turns event envelopes published on NATS into notifications.
//
// Producers publish {"kind": ..., "token": ..., "payload": {...}} on the
// configured subject. Each message yields at most one delivery; messages that
// fail to decode or validate are logged and dropped.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	natspkg "github.com/nats-io/nats.go"

	"pactnotify/internal/config"
	"pactnotify/internal/dispatch"
	"pactnotify/internal/notification"
	logx "pactnotify/pkg/logx"
)

const deliveryTimeout = 30 * time.Second

var ErrNoToken = errors.New("relay: message has no token and no service token is configured")

// Notifier is satisfied by *notifier.Service.
type Notifier interface {
	Notify(ctx context.Context, token string, e notification.Event) dispatch.Result
}

// Message is the wire format on the subject.
type Message struct {
	Kind    notification.Type `json:"kind"`
	Token   string            `json:"token,omitempty"`
	Payload json.RawMessage   `json:"payload"`
}

type Relay struct {
	n   Notifier
	log logx.Logger

	mu    sync.Mutex
	token string
	cur   config.NATSConfig
	nc    *natspkg.Conn
	sub   *natspkg.Subscription
}

func New(n Notifier, log logx.Logger) *Relay {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Relay{n: n, log: log.With(logx.String("comp", "relay"))}
}

// Apply connects, reconnects or disconnects to match cfg. A nil cfg stops the
// relay. serviceToken is used for messages that carry no token.
func (r *Relay) Apply(cfg *config.NATSConfig, serviceToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token = serviceToken

	if cfg == nil {
		r.closeLocked()
		return nil
	}
	want := *cfg
	if r.nc != nil && want == r.cur {
		return nil
	}
	r.closeLocked()

	nc, err := natspkg.Connect(want.URL,
		natspkg.Name("notifyd"),
		natspkg.MaxReconnects(-1),
		natspkg.DisconnectErrHandler(func(_ *natspkg.Conn, err error) {
			if err != nil {
				r.log.Warn("nats disconnected", logx.Err(err))
			}
		}),
		natspkg.ReconnectHandler(func(c *natspkg.Conn) {
			r.log.Info("nats reconnected", logx.String("url", c.ConnectedUrlRedacted()))
		}),
	)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}

	handler := func(msg *natspkg.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		if _, err := r.Handle(ctx, msg.Data); err != nil {
			r.log.Warn("relay message dropped", logx.String("subject", msg.Subject), logx.Err(err))
		}
	}
	var sub *natspkg.Subscription
	if q := strings.TrimSpace(want.Queue); q != "" {
		sub, err = nc.QueueSubscribe(want.Subject, q, handler)
	} else {
		sub, err = nc.Subscribe(want.Subject, handler)
	}
	if err != nil {
		nc.Close()
		return fmt.Errorf("nats subscribe %s: %w", want.Subject, err)
	}

	r.nc, r.sub, r.cur = nc, sub, want
	r.log.Info("relay subscribed", logx.String("subject", want.Subject), logx.String("queue", want.Queue))
	return nil
}

// Connected reports whether the relay currently has a live connection.
func (r *Relay) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nc != nil && r.nc.Status() == natspkg.CONNECTED
}

func (r *Relay) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

func (r *Relay) closeLocked() {
	if r.nc == nil {
		return
	}
	if r.sub != nil {
		_ = r.sub.Unsubscribe()
	}
	// Drain lets in-flight handlers finish before the connection closes.
	if err := r.nc.Drain(); err != nil {
		r.nc.Close()
	}
	r.nc, r.sub, r.cur = nil, nil, config.NATSConfig{}
	r.log.Info("relay stopped")
}

// Handle decodes one message and delivers it. The error covers decoding and
// validation only; delivery failures are reported through the Result.
func (r *Relay) Handle(ctx context.Context, data []byte) (dispatch.Result, error) {
	msg, err := decodeMessage(data)
	if err != nil {
		return dispatch.Result{}, err
	}
	ev, err := notification.Decode(msg.Kind, msg.Payload)
	if err != nil {
		return dispatch.Result{}, err
	}
	if err := notification.Validate(notification.Build(ev)); err != nil {
		return dispatch.Result{}, err
	}

	token := strings.TrimSpace(msg.Token)
	if token == "" {
		r.mu.Lock()
		token = r.token
		r.mu.Unlock()
	}
	if token == "" {
		return dispatch.Result{}, ErrNoToken
	}
	return r.n.Notify(ctx, token, ev), nil
}

func decodeMessage(data []byte) (Message, error) {
	var msg Message
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&msg); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Message{}, errors.New("decode message: trailing data")
	}
	return msg, nil
}
