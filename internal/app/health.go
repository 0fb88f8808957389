package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pactnotify/internal/dispatch"
	"pactnotify/internal/eventbus"
)

// failingAfter consecutive failed deliveries mark dispatch unhealthy.
const failingAfter = 3

// deliveryHealth follows dispatch outcomes on the bus.
type deliveryHealth struct {
	mu       sync.Mutex
	failures int64
	lastErr  string
	lastOK   time.Time
}

func (h *deliveryHealth) observe(ev eventbus.Event) {
	out, ok := ev.Data.(dispatch.Outcome)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	switch ev.Type {
	case eventbus.TopicDelivered:
		h.failures = 0
		h.lastErr = ""
		h.lastOK = ev.Time
	case eventbus.TopicFailed:
		h.failures++
		h.lastErr = out.Error
	}
}

func (h *deliveryHealth) run(ctx context.Context, bus eventbus.Bus) {
	ch, unsub := bus.Subscribe(64)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			h.observe(ev)
		}
	}
}

func (h *deliveryHealth) err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failures < failingAfter {
		return nil
	}
	if h.lastOK.IsZero() {
		return fmt.Errorf("%d consecutive deliveries failed: %s", h.failures, h.lastErr)
	}
	return fmt.Errorf("%d consecutive deliveries failed since %s: %s",
		h.failures, h.lastOK.UTC().Format(time.RFC3339), h.lastErr)
}
