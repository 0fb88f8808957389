package app

import (
	"context"
	"sync/atomic"

	"pactnotify/internal/dispatch"
	"pactnotify/internal/notification"
)

// swapSender lets a config reload replace the dispatch client without
// rebuilding the notifier. Deliveries already running keep the old client.
type swapSender struct {
	cur atomic.Pointer[dispatch.Client]
}

func (s *swapSender) Store(c *dispatch.Client) { s.cur.Store(c) }

func (s *swapSender) Load() *dispatch.Client { return s.cur.Load() }

func (s *swapSender) Send(ctx context.Context, token string, rec notification.Record) dispatch.Result {
	return s.cur.Load().Send(ctx, token, rec)
}
