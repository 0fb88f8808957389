package notifier

import (
	"context"
	"errors"
	"sync"

	"pactnotify/internal/dispatch"
	"pactnotify/internal/notification"
	logx "pactnotify/pkg/logx"
)

var ErrNilEvent = errors.New("notifier: nil event")

// Sender is satisfied by *dispatch.Client.
type Sender interface {
	Send(ctx context.Context, token string, rec notification.Record) dispatch.Result
}

// Service is safe for concurrent use.
type Service struct {
	sender Sender
	log    logx.Logger

	inflight sync.WaitGroup
}

func New(sender Sender, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{sender: sender, log: log.With(logx.String("comp", "notifier"))}
}

// Notify builds e and delivers it with token as the bearer credential.
func (s *Service) Notify(ctx context.Context, token string, e notification.Event) dispatch.Result {
	if e == nil {
		return dispatch.Result{Err: ErrNilEvent}
	}
	return s.sender.Send(ctx, token, notification.Build(e))
}

// NotifyAll delivers every event concurrently. Results are positional; no
// ordering between the underlying requests is implied.
func (s *Service) NotifyAll(ctx context.Context, token string, events ...notification.Event) []dispatch.Result {
	out := make([]dispatch.Result, len(events))
	var wg sync.WaitGroup
	for i, e := range events {
		wg.Add(1)
		go func(i int, e notification.Event) {
			defer wg.Done()
			out[i] = s.Notify(ctx, token, e)
		}(i, e)
	}
	wg.Wait()
	return out
}

// Go delivers e in the background and discards the result. Values from ctx
// are kept but its cancellation is not, so the delivery outlives a finished
// request.
func (s *Service) Go(ctx context.Context, token string, e notification.Event) {
	if ctx == nil {
		ctx = context.Background()
	}
	detached := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("notification panic recovered", logx.Any("panic", r))
			}
		}()
		_ = s.Notify(detached, token, e)
	}()
}

// Wait blocks until background deliveries started with Go finish or ctx is
// done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
