package reminder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"pactnotify/internal/config"
	"pactnotify/internal/dispatch"
	"pactnotify/internal/notification"
	logx "pactnotify/pkg/logx"
)

// deliveryTimeout bounds one reminder delivery.
const deliveryTimeout = 30 * time.Second

var ErrUnknownReminder = errors.New("reminder: unknown id")

// Notifier is satisfied by *notifier.Service.
type Notifier interface {
	Notify(ctx context.Context, token string, e notification.Event) dispatch.Result
}

type Reminder struct {
	ID        string
	Spec      Spec
	Recipient string
	TaskID    string
	TaskTitle string
	Due       time.Time
}

func (r Reminder) event() notification.TaskReminder {
	return notification.TaskReminder{
		Recipient: r.Recipient,
		TaskID:    r.TaskID,
		TaskTitle: r.TaskTitle,
		DueDate:   r.Due,
	}
}

// Settings is the runtime view of the reminder config section.
type Settings struct {
	Token     string
	Location  *time.Location
	Reminders []Reminder
}

// FromConfig parses every reminder in cfg. It is also used as the config
// reload validator, so a bad schedule never replaces a working set.
func FromConfig(cfg *config.Config) (Settings, error) {
	if cfg == nil {
		return Settings{Location: time.Local}, nil
	}
	loc, err := cfg.Location()
	if err != nil {
		return Settings{}, err
	}
	out := Settings{Token: cfg.Dispatch.Token, Location: loc}
	var errs []error
	for i, rc := range cfg.Reminders {
		spec, err := ParseSchedule(rc.Schedule)
		if err != nil {
			errs = append(errs, fmt.Errorf("reminders[%d] (%s): %w", i, rc.ID, err))
			continue
		}
		due, err := config.ParseDue(rc.Due)
		if err != nil {
			errs = append(errs, fmt.Errorf("reminders[%d] (%s): %w", i, rc.ID, err))
			continue
		}
		out.Reminders = append(out.Reminders, Reminder{
			ID:        strings.TrimSpace(rc.ID),
			Spec:      spec,
			Recipient: rc.Recipient,
			TaskID:    rc.TaskID,
			TaskTitle: rc.TaskTitle,
			Due:       due,
		})
	}
	if err := errors.Join(errs...); err != nil {
		return Settings{}, err
	}
	return out, nil
}

// Entry describes a registered reminder for status output.
type Entry struct {
	ID   string
	Next time.Time
}

type Service struct {
	n   Notifier
	log logx.Logger

	mu      sync.Mutex
	set     Settings
	c       *cron.Cron
	entries map[string]cron.EntryID
}

func New(n Notifier, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		n:       n,
		log:     log.With(logx.String("comp", "reminder")),
		set:     Settings{Location: time.Local},
		entries: map[string]cron.EntryID{},
	}
}

// Apply replaces every registered reminder. A timezone change restarts the
// cron runner.
func (s *Service) Apply(set Settings) {
	if set.Location == nil {
		set.Location = time.Local
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tzChanged := s.set.Location.String() != set.Location.String()
	s.set = set
	if s.c == nil {
		return
	}
	if tzChanged {
		s.restartLocked()
		return
	}
	s.registerLocked()
}

func (s *Service) Start(ctx context.Context) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	s.c = s.newCronLocked()
	s.registerLocked()
	s.c.Start()
	s.log.Info("service started", logx.String("tz", s.set.Location.String()), logx.Int("reminders", len(s.entries)))
}

// Stop halts scheduling and waits for running firings until ctx is done.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.entries = map[string]cron.EntryID{}
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("service stopped")
}

// Entries lists registered reminders ordered by next firing.
func (s *Service) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return nil
	}
	out := make([]Entry, 0, len(s.entries))
	for id, eid := range s.entries {
		out = append(out, Entry{ID: id, Next: s.c.Entry(eid).Next})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Next.Equal(out[j].Next) {
			return out[i].ID < out[j].ID
		}
		return out[i].Next.Before(out[j].Next)
	})
	return out
}

// Fire sends the reminder with the given id now, outside its schedule.
func (s *Service) Fire(ctx context.Context, id string) (dispatch.Result, error) {
	s.mu.Lock()
	var (
		found bool
		r     Reminder
	)
	for _, cand := range s.set.Reminders {
		if cand.ID == id {
			r, found = cand, true
			break
		}
	}
	token := s.set.Token
	s.mu.Unlock()
	if !found {
		return dispatch.Result{}, fmt.Errorf("%w: %s", ErrUnknownReminder, id)
	}
	return s.fire(ctx, token, r), nil
}

func (s *Service) fire(ctx context.Context, token string, r Reminder) dispatch.Result {
	res := s.n.Notify(ctx, token, r.event())
	if res.Delivered() {
		s.log.Debug("reminder sent", logx.String("id", r.ID), logx.String("recipient", r.Recipient))
	} else {
		s.log.Warn("reminder not delivered", logx.String("id", r.ID), logx.Err(res.Err))
	}
	return res
}

func (s *Service) newCronLocked() *cron.Cron {
	cl := cronLogger{log: s.log}
	return cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(s.set.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
}

func (s *Service) restartLocked() {
	<-s.c.Stop().Done()
	s.c = s.newCronLocked()
	s.registerLocked()
	s.c.Start()
	s.log.Info("service restarted", logx.String("tz", s.set.Location.String()), logx.Int("reminders", len(s.entries)))
}

// registerLocked drops every cron entry and adds one per reminder.
func (s *Service) registerLocked() {
	for id, eid := range s.entries {
		s.c.Remove(eid)
		delete(s.entries, id)
	}
	token := s.set.Token
	for _, r := range s.set.Reminders {
		sched, err := r.Spec.schedule()
		if err != nil {
			s.log.Warn("reminder skipped", logx.String("id", r.ID), logx.Err(err))
			continue
		}
		r := r
		s.entries[r.ID] = s.c.Schedule(sched, cron.FuncJob(func() {
			ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
			defer cancel()
			s.fire(ctx, token, r)
		}))
	}
}

// cronLogger adapts logx to cron.Logger.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Trace("cron: "+msg, kvFields(kv)...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error("cron: "+msg, append(kvFields(kv), logx.Err(err))...)
}

func kvFields(kv []any) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
