// Package app wires the notifyd daemon: config, logging, the dispatch client
// and notifier, scheduled reminders, the NATS relay and the metrics listener.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"pactnotify/internal/config"
	"pactnotify/internal/dispatch"
	"pactnotify/internal/eventbus"
	"pactnotify/internal/metrics"
	"pactnotify/internal/notifier"
	"pactnotify/internal/relay"
	"pactnotify/internal/reminder"
	"pactnotify/internal/runtime/supervisor"
	logx "pactnotify/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	sender    *swapSender
	notif     *notifier.Service
	reminders *reminder.Service
	relay     *relay.Relay
	collector *metrics.Collector
	metrics   *metrics.Server
	delivery  *deliveryHealth

	// relayGen retires connect loops started for an older config.
	relayGen atomic.Uint64
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	set, err := reminder.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.NewService(logConfig(cfg))
	bus := eventbus.New()

	sender := &swapSender{}
	sender.Store(newClient(cfg, log, bus))
	notif := notifier.New(sender, log)

	rem := reminder.New(notif, log)
	rem.Apply(set)

	a := &App{
		cfgm:      cfgm,
		log:       log.With(logx.String("comp", "app")),
		logs:      logSvc,
		bus:       bus,
		sender:    sender,
		notif:     notif,
		reminders: rem,
		relay:     relay.New(notif, log),
		collector: metrics.NewCollector(),
		delivery:  &deliveryHealth{},
	}
	a.metrics = metrics.NewServer(a.collector, a.health, log)
	return a, nil
}

func newClient(cfg *config.Config, log logx.Logger, bus eventbus.Bus) *dispatch.Client {
	return dispatch.New(
		dispatch.Config{BaseURL: cfg.Dispatch.BaseURL},
		dispatch.WithLogger(log),
		dispatch.WithBus(bus),
	)
}

func logConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		JSON:    cfg.Logging.JSON,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

// Notifier exposes the daemon's notifier for in-process callers.
func (a *App) Notifier() *notifier.Service { return a.notif }

// Done is closed when the supervisor context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	cfg := a.cfgm.Get()

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		_, err := reminder.FromConfig(cfg)
		return err
	})

	if err := a.metrics.Apply(a.sup.Context(), cfg.Metrics); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	a.sup.Go("metrics.collector", func(c context.Context) error {
		a.collector.Run(c, a.bus)
		return nil
	})

	a.sup.Go("dispatch.health", func(c context.Context) error {
		a.delivery.run(c, a.bus)
		return nil
	})

	a.reminders.Start(a.sup.Context())
	a.logReminders()
	a.connectRelay(cfg)

	a.sup.Go("config.reload", func(c context.Context) error {
		a.reloadLoop(c)
		return nil
	})
	a.sup.GoRestart("config.watch", a.cfgm.Watch, time.Second, 30*time.Second)

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify ready failed", logx.Err(err))
	} else if ok {
		a.log.Debug("sd_notify ready sent")
	}
	a.log.Info("notifyd started",
		logx.String("base_url", a.sender.Load().BaseURL()),
		logx.Int("reminders", len(cfg.Reminders)),
		logx.Bool("relay", cfg.NATS != nil),
		logx.Bool("metrics", cfg.Metrics.Enabled),
	)
	return nil
}

// connectRelay applies the NATS section, retrying in the background when the
// server is unreachable.
func (a *App) connectRelay(cfg *config.Config) {
	nc, token := cfg.NATS, cfg.Dispatch.Token
	gen := a.relayGen.Add(1)
	a.log.Debug("relay apply", logx.Int64("generation", int64(gen)), logx.Bool("enabled", nc != nil))
	if nc == nil {
		if err := a.relay.Apply(nil, token); err != nil {
			a.log.Warn("relay stop failed", logx.Err(err))
		}
		return
	}
	a.sup.GoRestart("relay.connect", func(context.Context) error {
		if a.relayGen.Load() != gen {
			return nil
		}
		return a.relay.Apply(nc, token)
	}, time.Second, 30*time.Second)
}

func (a *App) reloadLoop(ctx context.Context) {
	sub := a.cfgm.Subscribe(8)
	defer a.cfgm.Unsubscribe(sub)

	lastApplied := a.cfgm.Get()
	for {
		var newCfg *config.Config
		select {
		case <-ctx.Done():
			return
		case c, ok := <-sub:
			if !ok {
				return
			}
			newCfg = c
		}
		// keep only the newest of a burst
		for drained := false; !drained; {
			select {
			case newer := <-sub:
				if newer != nil {
					newCfg = newer
				}
			default:
				drained = true
			}
		}

		a.apply(ctx, lastApplied, newCfg)
		lastApplied = newCfg
	}
}

func (a *App) apply(ctx context.Context, oldCfg, newCfg *config.Config) {
	sections, fields := config.SummarizeChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReloading)
	defer func() { _, _ = daemon.SdNotify(false, daemon.SdNotifyReady) }()

	for _, s := range sections {
		switch s {
		case "logging":
			a.logs.Apply(logConfig(newCfg))
		case "dispatch":
			a.sender.Store(newClient(newCfg, a.logs.Logger(), a.bus))
			// token feeds both reminders and the relay
			a.applyReminders(newCfg)
			a.connectRelay(newCfg)
		case "reminders":
			a.applyReminders(newCfg)
		case "nats":
			a.connectRelay(newCfg)
		case "metrics":
			if err := a.metrics.Apply(ctx, newCfg.Metrics); err != nil {
				a.log.Warn("metrics reconfigure failed", logx.Err(err))
			}
		}
	}
	a.log.Info("config reloaded", append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, fields...)...)
}

func (a *App) applyReminders(cfg *config.Config) {
	set, err := reminder.FromConfig(cfg)
	if err != nil {
		// the reload validator already ran FromConfig, so this is unexpected
		a.log.Warn("invalid reminders; keeping previous", logx.Err(err))
		return
	}
	a.reminders.Apply(set)
	a.logReminders()
}

func (a *App) logReminders() {
	for _, e := range a.reminders.Entries() {
		a.log.Info("reminder scheduled", logx.String("id", e.ID), logx.Time("next", e.Next))
	}
}

func (a *App) health() map[string]error {
	out := map[string]error{"dispatch": a.delivery.err()}
	if cfg := a.cfgm.Get(); cfg != nil && cfg.NATS != nil {
		var err error
		if !a.relay.Connected() {
			err = errors.New("nats not connected")
		}
		out["relay"] = err
	}
	if err := a.Err(); err != nil {
		out["supervisor"] = err
	}
	return out
}

// Stop shuts components down in order: stop intake (relay, reminders), drain
// in-flight deliveries, then the listener and supervisor. Each step is bounded
// so one stuck component cannot hold the process.
func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sup.Cancel()

	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()
		if err := fn(stepCtx); err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	}

	step("relay", 2*time.Second, func(context.Context) error { a.relay.Stop(); return nil })
	step("reminders", 2*time.Second, func(c context.Context) error { a.reminders.Stop(c); return nil })
	step("deliveries", a.cfgm.Get().ShutdownWait(), a.notif.Wait)
	step("metrics", time.Second, func(c context.Context) error { a.metrics.Stop(c); return nil })
	step("supervisor", 2*time.Second, func(c context.Context) error {
		err := a.sup.Wait(c)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	a.log.Info("stopped")
	return a.logs.Close()
}
