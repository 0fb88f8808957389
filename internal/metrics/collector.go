// Package metrics exposes dispatch outcomes as Prometheus metrics and serves
// them, together with a health probe, on an optional local listener.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pactnotify/internal/dispatch"
	"pactnotify/internal/eventbus"
)

const namespace = "pactnotify"

const (
	outcomeDelivered = "delivered"
	outcomeFailed    = "failed"
)

// Collector turns bus outcomes into metrics. Its registry is private so tests
// and multiple daemons in one process never collide.
type Collector struct {
	reg      *prometheus.Registry
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewCollector() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "total",
			Help:      "Notification deliveries by kind and outcome.",
		}, []string{"type", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Time spent on one delivery request.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	c.reg.MustRegister(
		c.total,
		c.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Observe records one bus event. Events that are not dispatch outcomes are
// ignored.
func (c *Collector) Observe(ev eventbus.Event) {
	out, ok := ev.Data.(dispatch.Outcome)
	if !ok {
		return
	}
	var outcome string
	switch ev.Type {
	case eventbus.TopicDelivered:
		outcome = outcomeDelivered
	case eventbus.TopicFailed:
		outcome = outcomeFailed
	default:
		return
	}
	c.total.WithLabelValues(string(out.Type), outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(out.Duration.Seconds())
}

// Run consumes bus events until ctx is done.
func (c *Collector) Run(ctx context.Context, bus eventbus.Bus) {
	ch, unsub := bus.Subscribe(256)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			c.Observe(ev)
		}
	}
}
