package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"pactnotify/internal/config"
	"pactnotify/internal/dispatch"
	"pactnotify/internal/notification"
	"pactnotify/internal/notifier"
	logx "pactnotify/pkg/logx"
)

// sendResult is printed as one JSON line per attempt.
type sendResult struct {
	Index     int             `json:"index"`
	Delivered bool            `json:"delivered"`
	ID        string          `json:"id,omitempty"`
	Stored    json.RawMessage `json:"stored,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func runSend(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, resolveToken func() (string, error)) int {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		kind     = fs.String("kind", "", "notification kind (see 'notifyctl kinds')")
		payload  = fs.String("payload", "-", "event payload JSON file, or - for stdin")
		token    = fs.String("token", "", "bearer token (default: $"+config.EnvToken+", then keyring)")
		baseURL  = fs.String("base-url", "", "ingestion service base URL (default: $"+config.EnvBaseURL+" or "+dispatch.DefaultBaseURL+")")
		count    = fs.Int("count", 1, "number of independent notifications to send")
		perSec   = fs.Float64("rate", 0, "max sends per second (0 = unlimited)")
		timeout  = fs.Duration("timeout", 30*time.Second, "per-send timeout")
		logLevel = fs.String("log-level", "warn", "log level")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *count < 1 {
		fmt.Fprintln(stderr, "error: -count must be >= 1")
		return 2
	}

	ev, err := readEvent(notification.Type(strings.TrimSpace(*kind)), *payload, stdin)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	tok := strings.TrimSpace(*token)
	if tok == "" {
		if tok, err = resolveToken(); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
	}
	base := strings.TrimSpace(*baseURL)
	if base == "" {
		base = os.Getenv(config.EnvBaseURL)
	}

	log := logx.New(stderr, *logLevel)
	if log.Enabled(logx.LevelDebug) {
		log.Debug("sending",
			logx.String("kind", string(ev.Kind())),
			logx.Int("count", *count),
			logx.Float64("rate", *perSec),
		)
	}
	svc := notifier.New(dispatch.New(dispatch.Config{BaseURL: base}, dispatch.WithLogger(log)), log)

	limit := rate.Inf
	if *perSec > 0 {
		limit = rate.Limit(*perSec)
	}
	limiter := rate.NewLimiter(limit, 1)

	enc := json.NewEncoder(stdout)
	failed := 0
	for i := 0; i < *count; i++ {
		if err := limiter.Wait(ctx); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		sctx, cancel := context.WithTimeout(ctx, *timeout)
		res := svc.Notify(sctx, tok, ev)
		cancel()

		out := sendResult{Index: i, Delivered: res.Delivered()}
		if res.Delivered() {
			out.ID = res.Stored.ID
			out.Stored = res.Stored.Raw
		} else {
			failed++
			out.Error = errString(res.Err)
		}
		_ = enc.Encode(out)
	}
	if failed > 0 {
		return 1
	}
	return 0
}

// readEvent decodes and validates the payload before anything is sent.
func readEvent(kind notification.Type, src string, stdin io.Reader) (notification.Event, error) {
	if kind == "" {
		return nil, errors.New("-kind is required")
	}
	var (
		b   []byte
		err error
	)
	if src == "" || src == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	ev, err := notification.Decode(kind, b)
	if err != nil {
		return nil, err
	}
	if err := notification.Validate(notification.Build(ev)); err != nil {
		return nil, err
	}
	return ev, nil
}

func errString(err error) string {
	if err == nil {
		return "no response"
	}
	return err.Error()
}
