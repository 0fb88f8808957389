package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"pactnotify/internal/config"
	"pactnotify/internal/dispatch"
	"pactnotify/internal/notifier"
	"pactnotify/internal/reminder"
	logx "pactnotify/pkg/logx"
)

// runRemind sends one configured reminder now, using the daemon's config
// (and its token) as notifyd would load it.
func runRemind(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("remind", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgPath  = fs.String("config", "./notifyd.yaml", "notifyd config file")
		timeout  = fs.Duration("timeout", 30*time.Second, "send timeout")
		logLevel = fs.String("log-level", "warn", "log level")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "error: expected exactly one reminder id")
		return 2
	}
	id := strings.TrimSpace(fs.Arg(0))

	cfg, err := config.NewManager(*cfgPath).Load()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	set, err := reminder.FromConfig(cfg)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	log := logx.New(stderr, *logLevel)
	client := dispatch.New(dispatch.Config{BaseURL: cfg.Dispatch.BaseURL}, dispatch.WithLogger(log))
	svc := reminder.New(notifier.New(client, log), log)
	svc.Apply(set)

	fctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	res, err := svc.Fire(fctx, id)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	out := sendResult{Delivered: res.Delivered()}
	if res.Delivered() {
		out.ID = res.Stored.ID
		out.Stored = res.Stored.Raw
	} else {
		out.Error = errString(res.Err)
	}
	_ = json.NewEncoder(stdout).Encode(out)
	if !out.Delivered {
		return 1
	}
	return 0
}
