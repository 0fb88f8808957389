package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/99designs/keyring"

	"pactnotify/internal/credential"
)

func noResolver() func() (string, error) {
	return func() (string, error) { return "", errors.New("token resolver should not be called") }
}

func TestKindsListsEveryKind(t *testing.T) {
	var out bytes.Buffer
	if code := run(context.Background(), []string{"kinds"}, nil, &out, io.Discard); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 18 {
		t.Fatalf("got %d lines, want header + 17 kinds:\n%s", len(lines), out.String())
	}
	if !strings.Contains(out.String(), "content_warning") {
		t.Fatalf("missing content_warning:\n%s", out.String())
	}
}

func TestSendCountIssuesIndependentRequests(t *testing.T) {
	var hits atomic.Int32
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		auth.Store(r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	payload := `{"recipient":"u1","partnershipId":"p1","senderName":"Ana","preview":"hi"}`
	var out, errOut bytes.Buffer
	code := runSend(context.Background(),
		[]string{"-kind", "new_message", "-payload", "-", "-token", "cli-tok", "-base-url", srv.URL, "-count", "3", "-rate", "1000"},
		strings.NewReader(payload), &out, &errOut, noResolver())
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut.String())
	}
	if hits.Load() != 3 {
		t.Fatalf("hits = %d, want 3", hits.Load())
	}
	if auth.Load() != "Bearer cli-tok" {
		t.Fatalf("auth = %v", auth.Load())
	}

	sc := bufio.NewScanner(&out)
	n := 0
	for sc.Scan() {
		var r sendResult
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("bad output line %q: %v", sc.Text(), err)
		}
		if !r.Delivered || r.Index != n {
			t.Fatalf("line %d: %+v", n, r)
		}
		n++
	}
	if n != 3 {
		t.Fatalf("printed %d results, want 3", n)
	}
}

func TestSendReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	payload := `{"recipient":"u1","partnershipId":"p1","partnerName":"Ana"}`
	var out bytes.Buffer
	code := runSend(context.Background(),
		[]string{"-kind", "partnership_declined", "-token", "t", "-base-url", srv.URL},
		strings.NewReader(payload), &out, io.Discard, noResolver())
	if code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}
	var r sendResult
	if err := json.Unmarshal(out.Bytes(), &r); err != nil {
		t.Fatalf("output: %v", err)
	}
	if r.Delivered || !strings.Contains(r.Error, "401") {
		t.Fatalf("result = %+v", r)
	}
}

func TestSendRejectsBadInputBeforeSending(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer srv.Close()

	tests := []struct {
		name    string
		args    []string
		payload string
	}{
		{"missing kind", []string{}, `{}`},
		{"unknown kind", []string{"-kind", "birthday"}, `{"recipient":"u1"}`},
		{"unknown field", []string{"-kind", "new_message"}, `{"recipient":"u1","oops":true}`},
		{"missing recipient", []string{"-kind", "new_message"}, `{"partnershipId":"p1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-token", "t", "-base-url", srv.URL}, tt.args...)
			code := runSend(context.Background(), args, strings.NewReader(tt.payload), io.Discard, io.Discard, noResolver())
			if code == 0 {
				t.Fatalf("expected failure")
			}
		})
	}
	if hits.Load() != 0 {
		t.Fatalf("invalid input reached the server %d times", hits.Load())
	}
}

func TestRemindFiresConfiguredReminder(t *testing.T) {
	t.Setenv("NOTIFICATIONS_API_URL", "")
	t.Setenv("NOTIFICATIONS_TOKEN", "")

	var auth atomic.Value
	var sent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		sent.Store(string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":7,"type":"task_reminder"}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "notifyd.yaml")
	cfg := "dispatch:\n  base_url: " + srv.URL + "\n  token: svc-tok\n" +
		"reminders:\n  - id: weekly\n    schedule: \"@weekly\"\n    recipient: u1\n    task_id: t1\n    task_title: Finish report\n"
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"remind", "-config", path, "weekly"}, nil, &out, &errOut); code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut.String())
	}
	if got := auth.Load(); got != "Bearer svc-tok" {
		t.Fatalf("Authorization = %v", got)
	}
	if body, _ := sent.Load().(string); !strings.Contains(body, `is still open.`) {
		t.Fatalf("sent body = %s", body)
	}
	var res sendResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if !res.Delivered || res.ID != "7" {
		t.Fatalf("unexpected result: %+v", res)
	}

	if code := run(context.Background(), []string{"remind", "-config", path, "missing"}, nil, io.Discard, io.Discard); code != 1 {
		t.Fatalf("unknown reminder exit code = %d, want 1", code)
	}
}

func TestTokenCommands(t *testing.T) {
	store := credential.NewStore(keyring.NewArrayKeyring(nil))
	open := func() (*credential.Store, error) { return store, nil }

	var out bytes.Buffer
	if code := runToken([]string{"set"}, strings.NewReader("from-stdin\n"), &out, io.Discard, open); code != 0 {
		t.Fatalf("token set exit %d", code)
	}
	if got, _ := store.Token(); got != "from-stdin" {
		t.Fatalf("stored token = %q", got)
	}

	t.Setenv("NOTIFICATIONS_TOKEN", "")
	tok, err := envToken(open)()
	if err != nil || tok != "from-stdin" {
		t.Fatalf("envToken = %q, %v", tok, err)
	}
	t.Setenv("NOTIFICATIONS_TOKEN", "from-env")
	if tok, _ := envToken(open)(); tok != "from-env" {
		t.Fatalf("env token not preferred: %q", tok)
	}

	if code := runToken([]string{"delete"}, nil, &out, io.Discard, open); code != 0 {
		t.Fatalf("token delete exit %d", code)
	}
	if _, err := store.Token(); !errors.Is(err, credential.ErrNotFound) {
		t.Fatalf("token still present: %v", err)
	}
}
