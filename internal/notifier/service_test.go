package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pactnotify/internal/dispatch"
	"pactnotify/internal/notification"
	logx "pactnotify/pkg/logx"
)

type recordingSender struct {
	mu     sync.Mutex
	tokens []string
	recs   []notification.Record
	block  chan struct{}
	ctxErr []error
}

func (r *recordingSender) Send(ctx context.Context, token string, rec notification.Record) dispatch.Result {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, token)
	r.recs = append(r.recs, rec)
	r.ctxErr = append(r.ctxErr, ctx.Err())
	return dispatch.Result{Stored: &dispatch.Stored{Record: rec}}
}

func (r *recordingSender) sent() []notification.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification.Record(nil), r.recs...)
}

func TestNotifyBuildsAndSends(t *testing.T) {
	t.Parallel()
	rs := &recordingSender{}
	svc := New(rs, logx.Nop())

	ev := notification.EscrowReward{Recipient: "u1", TransactionID: "tx", TaskID: "t", TaskTitle: "Yoga", Amount: 5}
	res := svc.Notify(context.Background(), "bearer-1", ev)

	require.True(t, res.Delivered())
	assert.Equal(t, notification.Build(ev), res.Stored.Record)
	assert.Equal(t, []string{"bearer-1"}, rs.tokens)
}

func TestNotifyNilEvent(t *testing.T) {
	t.Parallel()
	rs := &recordingSender{}
	res := New(rs, logx.Nop()).Notify(context.Background(), "t", nil)
	assert.True(t, errors.Is(res.Err, ErrNilEvent))
	assert.Empty(t, rs.sent())
}

func TestNotifyAllKeepsPositions(t *testing.T) {
	t.Parallel()
	rs := &recordingSender{}
	svc := New(rs, logx.Nop())

	a := notification.TaskCompleted{Recipient: "alice", TaskID: "t1", PartnershipID: "p1", CompletedBy: "Bob", TaskTitle: "Swim"}
	b := notification.TaskCompleted{Recipient: "bob", TaskID: "t1", PartnershipID: "p1", CompletedBy: "Alice", TaskTitle: "Swim"}

	results := svc.NotifyAll(context.Background(), "t", a, b, nil)
	require.Len(t, results, 3)
	assert.Equal(t, "alice", results[0].Stored.Recipient)
	assert.Equal(t, "bob", results[1].Stored.Recipient)
	assert.True(t, errors.Is(results[2].Err, ErrNilEvent))
	assert.Len(t, rs.sent(), 2)
}

func TestGoOutlivesCallerContext(t *testing.T) {
	t.Parallel()
	rs := &recordingSender{block: make(chan struct{})}
	svc := New(rs, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	svc.Go(ctx, "t", notification.NewMessage{Recipient: "u1", PartnershipID: "p1", SenderName: "Ana", Preview: "hey"})
	cancel()
	close(rs.block)

	wctx, wcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer wcancel()
	require.NoError(t, svc.Wait(wctx))

	require.Len(t, rs.sent(), 1)
	assert.NoError(t, rs.ctxErr[0], "delivery context must not inherit cancellation")
}

func TestWaitTimesOut(t *testing.T) {
	t.Parallel()
	rs := &recordingSender{block: make(chan struct{})}
	svc := New(rs, logx.Nop())
	svc.Go(context.Background(), "t", notification.AgreementCompleted{Recipient: "u1"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Wait(ctx), context.DeadlineExceeded)
	close(rs.block)
}

// Proof submitted end to end against an echoing ingestion endpoint.
func TestProofSubmittedEndToEnd(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	client := dispatch.New(dispatch.Config{BaseURL: srv.URL}, dispatch.WithHTTPClient(srv.Client()))
	res := New(client, logx.Nop()).Notify(context.Background(), "secret", notification.ProofSubmitted{
		Recipient:     "partner-1",
		TaskID:        "task-42",
		TaskTitle:     "Finish report",
		PartnershipID: "ptn-7",
		ProofID:       "proof-9",
	})
	require.True(t, res.Delivered(), "err: %v", res.Err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(res.Stored.Raw, &got))
	assert.Equal(t, "partner-1", got["recipient"])
	assert.Equal(t, "proof_submitted", got["type"])
	assert.Equal(t, "Proof Submitted for Verification", got["title"])
	assert.Contains(t, got["message"], "Finish report")
	assert.Equal(t, "/partnerships/ptn-7/tasks", got["link"])
	assert.Equal(t, "task-42", got["task"])
	assert.Equal(t, "proof-9", got["proof"])
	assert.Equal(t, "ptn-7", got["partnership"])
	assert.Equal(t, "high", got["priority"])
	assert.Len(t, got, 9)
}

func TestFailedDeliveryDoesNotFailCaller(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := dispatch.New(dispatch.Config{BaseURL: srv.URL}, dispatch.WithHTTPClient(srv.Client()))
	svc := New(client, logx.Nop())

	var res dispatch.Result
	assert.NotPanics(t, func() {
		res = svc.Notify(context.Background(), "t", notification.TaskCompleted{Recipient: "u1", TaskID: "t1"})
	})
	assert.False(t, res.Delivered())
	assert.Error(t, res.Err)
}
