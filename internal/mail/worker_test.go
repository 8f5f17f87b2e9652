package mail

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

type scriptReader struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (r *scriptReader) ReadMessage(ctx context.Context) (RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return RawMessage{}, io.EOF
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return RawMessage{Value: m}, nil
}

type countingSender struct {
	mu       sync.Mutex
	calls    int
	failUpTo int // fail the first failUpTo calls
	last     *Message
}

func (s *countingSender) Send(ctx context.Context, m *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = m
	if s.calls <= s.failUpTo {
		return errors.New("provider unavailable")
	}
	return nil
}

func newTestWorker(sender Sender) *Worker {
	w := NewWorker(nil, sender)
	w.sleepF = func(ctx context.Context, d time.Duration) bool { return true }
	return w
}

func mustJSON(t *testing.T, m *Message) []byte {
	t.Helper()
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestDeliverSucceedsFirstTry(t *testing.T) {
	s := &countingSender{}
	w := newTestWorker(s)
	w.deliver(context.Background(), mustJSON(t, &Message{To: []string{"a@example.com"}, Subject: "hi", Text: "body"}))
	if s.calls != 1 {
		t.Errorf("calls = %d, want 1", s.calls)
	}
	if s.last == nil || s.last.Subject != "hi" {
		t.Errorf("delivered message = %+v", s.last)
	}
}

func TestDeliverRetriesThenSucceeds(t *testing.T) {
	s := &countingSender{failUpTo: 2}
	w := newTestWorker(s)
	w.deliver(context.Background(), mustJSON(t, &Message{To: []string{"a@example.com"}}))
	if s.calls != 3 {
		t.Errorf("calls = %d, want 3", s.calls)
	}
}

func TestDeliverGivesUpAfterMaxAttempts(t *testing.T) {
	s := &countingSender{failUpTo: 100}
	w := newTestWorker(s)
	w.deliver(context.Background(), mustJSON(t, &Message{To: []string{"a@example.com"}}))
	if s.calls != MaxAttempts {
		t.Errorf("calls = %d, want %d", s.calls, MaxAttempts)
	}
}

func TestDeliverDropsUndecodableJob(t *testing.T) {
	s := &countingSender{}
	w := newTestWorker(s)
	w.deliver(context.Background(), []byte("not json"))
	if s.calls != 0 {
		t.Errorf("calls = %d, want 0", s.calls)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := &countingSender{}
	r := &scriptReader{msgs: [][]byte{mustJSON(t, &Message{To: []string{"a@example.com"}})}}
	w := NewWorker(r, s)
	w.sleepF = func(ctx context.Context, d time.Duration) bool { return true }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	// Let the single message drain, then cancel; the EOF read error path must
	// not spin forever once ctx is done.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if s.calls < 1 {
		t.Errorf("message was not delivered before cancel, calls = %d", s.calls)
	}
}
