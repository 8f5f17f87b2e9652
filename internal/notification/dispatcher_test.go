package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/mail"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/notification/domain"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/rbac"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/realtime"
	userdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/user/domain"
)

type memNotifRepo struct {
	mu   sync.Mutex
	rows []*domain.Notification
}

func (r *memNotifRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *memNotifRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, row := range r.rows {
		if row.UserID == userID && !row.Read {
			n++
		}
	}
	return n, nil
}

func (r *memNotifRepo) MarkRead(ctx context.Context, userID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id && row.UserID == userID && !row.Read {
			row.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (r *memNotifRepo) ListForUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

type memUsers struct {
	m map[string]*userdomain.User
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	return r.m[id], nil
}

type recordingHub struct {
	mu     sync.Mutex
	events map[string][]realtime.Event
}

func newRecordingHub() *recordingHub {
	return &recordingHub{events: make(map[string][]realtime.Event)}
}

func (h *recordingHub) Publish(userID string, evt realtime.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events[userID] = append(h.events[userID], evt)
}

type flakyEnqueuer struct {
	mu     sync.Mutex
	failTo string // address whose enqueue fails
	sent   []*mail.Message
}

func (e *flakyEnqueuer) Enqueue(ctx context.Context, m *mail.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(m.To) == 1 && m.To[0] == e.failTo {
		return errors.New("broker down")
	}
	cp := *m
	e.sent = append(e.sent, &cp)
	return nil
}

func (e *flakyEnqueuer) Close() error { return nil }

func testUsers() *memUsers {
	return &memUsers{m: map[string]*userdomain.User{
		"u1": {ID: "u1", Email: "u1@example.com", Role: rbac.RoleAdmin},
		"u2": {ID: "u2", Email: "u2@example.com", Role: rbac.RoleAdmin},
		"u3": {ID: "u3", Email: "u3@example.com", Role: rbac.RoleSectorOwner},
	}}
}

func TestNotifyOneAllChannels(t *testing.T) {
	ctx := context.Background()
	repo := &memNotifRepo{}
	hub := newRecordingHub()
	queue := &flakyEnqueuer{}
	d := NewFanOut(repo, testUsers(), hub, queue)

	n, err := d.NotifyOne(ctx, "u1", Input{
		Type: domain.TypeConventionUploaded, Subject: "Convention uploaded", Content: "point X uploaded a convention",
	})
	if err != nil {
		t.Fatalf("NotifyOne: %v", err)
	}
	if n.ID == "" || n.Read {
		t.Errorf("created record = %+v", n)
	}
	evts := hub.events["u1"]
	if len(evts) != 2 || evts[0].Kind != realtime.KindNewNotification || evts[1].Kind != realtime.KindUnreadCount {
		t.Errorf("events = %+v", evts)
	}
	if got := evts[1].Payload.(map[string]int)["unread"]; got != 1 {
		t.Errorf("unread = %d, want 1", got)
	}
	if len(queue.sent) != 1 || queue.sent[0].To[0] != "u1@example.com" {
		t.Errorf("mail = %+v", queue.sent)
	}
}

func TestNotifyOneSuppressEmail(t *testing.T) {
	repo := &memNotifRepo{}
	hub := newRecordingHub()
	queue := &flakyEnqueuer{}
	d := NewFanOut(repo, testUsers(), hub, queue)

	if _, err := d.NotifyOne(context.Background(), "u1", Input{Type: domain.TypeGeneric, Subject: "s", SuppressEmail: true}); err != nil {
		t.Fatalf("NotifyOne: %v", err)
	}
	if len(queue.sent) != 0 {
		t.Errorf("email enqueued despite suppression: %+v", queue.sent)
	}
	if len(repo.rows) != 1 || len(hub.events["u1"]) != 2 {
		t.Error("row or realtime push missing")
	}
}

func TestNotifyOneEmailOverride(t *testing.T) {
	repo := &memNotifRepo{}
	queue := &flakyEnqueuer{}
	d := NewFanOut(repo, testUsers(), newRecordingHub(), queue)

	_, err := d.NotifyOne(context.Background(), "u1", Input{
		Type: domain.TypeOnboardingApproved, Subject: "s", Content: "c",
		EmailTo: "applicant@example.com", EmailHTML: "<p>register here</p>",
	})
	if err != nil {
		t.Fatalf("NotifyOne: %v", err)
	}
	if len(queue.sent) != 1 {
		t.Fatalf("sent = %+v", queue.sent)
	}
	if queue.sent[0].To[0] != "applicant@example.com" || queue.sent[0].HTML == "" {
		t.Errorf("mail = %+v", queue.sent[0])
	}
}

func TestNotifyManyIsolatesEmailFailure(t *testing.T) {
	repo := &memNotifRepo{}
	hub := newRecordingHub()
	queue := &flakyEnqueuer{failTo: "u2@example.com"}
	d := NewFanOut(repo, testUsers(), hub, queue)

	d.NotifyMany(context.Background(), []string{"u1", "u2", "u3"}, Input{
		Type: domain.TypeOnboardingSubmitted, Subject: "s", Content: "c",
	})

	if len(repo.rows) != 3 {
		t.Errorf("rows = %d, want 3", len(repo.rows))
	}
	for _, u := range []string{"u1", "u2", "u3"} {
		if len(hub.events[u]) != 2 {
			t.Errorf("events for %s = %d, want 2", u, len(hub.events[u]))
		}
	}
	if len(queue.sent) != 2 {
		t.Fatalf("emails = %d, want 2", len(queue.sent))
	}
	for _, m := range queue.sent {
		if m.To[0] == "u2@example.com" {
			t.Error("failing recipient's email was recorded as sent")
		}
	}
}

func TestMarkReadPushesFreshCount(t *testing.T) {
	ctx := context.Background()
	repo := &memNotifRepo{}
	hub := newRecordingHub()
	d := NewFanOut(repo, testUsers(), hub, nil)

	n1, _ := d.NotifyOne(ctx, "u1", Input{Type: domain.TypeGeneric, Subject: "a", SuppressEmail: true})
	_, _ = d.NotifyOne(ctx, "u1", Input{Type: domain.TypeGeneric, Subject: "b", SuppressEmail: true})

	if err := d.MarkRead(ctx, "u1", n1.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	evts := hub.events["u1"]
	last := evts[len(evts)-1]
	if last.Kind != realtime.KindUnreadCount {
		t.Fatalf("last event = %+v", last)
	}
	if got := last.Payload.(map[string]int)["unread"]; got != 1 {
		t.Errorf("unread = %d, want 1", got)
	}
}
