// Package notification turns one business event into a persisted record, a
// realtime push, and an asynchronous email job per recipient. The workflow
// services depend only on the Dispatcher interface; channel mechanics live here.
package notification

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/mail"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/notification/domain"
	notifrepo "github.com/enayetsyl/gtc-deploy-sub000/internal/notification/repository"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/realtime"
	userdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/user/domain"
)

// Input describes one business event to fan out.
type Input struct {
	Type    domain.Type
	Subject string
	Content string

	// SuppressEmail skips the email channel entirely.
	SuppressEmail bool
	// EmailTo overrides the recipient's registered address.
	EmailTo string
	// EmailHTML overrides the email body; Content is used when empty.
	EmailHTML string
}

// Dispatcher is what the workflow services call after their transactions
// commit. Implementations must never fail the triggering business operation
// because a delivery channel failed.
type Dispatcher interface {
	// NotifyOne creates the notification row, pushes realtime events, and
	// enqueues an email. Returns the created record; an error only when even
	// the row could not be created.
	NotifyOne(ctx context.Context, userID string, in Input) (*domain.Notification, error)
	// NotifyMany invokes NotifyOne per recipient with per-recipient isolation.
	NotifyMany(ctx context.Context, userIDs []string, in Input)
}

// UserGetter resolves recipients for the email channel. Satisfied by the user repository.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// FanOut implements Dispatcher over the notification repository, the realtime
// hub, and the mail queue.
type FanOut struct {
	repo  notifrepo.Repository
	users UserGetter
	hub   realtime.Publisher
	queue mail.Enqueuer
}

// NewFanOut returns a dispatcher. queue may be nil, disabling the email channel.
func NewFanOut(repo notifrepo.Repository, users UserGetter, hub realtime.Publisher, queue mail.Enqueuer) *FanOut {
	return &FanOut{repo: repo, users: users, hub: hub, queue: queue}
}

// NotifyOne persists the record, then pushes a new-notification event followed
// by an unread-count event, then enqueues the email job. Push and enqueue
// failures are logged and swallowed; the row is the only hard requirement.
func (f *FanOut) NotifyOne(ctx context.Context, userID string, in Input) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      in.Type,
		Subject:   in.Subject,
		Content:   in.Content,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}
	if err := f.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	f.hub.Publish(userID, realtime.Event{Kind: realtime.KindNewNotification, Payload: n})
	if unread, err := f.repo.CountUnread(ctx, userID); err != nil {
		log.Printf("notification: unread count for %s: %v", userID, err)
	} else {
		f.hub.Publish(userID, realtime.Event{Kind: realtime.KindUnreadCount, Payload: map[string]int{"unread": unread}})
	}

	if !in.SuppressEmail && f.queue != nil {
		f.enqueueEmail(ctx, userID, in)
	}
	return n, nil
}

// NotifyMany fans out to every recipient. One recipient's failure never
// affects another; no partial result is rolled back.
func (f *FanOut) NotifyMany(ctx context.Context, userIDs []string, in Input) {
	for _, id := range userIDs {
		if _, err := f.NotifyOne(ctx, id, in); err != nil {
			log.Printf("notification: notify %s: %v", id, err)
		}
	}
}

func (f *FanOut) enqueueEmail(ctx context.Context, userID string, in Input) {
	to := in.EmailTo
	if to == "" {
		u, err := f.users.GetByID(ctx, userID)
		if err != nil || u == nil {
			log.Printf("notification: resolve email for %s: %v", userID, err)
			return
		}
		to = u.Email
	}
	html := in.EmailHTML
	text := ""
	if html == "" {
		text = in.Content
	}
	m := &mail.Message{To: []string{to}, Subject: in.Subject, HTML: html, Text: text}
	if err := f.queue.Enqueue(ctx, m); err != nil {
		log.Printf("notification: enqueue email for %s: %v", userID, err)
	}
}

// MarkRead flags a notification read and pushes a fresh unread count to the
// user's channel.
func (f *FanOut) MarkRead(ctx context.Context, userID, notificationID string) error {
	ok, err := f.repo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if unread, err := f.repo.CountUnread(ctx, userID); err == nil {
		f.hub.Publish(userID, realtime.Event{Kind: realtime.KindUnreadCount, Payload: map[string]int{"unread": unread}})
	}
	return nil
}
