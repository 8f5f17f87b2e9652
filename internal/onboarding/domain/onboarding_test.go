package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/apperr"
)

func TestTransitionTableExhaustive(t *testing.T) {
	allowed := map[Status]map[Action]Status{
		StatusDraft:     {ActionSubmit: StatusSubmitted},
		StatusSubmitted: {ActionApprove: StatusApproved, ActionDecline: StatusDeclined},
		StatusApproved:  {ActionComplete: StatusCompleted},
	}
	statuses := []Status{StatusDraft, StatusSubmitted, StatusApproved, StatusDeclined, StatusCompleted}
	actions := []Action{ActionSubmit, ActionApprove, ActionDecline, ActionComplete}

	for _, from := range statuses {
		for _, action := range actions {
			want, legal := allowed[from][action]
			got, err := Transition(from, action)
			if legal {
				if err != nil {
					t.Errorf("(%s, %s): unexpected error %v", from, action, err)
				} else if got != want {
					t.Errorf("(%s, %s) = %s, want %s", from, action, got, want)
				}
				continue
			}
			if !errors.Is(err, apperr.ErrConflict) {
				t.Errorf("(%s, %s): err = %v, want conflict", from, action, err)
			}
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, tc := range []struct {
		status Status
		want   bool
	}{
		{StatusDraft, false},
		{StatusSubmitted, false},
		{StatusApproved, false},
		{StatusDeclined, true},
		{StatusCompleted, true},
	} {
		if got := tc.status.Terminal(); got != tc.want {
			t.Errorf("%s.Terminal() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	o := &Onboarding{OnboardingTokenExpiresAt: now.Add(time.Hour)}
	if o.TokenExpired(now) {
		t.Fatalf("token not yet expired")
	}
	if !o.TokenExpired(now.Add(2 * time.Hour)) {
		t.Fatalf("token should be expired")
	}
}
