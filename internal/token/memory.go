package token

import (
	"context"
	"sync"
	"time"
)

// SweepInterval is the default period for MemoryStore expiry sweeps.
const SweepInterval = 60 * time.Second

// MemoryStore is an in-memory GrantStore. Grants do not survive a restart, so
// production deployments should prefer the Postgres store; this one serves
// tests and single-process development setups.
type MemoryStore struct {
	mu   sync.Mutex
	m    map[string]Grant
	nowF func() time.Time
}

// NewMemoryStore returns an empty in-memory grant store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]Grant),
		nowF: time.Now().UTC,
	}
}

// Put records the grant until its expiry.
func (s *MemoryStore) Put(ctx context.Context, g *Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[g.JTI] = *g
	return nil
}

// Get returns the grant for jti, or nil if missing or expired.
func (s *MemoryStore) Get(ctx context.Context, jti string) (*Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.m[jti]
	if !ok {
		return nil, nil
	}
	if !g.ExpiresAt.After(s.nowF()) {
		delete(s.m, jti)
		return nil, nil
	}
	out := g
	return &out, nil
}

// Delete removes the grant for jti. Idempotent.
func (s *MemoryStore) Delete(ctx context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, jti)
	return nil
}

// TakeOnce fetches and deletes the grant for jti under one lock, so only one
// of two concurrent rotations of the same token wins.
func (s *MemoryStore) TakeOnce(ctx context.Context, jti string) (*Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.m[jti]
	if !ok {
		return nil, nil
	}
	delete(s.m, jti)
	if !g.ExpiresAt.After(s.nowF()) {
		return nil, nil
	}
	out := g
	return &out, nil
}

// Sweep removes all expired grants and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.nowF()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for jti, g := range s.m {
		if !g.ExpiresAt.After(now) {
			delete(s.m, jti)
			n++
		}
	}
	return n
}

// RunSweeper sweeps expired grants every interval until ctx is done. The
// existence checks in VerifyRefresh and VerifyInvite rely on expired grants
// actually disappearing, so callers must run this for any long-lived store.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = SweepInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}
