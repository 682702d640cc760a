package service

import (
	"context"
	"log"
	"time"

	"github.com/edwanmarques/portfolio/internal/repository"
)

// SessionSweeper periodically deletes expired session rows. Expired
// sessions are already rejected by the guard; this only reclaims space.
type SessionSweeper struct {
	Store    repository.SessionStore
	Interval time.Duration
	Now      func() time.Time
}

// SweepOnce deletes sessions expired at the current time.
func (s *SessionSweeper) SweepOnce(ctx context.Context) (int64, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return s.Store.DeleteExpired(ctx, now().UTC())
}

// Run sweeps every Interval until ctx is done.
func (s *SessionSweeper) Run(ctx context.Context) {
	if s.Interval <= 0 {
		return
	}
	t := time.NewTicker(s.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				log.Printf("session-sweeper: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("session-sweeper: removed %d expired sessions", n)
			}
		}
	}
}
