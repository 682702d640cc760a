package service

import (
	"context"
	"testing"
	"time"

	"github.com/edwanmarques/portfolio/internal/model"
	"github.com/edwanmarques/portfolio/internal/repository/memstore"
)

func TestSessionSweeper(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewSessions()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = store.Create(ctx, &model.Session{ID: "a", UserID: 1, ExpiresAt: now.Add(-time.Second)})
	_ = store.Create(ctx, &model.Session{ID: "b", UserID: 1, ExpiresAt: now.Add(time.Hour)})

	s := &SessionSweeper{Store: store, Interval: time.Hour, Now: func() time.Time { return now }}
	n, err := s.SweepOnce(ctx)
	if err != nil || n != 1 {
		t.Fatalf("swept %d, %v", n, err)
	}
	if _, err := store.Get(ctx, "b"); err != nil {
		t.Fatalf("live session removed: %v", err)
	}
}

func TestSessionSweeperRunStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		(&SessionSweeper{Store: memstore.NewSessions(), Interval: time.Millisecond}).Run(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}
