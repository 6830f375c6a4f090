package quiz

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jconnolly84/quizmas/internal/docstore"
)

// IdleStore is what the Sweeper needs from the store.
type IdleStore interface {
	ListIdle(ctx context.Context, cutoff time.Time) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// Sweeper deletes rooms nobody has written to for longer than TTL. Room
// operations never delete; expiry lives here, outside them.
type Sweeper struct {
	store    IdleStore
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewSweeper(store IdleStore, ttl, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{store: store, ttl: ttl, interval: interval, logger: logger, now: time.Now}
}

// Sweep removes every expired room once and returns how many went.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	keys, err := s.store.ListIdle(ctx, s.now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, k := range keys {
		err := s.store.Delete(ctx, k)
		if errors.Is(err, docstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}
		s.logger.Info("room expired", "room", k)
		removed++
	}
	return removed, nil
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("room sweep failed", "error", err)
			}
		}
	}
}
