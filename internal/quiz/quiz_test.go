package quiz

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jconnolly84/quizmas/internal/database"
	"github.com/jconnolly84/quizmas/internal/docstore"
	"github.com/jconnolly84/quizmas/internal/migrations"
)

var testNow = time.UnixMilli(1_735_689_600_000)

func setupService(t *testing.T) (*Service, *docstore.SQLiteStore) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, filepath.Join(t.TempDir(), "rooms.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	store := docstore.NewSQLiteStore(db,
		docstore.WithClock(func() time.Time { return testNow }),
		docstore.WithRetries(64),
	)
	svc := NewService(store, slog.Default(), WithClock(func() time.Time { return testNow }))
	return svc, store
}

func ensure(t *testing.T, svc *Service, roomID string) *Room {
	t.Helper()
	r, err := svc.EnsureRoom(context.Background(), roomID)
	if err != nil {
		t.Fatalf("ensure room: %v", err)
	}
	return r
}

func room(t *testing.T, svc *Service, roomID string) *Room {
	t.Helper()
	r, err := svc.Room(context.Background(), roomID)
	if err != nil {
		t.Fatalf("read room: %v", err)
	}
	return r
}

func version(t *testing.T, store *docstore.SQLiteStore, roomID string) int64 {
	t.Helper()
	snap, err := store.Get(context.Background(), roomID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	return snap.Version
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
