package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jconnolly84/quizmas/internal/docstore"
)

// ErrRoomMissing is returned by every write that targets a room id with no
// document. It is never retried here.
var ErrRoomMissing = errors.New("room missing")

// RoomStore is the document store contract the room core is written against.
// *docstore.SQLiteStore satisfies it.
type RoomStore interface {
	Get(ctx context.Context, key string) (docstore.Snapshot, error)
	Create(ctx context.Context, key string, doc docstore.Document) (bool, error)
	Update(ctx context.Context, key string, fields ...docstore.Field) error
	Transact(ctx context.Context, key string, fn func(docstore.Document) ([]docstore.Field, error)) (docstore.Snapshot, error)
	Subscribe(ctx context.Context, key string, fn func(docstore.Snapshot)) (func(), error)
}

// Service exposes the named room operations. Only Buzz, RegisterTeam,
// ChangeScore, the mini-game starts and SetQuestionBank read before they
// write; everything else is a plain last-writer-wins partial update.
type Service struct {
	store  RoomStore
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(store RoomStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, logger: logger, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) nowMillis() int64 { return s.now().UnixMilli() }

// Room returns the current state of roomID.
func (s *Service) Room(ctx context.Context, roomID string) (*Room, error) {
	snap, err := s.store.Get(ctx, roomID)
	if err != nil {
		return nil, roomErr(roomID, err)
	}
	return decodeRoom(snap.Doc)
}

func (s *Service) update(ctx context.Context, roomID string, fields ...docstore.Field) error {
	if err := s.store.Update(ctx, roomID, fields...); err != nil {
		return roomErr(roomID, err)
	}
	return nil
}

func roomErr(roomID string, err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("room %q: %w", roomID, ErrRoomMissing)
	}
	return err
}

func decodeRoom(doc docstore.Document) (*Room, error) {
	var r Room
	if err := doc.Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding room: %w", err)
	}
	return &r, nil
}

// decodeField reads one top-level field, leaving v untouched when absent.
func decodeField(doc docstore.Document, field string, v any) error {
	raw, ok := doc[field]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s: %w", field, err)
	}
	return nil
}
