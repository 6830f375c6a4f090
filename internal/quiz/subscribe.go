package quiz

import (
	"context"

	"github.com/jconnolly84/quizmas/internal/docstore"
)

// ListenRoom calls fn right away with the current room (nil when it does not
// exist) and again after every committed change, never going back to an
// older state. fn runs on a dedicated goroutine per listener. Calling the
// returned func, or cancelling ctx, stops delivery.
func (s *Service) ListenRoom(ctx context.Context, roomID string, fn func(*Room)) (func(), error) {
	unsubscribe, err := s.store.Subscribe(ctx, roomID, func(snap docstore.Snapshot) {
		if !snap.Exists() {
			fn(nil)
			return
		}
		room, err := decodeRoom(snap.Doc)
		if err != nil {
			s.logger.Error("skipping undecodable room snapshot", "room", roomID, "version", snap.Version, "error", err)
			return
		}
		fn(room)
	})
	if err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, unsubscribe)
	return func() {
		stop()
		unsubscribe()
	}, nil
}
