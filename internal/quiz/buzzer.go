package quiz

import (
	"context"

	"github.com/jconnolly84/quizmas/internal/docstore"
)

// BuzzResult tells a caller whether its buzz took the lock.
type BuzzResult struct {
	Won      bool   `json:"won"`
	LockedBy string `json:"lockedBy"`
}

// Buzz locks the buzzer to team if it is free, as one atomic step. A buzz
// that finds the lock already held is absorbed: it writes nothing and
// returns no error.
func (s *Service) Buzz(ctx context.Context, roomID, team string) (BuzzResult, error) {
	var won bool
	snap, err := s.store.Transact(ctx, roomID, func(cur docstore.Document) ([]docstore.Field, error) {
		won = false
		var b Buzz
		if err := decodeField(cur, "buzz", &b); err != nil {
			return nil, err
		}
		if b.Locked() {
			return nil, nil
		}
		won = true
		at := s.nowMillis()
		return []docstore.Field{docstore.Set("buzz", Buzz{LockedBy: &team, LockedAt: &at})}, nil
	})
	if err != nil {
		return BuzzResult{}, roomErr(roomID, err)
	}

	var b Buzz
	if err := decodeField(snap.Doc, "buzz", &b); err != nil {
		return BuzzResult{}, err
	}
	res := BuzzResult{Won: won}
	if b.LockedBy != nil {
		res.LockedBy = *b.LockedBy
	}
	if !won {
		s.logger.Debug("buzz absorbed", "room", roomID, "team", team, "locked_by", res.LockedBy)
	}
	return res, nil
}

// ResetBuzz unlocks the buzzer unconditionally.
func (s *Service) ResetBuzz(ctx context.Context, roomID string) error {
	return s.update(ctx, roomID, docstore.Set("buzz", Buzz{}))
}
