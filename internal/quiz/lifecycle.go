package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/jconnolly84/quizmas/internal/docstore"
)

// EnsureRoom creates roomID with every default if it does not exist, and
// otherwise adds the top-level fields an older document lacks. Existing
// values, nested ones included, are never overwritten.
func (s *Service) EnsureRoom(ctx context.Context, roomID string) (*Room, error) {
	defaults, err := docstore.NewDocument(DefaultRoom())
	if err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, roomID, defaults)
	if err != nil {
		return nil, fmt.Errorf("creating room %q: %w", roomID, err)
	}
	if created {
		s.logger.Info("room created", "room", roomID)
	}

	var added []string
	snap, err := s.store.Transact(ctx, roomID, func(cur docstore.Document) ([]docstore.Field, error) {
		added = missingFields(cur, defaults)
		fields := make([]docstore.Field, 0, len(added))
		for _, k := range added {
			fields = append(fields, docstore.Set(k, defaults[k]))
		}
		return fields, nil
	})
	if err != nil {
		return nil, roomErr(roomID, err)
	}
	if len(added) > 0 {
		s.logger.Info("room migrated", "room", roomID, "added", added)
	}
	return decodeRoom(snap.Doc)
}

// missingFields lists, in stable order, the default fields cur lacks.
// createdAt belongs to the store and is never back-filled.
func missingFields(cur, defaults docstore.Document) []string {
	var out []string
	for k := range defaults {
		if k == "createdAt" || cur.Has(k) {
			continue
		}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// SetQuestionBank stores the host's quiz content. Unless overwrite is set,
// an existing bank is kept and false is returned.
func (s *Service) SetQuestionBank(ctx context.Context, roomID string, bank json.RawMessage, overwrite bool) (bool, error) {
	var stored bool
	_, err := s.store.Transact(ctx, roomID, func(cur docstore.Document) ([]docstore.Field, error) {
		stored = false
		if !overwrite && isSet(cur["questionBank"]) {
			return nil, nil
		}
		stored = true
		return []docstore.Field{docstore.Set("questionBank", bank)}, nil
	})
	if err != nil {
		return false, roomErr(roomID, err)
	}
	return stored, nil
}
