package quiz

import (
	"context"

	"github.com/jconnolly84/quizmas/internal/docstore"
)

// RegisterTeam adds team to the room once, in join order, with a zero score.
// An existing score is never reset.
func (s *Service) RegisterTeam(ctx context.Context, roomID, team string) error {
	_, err := s.store.Transact(ctx, roomID, func(cur docstore.Document) ([]docstore.Field, error) {
		var (
			teams  []string
			scores map[string]int
		)
		if err := decodeField(cur, "teams", &teams); err != nil {
			return nil, err
		}
		if err := decodeField(cur, "scores", &scores); err != nil {
			return nil, err
		}
		return ledgerPatch(teams, scores, team, 0), nil
	})
	if err != nil {
		return roomErr(roomID, err)
	}
	return nil
}

// ChangeScore adds delta to team's score and returns the new value. A team
// that never registered starts from zero and is registered on the way.
func (s *Service) ChangeScore(ctx context.Context, roomID, team string, delta int) (int, error) {
	snap, err := s.store.Transact(ctx, roomID, func(cur docstore.Document) ([]docstore.Field, error) {
		var (
			teams  []string
			scores map[string]int
		)
		if err := decodeField(cur, "teams", &teams); err != nil {
			return nil, err
		}
		if err := decodeField(cur, "scores", &scores); err != nil {
			return nil, err
		}
		return ledgerPatch(teams, scores, team, delta), nil
	})
	if err != nil {
		return 0, roomErr(roomID, err)
	}

	var scores map[string]int
	if err := decodeField(snap.Doc, "scores", &scores); err != nil {
		return 0, err
	}
	return scores[team], nil
}

// ledgerPatch makes sure team is listed and scored, then applies delta.
// It returns nil when nothing changes.
func ledgerPatch(teams []string, scores map[string]int, team string, delta int) []docstore.Field {
	if scores == nil {
		scores = map[string]int{}
	}
	_, scored := scores[team]
	listed := false
	for _, t := range teams {
		if t == team {
			listed = true
			break
		}
	}
	if listed && scored && delta == 0 {
		return nil
	}

	var fields []docstore.Field
	if !listed {
		fields = append(fields, docstore.Set("teams", append(teams, team)))
	}
	scores[team] += delta
	return append(fields, docstore.Set("scores", scores))
}
