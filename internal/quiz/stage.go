package quiz

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/jconnolly84/quizmas/internal/docstore"
)

// act describes a timed mini-game sub-object. Charades and hum share the
// same state shape under different field names.
type act struct {
	round  Round
	field  string
	team   string
	prompt string
}

var (
	charadesAct = act{round: RoundCharades, field: "charades", team: "actorTeam", prompt: "person"}
	humAct      = act{round: RoundHum, field: "hum", team: "hummerTeam", prompt: "song"}
	acts        = []act{charadesAct, humAct}
)

func (a act) path(f string) string { return a.field + "." + f }

// cleared resets the act's transient fields. The used pool survives.
func (a act) cleared() []docstore.Field {
	return []docstore.Field{
		docstore.Set(a.path(a.team), nil),
		docstore.Set(a.path(a.prompt), nil),
		docstore.Set(a.path("endsAt"), nil),
		docstore.Set(a.path("running"), false),
		docstore.Set(a.path("revealed"), false),
	}
}

// used reads the act's pool from a room document.
func (a act) used(doc docstore.Document) ([]string, error) {
	var t Timer
	if err := decodeField(doc, a.field, &t); err != nil {
		return nil, err
	}
	return t.Used, nil
}

// enterStage is the transition into game.Round. It unlocks the buzzer,
// drops the live question unless questions are the target, and clears
// every other act.
func enterStage(game Game) []docstore.Field {
	fields := []docstore.Field{
		docstore.Set("game", game),
		docstore.Set("buzz", Buzz{}),
	}
	if game.Round != RoundQuestions {
		fields = append(fields,
			docstore.Set("live", nil),
			docstore.Set("reveal", false),
		)
	}
	for _, a := range acts {
		if a.round != game.Round {
			fields = append(fields, a.cleared()...)
		}
	}
	return fields
}

// SetLiveQuestion shows a question to every device. The question object is
// stored as given; its "index" field, when present, is mirrored into game.
func (s *Service) SetLiveQuestion(ctx context.Context, roomID string, live json.RawMessage) error {
	var q struct {
		Index int `json:"index"`
	}
	_ = json.Unmarshal(live, &q)

	fields := enterStage(Game{Round: RoundQuestions, Index: q.Index})
	fields = append(fields,
		docstore.Set("live", live),
		docstore.Set("reveal", false),
	)
	return s.update(ctx, roomID, fields...)
}

// SetReveal shows or hides the live question's answer.
func (s *Service) SetReveal(ctx context.Context, roomID string, reveal bool) error {
	return s.update(ctx, roomID,
		docstore.Set("reveal", reveal),
		docstore.Set("game.reveal", reveal),
	)
}

// ClearStage returns the room to the idle stage. Teams, scores and used
// pools are kept.
func (s *Service) ClearStage(ctx context.Context, roomID string) error {
	return s.update(ctx, roomID, enterStage(Game{})...)
}

func (s *Service) StartCharades(ctx context.Context, roomID, actorTeam, person string, seconds int) error {
	return s.startAct(ctx, roomID, charadesAct, actorTeam, person, seconds)
}

func (s *Service) StopCharades(ctx context.Context, roomID string) error {
	return s.stopAct(ctx, roomID, charadesAct)
}

func (s *Service) RevealCharades(ctx context.Context, roomID string) error {
	return s.revealAct(ctx, roomID, charadesAct)
}

func (s *Service) ResetCharadesPool(ctx context.Context, roomID string) error {
	return s.resetPool(ctx, roomID, charadesAct)
}

func (s *Service) StartHum(ctx context.Context, roomID, hummerTeam, song string, seconds int) error {
	return s.startAct(ctx, roomID, humAct, hummerTeam, song, seconds)
}

func (s *Service) StopHum(ctx context.Context, roomID string) error {
	return s.stopAct(ctx, roomID, humAct)
}

func (s *Service) RevealHum(ctx context.Context, roomID string) error {
	return s.revealAct(ctx, roomID, humAct)
}

func (s *Service) ResetHumPool(ctx context.Context, roomID string) error {
	return s.resetPool(ctx, roomID, humAct)
}

// startAct reads the used pool so the new prompt can be added to it without
// losing a concurrent addition.
func (s *Service) startAct(ctx context.Context, roomID string, a act, team, prompt string, seconds int) error {
	_, err := s.store.Transact(ctx, roomID, func(cur docstore.Document) ([]docstore.Field, error) {
		used, err := a.used(cur)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(used, prompt) {
			used = append(used, prompt)
		}
		if used == nil {
			used = []string{}
		}

		endsAt := s.nowMillis() + int64(seconds)*1000
		fields := enterStage(Game{Round: a.round})
		return append(fields,
			docstore.Set(a.path(a.team), team),
			docstore.Set(a.path(a.prompt), prompt),
			docstore.Set(a.path("endsAt"), endsAt),
			docstore.Set(a.path("running"), true),
			docstore.Set(a.path("revealed"), false),
			docstore.Set(a.path("used"), used),
		), nil
	})
	if err != nil {
		return roomErr(roomID, err)
	}
	s.logger.Debug("act started", "room", roomID, "round", a.round.String(), "team", team, "seconds", seconds)
	return nil
}

// stopAct freezes the timer without revealing the prompt.
func (s *Service) stopAct(ctx context.Context, roomID string, a act) error {
	return s.update(ctx, roomID,
		docstore.Set(a.path("running"), false),
		docstore.Set(a.path("endsAt"), nil),
	)
}

func (s *Service) revealAct(ctx context.Context, roomID string, a act) error {
	return s.update(ctx, roomID,
		docstore.Set(a.path("revealed"), true),
		docstore.Set(a.path("running"), false),
		docstore.Set(a.path("endsAt"), nil),
	)
}

func (s *Service) resetPool(ctx context.Context, roomID string, a act) error {
	return s.update(ctx, roomID, docstore.Set(a.path("used"), []string{}))
}
