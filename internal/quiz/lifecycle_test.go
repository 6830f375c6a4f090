package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jconnolly84/quizmas/internal/docstore"
)

func TestEnsureRoomCreatesDefaults(t *testing.T) {
	svc, _ := setupService(t)

	r := ensure(t, svc, "xmas")

	if r.CreatedAt != testNow.UnixMilli() {
		t.Errorf("createdAt = %d, want %d", r.CreatedAt, testNow.UnixMilli())
	}
	if r.Buzz.Locked() {
		t.Error("new room should have an unlocked buzzer")
	}
	if r.Teams == nil || len(r.Teams) != 0 {
		t.Errorf("teams = %v, want empty list", r.Teams)
	}
	if r.Scores == nil || len(r.Scores) != 0 {
		t.Errorf("scores = %v, want empty map", r.Scores)
	}
	if r.Game.Round != RoundIdle || r.Game.Index != 0 || r.Game.Reveal {
		t.Errorf("game = %+v, want idle", r.Game)
	}
	if r.HasLive() || r.Reveal {
		t.Error("new room should have no live question")
	}
	if r.Charades.Running || len(r.Charades.Used) != 0 || r.Hum.Running || len(r.Hum.Used) != 0 {
		t.Errorf("acts not cleared: charades=%+v hum=%+v", r.Charades, r.Hum)
	}
	if r.HasQuestionBank() {
		t.Error("new room should have no question bank")
	}
}

func TestEnsureRoomIdempotent(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()

	ensure(t, svc, "xmas")
	if err := svc.RegisterTeam(ctx, "xmas", "Red"); err != nil {
		t.Fatalf("register: %v", err)
	}
	before := version(t, store, "xmas")

	r := ensure(t, svc, "xmas")

	if after := version(t, store, "xmas"); after != before {
		t.Errorf("version moved from %d to %d on second ensure", before, after)
	}
	if len(r.Teams) != 1 || r.Teams[0] != "Red" {
		t.Errorf("teams = %v, want [Red]", r.Teams)
	}
}

func TestEnsureRoomAddsOnlyMissingFields(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()

	// A room written before hum and questionBank existed.
	old := docstore.Document{
		"createdAt": json.RawMessage(`42`),
		"buzz":      json.RawMessage(`{"lockedBy":"Red","lockedAt":7}`),
		"teams":     json.RawMessage(`["Red","Blue"]`),
		"scores":    json.RawMessage(`{"Red":3,"Blue":1}`),
		"game":      json.RawMessage(`{"round":"charades","index":0,"reveal":false}`),
		"live":      json.RawMessage(`null`),
		"reveal":    json.RawMessage(`false`),
		"charades":  json.RawMessage(`{"actorTeam":"Blue","person":"Einstein","endsAt":null,"running":false,"revealed":true,"used":["Einstein"]}`),
	}
	if err := store.Set(ctx, "legacy", old); err != nil {
		t.Fatalf("seed legacy room: %v", err)
	}

	r := ensure(t, svc, "legacy")

	if r.CreatedAt != 42 {
		t.Errorf("createdAt = %d, want 42", r.CreatedAt)
	}
	if deref(r.Buzz.LockedBy) != "Red" {
		t.Errorf("buzz.lockedBy = %v, want Red", deref(r.Buzz.LockedBy))
	}
	if len(r.Teams) != 2 || r.Scores["Red"] != 3 || r.Scores["Blue"] != 1 {
		t.Errorf("teams/scores changed: %v %v", r.Teams, r.Scores)
	}
	if deref(r.Charades.Person) != "Einstein" || !r.Charades.Revealed {
		t.Errorf("charades overwritten: %+v", r.Charades)
	}
	if r.Hum.Used == nil || r.Hum.Running {
		t.Errorf("hum default not added: %+v", r.Hum)
	}

	snap, _ := store.Get(ctx, "legacy")
	if !snap.Doc.Has("hum") {
		t.Error("hum field missing after migration")
	}
	if snap.Doc.Has("questionBank") {
		t.Error("optional questionBank should not be back-filled")
	}
}

func TestEnsureRoomConcurrentFirstAccess(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	errs := make(chan error, 8)
	for range 8 {
		go func() {
			_, err := svc.EnsureRoom(ctx, "party")
			errs <- err
		}()
	}
	for range 8 {
		if err := <-errs; err != nil {
			t.Fatalf("ensure: %v", err)
		}
	}
}

func TestRoomMissing(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Room(context.Background(), "ghost")
	if !errors.Is(err, ErrRoomMissing) {
		t.Fatalf("err = %v, want ErrRoomMissing", err)
	}
}

func TestSetQuestionBankOnce(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	ensure(t, svc, "xmas")

	stored, err := svc.SetQuestionBank(ctx, "xmas", json.RawMessage(`{"rounds":[1]}`), false)
	if err != nil || !stored {
		t.Fatalf("first set: stored=%v err=%v", stored, err)
	}

	stored, err = svc.SetQuestionBank(ctx, "xmas", json.RawMessage(`{"rounds":[2]}`), false)
	if err != nil || stored {
		t.Fatalf("second set without overwrite: stored=%v err=%v", stored, err)
	}
	if got := string(room(t, svc, "xmas").QuestionBank); got != `{"rounds":[1]}` {
		t.Errorf("bank = %s, want first payload", got)
	}

	stored, err = svc.SetQuestionBank(ctx, "xmas", json.RawMessage(`{"rounds":[3]}`), true)
	if err != nil || !stored {
		t.Fatalf("overwrite: stored=%v err=%v", stored, err)
	}
	if got := string(room(t, svc, "xmas").QuestionBank); got != `{"rounds":[3]}` {
		t.Errorf("bank = %s, want overwritten payload", got)
	}

	if _, err := svc.SetQuestionBank(ctx, "ghost", json.RawMessage(`{}`), true); !errors.Is(err, ErrRoomMissing) {
		t.Errorf("missing room: err = %v, want ErrRoomMissing", err)
	}
}
