package quiz

import (
	"context"
	"testing"
	"time"
)

func nextRoom(t *testing.T, ch <-chan *Room) *Room {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for room update")
		return nil
	}
}

func TestListenRoomLifecycle(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	ch := make(chan *Room, 16)
	cancel, err := svc.ListenRoom(ctx, "xmas", func(r *Room) { ch <- r })
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	if r := nextRoom(t, ch); r != nil {
		t.Fatalf("initial = %+v, want nil for a missing room", r)
	}

	ensure(t, svc, "xmas")
	if r := nextRoom(t, ch); r == nil || r.Teams == nil {
		t.Fatalf("after ensure = %+v, want fresh room", r)
	}

	svc.RegisterTeam(ctx, "xmas", "Red")
	if r := nextRoom(t, ch); !r.HasTeam("Red") {
		t.Fatalf("after register teams = %v", r.Teams)
	}

	svc.Buzz(ctx, "xmas", "Red")
	if r := nextRoom(t, ch); !r.Buzz.Locked() {
		t.Fatal("after buzz: expected locked buzzer")
	}

	cancel()
	svc.ResetBuzz(ctx, "xmas")
	select {
	case r := <-ch:
		t.Fatalf("update after cancel: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestListenRoomStartsWithCurrentState(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	ensure(t, svc, "xmas")
	svc.RegisterTeam(ctx, "xmas", "Blue")

	ch := make(chan *Room, 4)
	cancel, err := svc.ListenRoom(ctx, "xmas", func(r *Room) { ch <- r })
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer cancel()

	if r := nextRoom(t, ch); r == nil || !r.HasTeam("Blue") {
		t.Fatalf("initial = %+v, want current room", r)
	}
}

func TestListenRoomStopsOnContextCancel(t *testing.T) {
	svc, store := setupService(t)
	ctx, cancelCtx := context.WithCancel(context.Background())
	ensure(t, svc, "xmas")

	ch := make(chan *Room, 4)
	if _, err := svc.ListenRoom(ctx, "xmas", func(r *Room) { ch <- r }); err != nil {
		t.Fatalf("listen: %v", err)
	}
	nextRoom(t, ch)

	cancelCtx()
	deadline := time.Now().Add(time.Second)
	for store.Broker().Subscribers("xmas") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription still registered after context cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
