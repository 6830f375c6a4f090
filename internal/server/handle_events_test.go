package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/jconnolly84/quizmas/internal/quiz"
)

func liveServer(t *testing.T) (*httptest.Server, context.Context) {
	t.Helper()
	srv := httptest.NewServer(roomRouter(t))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return srv, ctx
}

// nextEvent returns the data of the next "room" event, skipping pings.
func nextEvent(t *testing.T, sc *bufio.Scanner) *quiz.Room {
	t.Helper()
	event := ""
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: ") && event == "room":
			var room *quiz.Room
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &room); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			return room
		}
	}
	t.Fatalf("stream ended: %v", sc.Err())
	return nil
}

func TestEventsStream(t *testing.T) {
	srv, ctx := liveServer(t)
	r := srv.Config.Handler

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/rooms/xmas/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content-type = %q, want text/event-stream", got)
	}
	sc := bufio.NewScanner(resp.Body)

	if room := nextEvent(t, sc); room != nil {
		t.Fatalf("expected null for missing room, got %+v", room)
	}

	expectStatus(t, do(t, r, http.MethodPut, "/api/rooms/xmas", nil), http.StatusOK)
	room := nextEvent(t, sc)
	if room == nil || room.Teams == nil {
		t.Fatalf("expected created room, got %+v", room)
	}

	expectStatus(t, do(t, r, http.MethodPost, "/api/rooms/xmas/buzz", TeamRequest{Team: "Elves"}), http.StatusOK)
	for room == nil || !room.Buzz.Locked() {
		room = nextEvent(t, sc)
	}
	if *room.Buzz.LockedBy != "Elves" {
		t.Errorf("lockedBy = %q, want Elves", *room.Buzz.LockedBy)
	}
}

func TestSocketStream(t *testing.T) {
	srv, ctx := liveServer(t)
	r := srv.Config.Handler
	expectStatus(t, do(t, r, http.MethodPut, "/api/rooms/xmas", nil), http.StatusOK)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/rooms/xmas/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	var room *quiz.Room
	if err := wsjson.Read(ctx, conn, &room); err != nil {
		t.Fatalf("read initial room: %v", err)
	}
	if room == nil {
		t.Fatal("expected current room first")
	}

	expectStatus(t, do(t, r, http.MethodPost, "/api/rooms/xmas/scores", ScoreRequest{Team: "Elves", Delta: 2}), http.StatusOK)
	for room.Scores["Elves"] != 2 {
		if err := wsjson.Read(ctx, conn, &room); err != nil {
			t.Fatalf("read update: %v", err)
		}
	}

	conn.Close(websocket.StatusNormalClosure, "")
}
