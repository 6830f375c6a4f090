// Package quiz implements the shared room state of a party quiz night: the
// room document, its lifecycle, the buzzer lock, the score ledger, the stage
// state machine and change subscriptions.
package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Round is the active stage mode. The zero value is the idle stage, where
// only the buzzer is in play.
type Round string

const (
	RoundIdle      Round = ""
	RoundQuestions Round = "questions"
	RoundCharades  Round = "charades"
	RoundHum       Round = "hum"
)

func (r Round) Valid() bool {
	switch r {
	case RoundIdle, RoundQuestions, RoundCharades, RoundHum:
		return true
	}
	return false
}

func (r Round) String() string {
	if r == RoundIdle {
		return "idle"
	}
	return string(r)
}

// MarshalJSON encodes the idle round as null.
func (r Round) MarshalJSON() ([]byte, error) {
	if r == RoundIdle {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

func (r *Round) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*r = RoundIdle
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !Round(s).Valid() {
		return fmt.Errorf("unknown round %q", s)
	}
	*r = Round(s)
	return nil
}

// Game is the denormalized summary of the stage every device renders first.
type Game struct {
	Round  Round `json:"round"`
	Index  int   `json:"index"`
	Reveal bool  `json:"reveal"`
}

// Buzz is the buzzer lock. It is unlocked while LockedBy is nil.
type Buzz struct {
	LockedBy *string `json:"lockedBy"`
	LockedAt *int64  `json:"lockedAt"`
}

func (b Buzz) Locked() bool { return b.LockedBy != nil }

// Timer is the part shared by the timed mini-games.
type Timer struct {
	EndsAt   *int64   `json:"endsAt"`
	Running  bool     `json:"running"`
	Revealed bool     `json:"revealed"`
	Used     []string `json:"used"`
}

// Remaining is the countdown left at now; zero once stopped or expired.
func (t Timer) Remaining(now time.Time) time.Duration {
	if !t.Running || t.EndsAt == nil {
		return 0
	}
	d := time.UnixMilli(*t.EndsAt).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

type Charades struct {
	ActorTeam *string `json:"actorTeam"`
	Person    *string `json:"person"`
	Timer
}

type Hum struct {
	HummerTeam *string `json:"hummerTeam"`
	Song       *string `json:"song"`
	Timer
}

// Room is the single shared document of one game session.
type Room struct {
	CreatedAt    int64           `json:"createdAt"`
	Buzz         Buzz            `json:"buzz"`
	Teams        []string        `json:"teams"`
	Scores       map[string]int  `json:"scores"`
	Game         Game            `json:"game"`
	Live         json.RawMessage `json:"live"`
	Reveal       bool            `json:"reveal"`
	Charades     Charades        `json:"charades"`
	Hum          Hum             `json:"hum"`
	QuestionBank json.RawMessage `json:"questionBank,omitempty"`
}

// DefaultRoom is the canonical shape of a fresh room. createdAt is left to
// the store.
func DefaultRoom() Room {
	return Room{
		Teams:    []string{},
		Scores:   map[string]int{},
		Charades: Charades{Timer: Timer{Used: []string{}}},
		Hum:      Hum{Timer: Timer{Used: []string{}}},
	}
}

func (r *Room) HasLive() bool { return isSet(r.Live) }

func (r *Room) HasQuestionBank() bool { return isSet(r.QuestionBank) }

func (r *Room) HasTeam(team string) bool {
	for _, t := range r.Teams {
		if t == team {
			return true
		}
	}
	return false
}

func isSet(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}
