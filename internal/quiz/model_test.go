package quiz

import (
	"encoding/json"
	"testing"
)

func TestRoundJSON(t *testing.T) {
	tests := []struct {
		round Round
		json  string
	}{
		{RoundIdle, `null`},
		{RoundQuestions, `"questions"`},
		{RoundCharades, `"charades"`},
		{RoundHum, `"hum"`},
	}
	for _, tt := range tests {
		t.Run(tt.round.String(), func(t *testing.T) {
			data, err := json.Marshal(tt.round)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tt.json {
				t.Errorf("marshal = %s, want %s", data, tt.json)
			}

			var got Round
			if err := json.Unmarshal([]byte(tt.json), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got != tt.round {
				t.Errorf("unmarshal = %q, want %q", got, tt.round)
			}
		})
	}

	var r Round
	if err := json.Unmarshal([]byte(`"karaoke"`), &r); err == nil {
		t.Error("expected error for unknown round")
	}
}

func TestDefaultRoomShape(t *testing.T) {
	data, err := json.Marshal(DefaultRoom())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]json.RawMessage
	json.Unmarshal(data, &fields)

	for _, k := range []string{"createdAt", "buzz", "teams", "scores", "game", "live", "reveal", "charades", "hum"} {
		if _, ok := fields[k]; !ok {
			t.Errorf("default room lacks %q", k)
		}
	}
	if _, ok := fields["questionBank"]; ok {
		t.Error("questionBank is optional and should be absent by default")
	}
	if got := string(fields["live"]); got != "null" {
		t.Errorf("live = %s, want null", got)
	}

	var charades map[string]json.RawMessage
	json.Unmarshal(fields["charades"], &charades)
	for _, k := range []string{"actorTeam", "person", "endsAt", "running", "revealed", "used"} {
		if _, ok := charades[k]; !ok {
			t.Errorf("charades lacks %q", k)
		}
	}
}
