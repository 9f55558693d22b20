package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Act 1", want: "act1"},
		{in: "act1", want: "act1"},
		{in: " ACT  2 ", want: "act2"},
		{in: "Player Id", want: "playerid"},
		{in: "title", want: "title"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeColumn(tt.in); got != tt.want {
				t.Fatalf("NormalizeColumn(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestActFromColumn(t *testing.T) {
	tests := []struct {
		col    string
		want   int
		wantOK bool
	}{
		{col: "act1", want: 1, wantOK: true},
		{col: "act3", want: 3, wantOK: true},
		{col: "act4", wantOK: false},
		{col: "act0", wantOK: false},
		{col: "action", wantOK: false},
		{col: "title", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.col, func(t *testing.T) {
			got, ok := ActFromColumn(tt.col)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("ActFromColumn(%q) = %d,%v want %d,%v", tt.col, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseFlag(t *testing.T) {
	for _, v := range []string{"TRUE", "true", "1", "yes", "x", " X "} {
		if !ParseFlag(v) {
			t.Fatalf("ParseFlag(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"", "false", "0", "no", "FALSE"} {
		if ParseFlag(v) {
			t.Fatalf("ParseFlag(%q) = true, want false", v)
		}
	}
}

func TestCardUnmarshalLegacyActFlags(t *testing.T) {
	data := []byte(`{"id":"s1","title":"Tittel","text":"Tekst","act 1":true,"act2":"TRUE","Act 3":false}`)
	var c Card
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(c.Acts, []int{1, 2}) {
		t.Fatalf("acts = %v, want [1 2]", c.Acts)
	}

	// Canonical layout wins over stray flags.
	data = []byte(`{"id":"s2","title":"t","text":"x","acts":[3],"act1":true}`)
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(c.Acts, []int{3}) {
		t.Fatalf("acts = %v, want [3]", c.Acts)
	}
}

func TestActiveCardIDs(t *testing.T) {
	cards := []Card{
		{ID: "a", Acts: []int{1}},
		{ID: "b", Acts: []int{1, 2}},
		{ID: "c", Acts: []int{2}},
		{ID: "d"},
	}
	if got := ActiveCardIDs(cards, 2); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("ActiveCardIDs(2) = %v", got)
	}
	if got := ActiveCardIDs(cards, 3); len(got) != 0 {
		t.Fatalf("ActiveCardIDs(3) = %v, want empty", got)
	}
}

func TestPromptsFor(t *testing.T) {
	lines := []Guidance{
		{Type: "goal", Act: 1, Text: "g1"},
		{Type: "Goal", Act: 2, Text: "g2"},
		{Type: "goal", Act: 0, Text: "obstacle"},
		{Type: "relationship", Act: 1, Text: "r1"},
	}
	if got := PromptsFor(lines, "GOAL", 1); !reflect.DeepEqual(got, []string{"g1", "obstacle"}) {
		t.Fatalf("PromptsFor(goal,1) = %v", got)
	}
	if got := PromptsFor(lines, "goal", 2); !reflect.DeepEqual(got, []string{"g2", "obstacle"}) {
		t.Fatalf("PromptsFor(goal,2) = %v", got)
	}
	if got := PromptsFor(lines, "", 1); got != nil {
		t.Fatalf("untyped card should get no prompts, got %v", got)
	}
}

func TestValidGameID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{id: "kveld-1", want: true},
		{id: "Game_42", want: true},
		{id: "", want: false},
		{id: "has space", want: false},
		{id: "quote\"", want: false},
		{id: "ø", want: false},
		{id: string(make([]byte, MaxGameIDLength+1)), want: false},
	}
	for _, tt := range tests {
		if got := ValidGameID(tt.id); got != tt.want {
			t.Fatalf("ValidGameID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
