package domain

import (
	"encoding/json"
	"testing"
)

func TestNewGameStateHasCollections(t *testing.T) {
	g := NewGameState("g1")
	if g.SchemaVersion != SchemaVersion || g.GameID != "g1" {
		t.Fatalf("unexpected header: %+v", g)
	}
	if g.EventCards.Hands == nil || g.SceneCards.Hands == nil || g.SceneCards.ActiveCards == nil {
		t.Fatalf("collections must be allocated")
	}
	if g.SceneCards.CurrentAct != FirstAct {
		t.Fatalf("act = %d, want %d", g.SceneCards.CurrentAct, FirstAct)
	}
}

func TestMigrateLegacyDocument(t *testing.T) {
	legacy := []byte(`{
		"players": [{"name": "Astrid", "character": "Smed"}, {"name": "Bjørn"}],
		"sceneCards": {
			"cards": [{"id": "s1", "title": "t", "text": "x", "act 1": true}, {"id": "s2", "title": "t", "text": "x", "act2": true}],
			"hands": {"astrid": [{"id": "s1", "title": "t", "text": "x", "act 1": true}]}
		},
		"directorOrder": ["Astrid", "BJØRN"],
		"currentDirector": "bjørn"
	}`)
	var g GameState
	if err := json.Unmarshal(legacy, &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	Migrate(&g)

	if g.SchemaVersion != SchemaVersion {
		t.Fatalf("version = %d", g.SchemaVersion)
	}
	if g.Players[0].ID != "Astrid" {
		t.Fatalf("player id = %q, want name as id", g.Players[0].ID)
	}
	if _, ok := g.SceneCards.Hands["astrid"]; ok {
		t.Fatalf("name-keyed hand was not re-keyed: %v", g.SceneCards.Hands)
	}
	if len(g.SceneCards.Hands["Astrid"]) != 1 {
		t.Fatalf("hand missing under player id: %v", g.SceneCards.Hands)
	}
	if len(g.SceneCards.ActiveCards) != 1 || g.SceneCards.ActiveCards[0] != "s1" {
		t.Fatalf("active cards = %v, want [s1]", g.SceneCards.ActiveCards)
	}
	if g.DirectorOrder[1] != "Bjørn" || g.CurrentDirector != "Bjørn" {
		t.Fatalf("director ids not migrated: %v %q", g.DirectorOrder, g.CurrentDirector)
	}
	if g.EventCards.Discarded == nil || g.TurnHistory == nil {
		t.Fatalf("absent collections must be filled")
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := NewGameState("g")
	g.Players = append(g.Players, Player{ID: "p1", Name: "A"})
	g.EventCards.Hands["p1"] = []Card{{ID: "e1"}}
	g.TurnHistory = append(g.TurnHistory, TurnEntry{Kind: TurnKindTurn, EventCards: &TurnEventCards{}})

	c := g.Clone()
	c.Players[0].Name = "changed"
	c.EventCards.Hands["p1"][0].ID = "changed"
	c.TurnHistory[0].EventCards.Played = append(c.TurnHistory[0].EventCards.Played, CardRecord{})

	if g.Players[0].Name != "A" || g.EventCards.Hands["p1"][0].ID != "e1" {
		t.Fatalf("clone shares state with original")
	}
	if len(g.TurnHistory[0].EventCards.Played) != 0 {
		t.Fatalf("clone shares turn entries with original")
	}
}
