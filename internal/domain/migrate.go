package domain

import (
	"maps"
	"slices"
)

// NewGameState returns an empty session document at the current schema.
func NewGameState(gameID string) *GameState {
	g := &GameState{GameID: gameID}
	Migrate(g)
	return g
}

// Migrate upgrades a decoded document to SchemaVersion in place. It runs once
// at load so transitions never have to special-case absent fields.
func Migrate(g *GameState) {
	if g.SchemaVersion < 2 {
		migrateIdentity(g)
		if g.SceneCards.ActiveCards == nil && len(g.SceneCards.Cards) > 0 {
			act := max(g.SceneCards.CurrentAct, FirstAct)
			g.SceneCards.ActiveCards = ActiveCardIDs(g.SceneCards.Cards, act)
		}
	}

	if g.EventCards.Cards == nil {
		g.EventCards.Cards = []Card{}
	}
	if g.EventCards.Hands == nil {
		g.EventCards.Hands = map[string][]Card{}
	}
	if g.EventCards.Played == nil {
		g.EventCards.Played = []CardRecord{}
	}
	if g.EventCards.Discarded == nil {
		g.EventCards.Discarded = []CardRecord{}
	}
	if g.SceneCards.Cards == nil {
		g.SceneCards.Cards = []Card{}
	}
	if g.SceneCards.ActiveCards == nil {
		g.SceneCards.ActiveCards = []string{}
	}
	if g.SceneCards.Hands == nil {
		g.SceneCards.Hands = map[string][]Card{}
	}
	if g.SceneCards.Played == nil {
		g.SceneCards.Played = []CardRecord{}
	}
	if g.SceneCards.CurrentAct < FirstAct {
		g.SceneCards.CurrentAct = FirstAct
	}
	if g.Players == nil {
		g.Players = []Player{}
	}
	if g.DirectorOrder == nil {
		g.DirectorOrder = []string{}
	}
	if g.TurnHistory == nil {
		g.TurnHistory = []TurnEntry{}
	}
	g.SchemaVersion = SchemaVersion
}

// migrateIdentity moves version 1 documents, where the display name was the
// player key, onto stable ids.
func migrateIdentity(g *GameState) {
	for i := range g.Players {
		if g.Players[i].ID == "" {
			g.Players[i].ID = g.Players[i].Name
		}
	}
	rekey := func(key string) string {
		if _, ok := g.PlayerByID(key); ok {
			return key
		}
		if p, ok := g.PlayerByName(key); ok {
			return p.ID
		}
		return key
	}
	for _, hands := range []map[string][]Card{g.EventCards.Hands, g.SceneCards.Hands} {
		for _, key := range slices.Sorted(maps.Keys(hands)) {
			id := rekey(key)
			if id == key {
				continue
			}
			hands[id] = append(hands[id], hands[key]...)
			delete(hands, key)
		}
	}
	for i, name := range g.DirectorOrder {
		g.DirectorOrder[i] = rekey(name)
	}
	if g.CurrentDirector != "" {
		g.CurrentDirector = rekey(g.CurrentDirector)
	}
}

// Clone returns a deep copy of the document. Cards share their Acts slices,
// which are never written after load.
func (g *GameState) Clone() *GameState {
	c := *g
	c.EventCards.Cards = slices.Clone(g.EventCards.Cards)
	c.EventCards.Hands = cloneHands(g.EventCards.Hands)
	c.EventCards.Played = slices.Clone(g.EventCards.Played)
	c.EventCards.Discarded = slices.Clone(g.EventCards.Discarded)
	c.SceneCards.Cards = slices.Clone(g.SceneCards.Cards)
	c.SceneCards.ActiveCards = slices.Clone(g.SceneCards.ActiveCards)
	c.SceneCards.Hands = cloneHands(g.SceneCards.Hands)
	c.SceneCards.Played = slices.Clone(g.SceneCards.Played)
	c.Players = slices.Clone(g.Players)
	c.DirectorOrder = slices.Clone(g.DirectorOrder)
	c.TurnHistory = make([]TurnEntry, len(g.TurnHistory))
	for i, e := range g.TurnHistory {
		if e.SceneCard != nil {
			sc := *e.SceneCard
			e.SceneCard = &sc
		}
		if e.EventCards != nil {
			ec := TurnEventCards{
				Played:    slices.Clone(e.EventCards.Played),
				Discarded: slices.Clone(e.EventCards.Discarded),
			}
			e.EventCards = &ec
		}
		c.TurnHistory[i] = e
	}
	return &c
}

func cloneHands(h map[string][]Card) map[string][]Card {
	if h == nil {
		return nil
	}
	out := make(map[string][]Card, len(h))
	for k, v := range h {
		out[k] = slices.Clone(v)
	}
	return out
}
