package domain

import "slices"

// Hands returns the hand map of the pool, allocating it on first use.
func Hands(g *GameState, pool Pool) map[string][]Card {
	switch pool {
	case PoolEvent:
		if g.EventCards.Hands == nil {
			g.EventCards.Hands = make(map[string][]Card)
		}
		return g.EventCards.Hands
	case PoolScene:
		if g.SceneCards.Hands == nil {
			g.SceneCards.Hands = make(map[string][]Card)
		}
		return g.SceneCards.Hands
	}
	return nil
}

// PlayedRecords returns the played log of the pool.
func PlayedRecords(g *GameState, pool Pool) []CardRecord {
	switch pool {
	case PoolEvent:
		return g.EventCards.Played
	case PoolScene:
		return g.SceneCards.Played
	}
	return nil
}

// PoolCards returns the full card universe of the pool.
func PoolCards(g *GameState, pool Pool) []Card {
	switch pool {
	case PoolEvent:
		return g.EventCards.Cards
	case PoolScene:
		return g.SceneCards.Cards
	}
	return nil
}

// RemoveCard takes the card with id out of hand. The returned hand is a new
// slice; the input is left untouched.
func RemoveCard(hand []Card, id string) (Card, []Card, bool) {
	i := CardIndex(hand, id)
	if i < 0 {
		return Card{}, hand, false
	}
	out := make([]Card, 0, len(hand)-1)
	out = append(out, hand[:i]...)
	out = append(out, hand[i+1:]...)
	return hand[i], out, true
}

// PlayerIndex returns the roster position of the player with id, or -1.
func (g *GameState) PlayerIndex(id string) int {
	return slices.IndexFunc(g.Players, func(p Player) bool { return p.ID == id })
}

// PlayerByID looks up a roster entry.
func (g *GameState) PlayerByID(id string) (Player, bool) {
	i := g.PlayerIndex(id)
	if i < 0 {
		return Player{}, false
	}
	return g.Players[i], true
}

// PlayerByName looks up a roster entry by case-folded display name.
func (g *GameState) PlayerByName(name string) (Player, bool) {
	key := FoldKey(name)
	for _, p := range g.Players {
		if FoldKey(p.Name) == key {
			return p, true
		}
	}
	return Player{}, false
}

// EffectiveDirector is the current director, or the first entry of the
// rotation when none is set. Empty when there is no rotation.
func (g *GameState) EffectiveDirector() string {
	if g.CurrentDirector != "" {
		return g.CurrentDirector
	}
	if len(g.DirectorOrder) > 0 {
		return g.DirectorOrder[0]
	}
	return ""
}

// NextDirector returns the entry after current in order, wrapping around.
// An unknown or empty current yields the first entry.
func NextDirector(order []string, current string) string {
	if len(order) == 0 {
		return ""
	}
	i := slices.Index(order, current)
	return order[(i+1)%len(order)]
}

// LastTurn returns the most recent entry of kind turn if it is also the
// last entry in the log.
func (g *GameState) LastTurn() *TurnEntry {
	if len(g.TurnHistory) == 0 {
		return nil
	}
	last := &g.TurnHistory[len(g.TurnHistory)-1]
	if last.Kind != TurnKindTurn {
		return nil
	}
	if last.EventCards == nil {
		last.EventCards = &TurnEventCards{}
	}
	return last
}
