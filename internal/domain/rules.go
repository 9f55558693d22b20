package domain

import "strings"

// OwnedBy reports whether the card carries an owner tag naming p. The tag
// may hold the player's id or, as catalogs do, their display name.
func (c Card) OwnedBy(p Player) bool {
	owner := strings.TrimSpace(c.PlayerID)
	if owner == "" {
		return false
	}
	return owner == p.ID || SameName(owner, p.Name)
}

// DrawableBy applies the ownership gate: unowned cards are open to everyone,
// owned cards only to their owner.
func (c Card) DrawableBy(p Player) bool {
	return strings.TrimSpace(c.PlayerID) == "" || c.OwnedBy(p)
}

// Available returns the cards of pool that p may draw right now, in pool
// order. A card is available when it is in no hand, has not been played or
// discarded, is active this act (scene pool), and passes the ownership gate.
func Available(g *GameState, pool Pool, p Player) []Card {
	taken := Unavailable(g, pool)
	var cards []Card
	var active map[string]struct{}
	switch pool {
	case PoolEvent:
		cards = g.EventCards.Cards
	case PoolScene:
		cards = g.SceneCards.Cards
		active = idSet(g.SceneCards.ActiveCards)
	default:
		return nil
	}

	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		if _, ok := taken[c.ID]; ok {
			continue
		}
		if active != nil {
			if _, ok := active[c.ID]; !ok {
				continue
			}
		}
		if !c.DrawableBy(p) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Unavailable returns the ids of cards in the pool that sit in a hand or
// have been played or discarded.
func Unavailable(g *GameState, pool Pool) map[string]struct{} {
	taken := make(map[string]struct{})
	for _, hand := range Hands(g, pool) {
		for _, c := range hand {
			taken[c.ID] = struct{}{}
		}
	}
	for _, r := range PlayedRecords(g, pool) {
		taken[r.Card.ID] = struct{}{}
	}
	if pool == PoolEvent {
		for _, r := range g.EventCards.Discarded {
			taken[r.Card.ID] = struct{}{}
		}
	}
	return taken
}

// ActComplete reports whether every active scene card has been played and
// a later act exists.
func ActComplete(g *GameState) bool {
	active := g.SceneCards.ActiveCards
	if len(active) == 0 || g.SceneCards.CurrentAct >= FinalAct {
		return false
	}
	played := make(map[string]struct{}, len(g.SceneCards.Played))
	for _, r := range g.SceneCards.Played {
		played[r.Card.ID] = struct{}{}
	}
	for _, id := range active {
		if _, ok := played[id]; !ok {
			return false
		}
	}
	return true
}

func idSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
