package app

import (
	"slices"

	"avgrunnen/internal/domain"
)

// DeckStatus summarizes where the cards of a pool are from one player's
// point of view.
type DeckStatus struct {
	Pool domain.Pool `json:"pool"`
	// Total counts the pool, or the active cards for the scene pool.
	Total int `json:"total"`
	// Available is what the player could draw right now.
	Available int `json:"available"`
	// InDeck counts cards held by nobody and not yet used, ignoring ownership.
	InDeck       int `json:"inDeck"`
	InHand       int `json:"inHand"`
	InOtherHands int `json:"inOtherHands"`
	Played       int `json:"played"`
	Discarded    int `json:"discarded"`
}

// DeckStatus reports the pool counters shown next to a hand.
func (s *Service) DeckStatus(g *domain.GameState, playerID string, pool domain.Pool) (DeckStatus, error) {
	if !pool.Valid() {
		return DeckStatus{}, ErrUnknownPool
	}
	p, ok := g.PlayerByID(playerID)
	if !ok {
		return DeckStatus{}, ErrUnknownPlayer
	}

	st := DeckStatus{Pool: pool}
	universe := domain.PoolCards(g, pool)
	if pool == domain.PoolScene {
		active := make([]domain.Card, 0, len(g.SceneCards.ActiveCards))
		for _, c := range universe {
			if slices.Contains(g.SceneCards.ActiveCards, c.ID) {
				active = append(active, c)
			}
		}
		universe = active
	}
	st.Total = len(universe)
	st.Available = len(domain.Available(g, pool, p))

	for id, hand := range domain.Hands(g, pool) {
		if id == playerID {
			st.InHand = len(hand)
		} else {
			st.InOtherHands += len(hand)
		}
	}
	st.Played = len(domain.PlayedRecords(g, pool))
	if pool == domain.PoolEvent {
		st.Discarded = len(g.EventCards.Discarded)
	}
	taken := domain.Unavailable(g, pool)
	for _, c := range universe {
		if _, ok := taken[c.ID]; !ok {
			st.InDeck++
		}
	}
	return st, nil
}

// Role is a player together with the scene cards assigned to them.
type Role struct {
	Player domain.Player `json:"player"`
	Cards  []domain.Card `json:"cards"`
}

// Roles lists every player with the scene cards they own, goals first,
// then relationships, explorations, plans and anything else.
func (s *Service) Roles(g *domain.GameState) []Role {
	roles := make([]Role, 0, len(g.Players))
	for _, p := range g.Players {
		var owned []domain.Card
		for _, c := range g.SceneCards.Cards {
			if c.OwnedBy(p) {
				owned = append(owned, c)
			}
		}
		slices.SortStableFunc(owned, func(a, b domain.Card) int {
			return typeRank(a.Type) - typeRank(b.Type)
		})
		roles = append(roles, Role{Player: p, Cards: owned})
	}
	return roles
}

func typeRank(t string) int {
	key := domain.FoldKey(t)
	for i, name := range domain.RoleTypeOrder {
		if key == name {
			return i
		}
	}
	return len(domain.RoleTypeOrder)
}

// TurnLog returns the turn history, newest last.
func (s *Service) TurnLog(g *domain.GameState) []domain.TurnEntry {
	return slices.Clone(g.TurnHistory)
}

// Prompts returns the guidance lines for a scene card type in act.
func (s *Service) Prompts(cardType string, act int) []string {
	return domain.PromptsFor(s.guidance, cardType, act)
}
