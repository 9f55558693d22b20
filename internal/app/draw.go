package app

import "avgrunnen/internal/domain"

// FillHand tops the player's hand in pool up to the hand size with cards
// drawn uniformly at random from those available to them. A short hand is
// left as is when the pool runs dry.
func (s *Service) FillHand(g *domain.GameState, playerID string, pool domain.Pool) ([]Event, error) {
	if !pool.Valid() {
		return nil, ErrUnknownPool
	}
	p, ok := g.PlayerByID(playerID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	return s.fill(g, p, pool), nil
}

// DealAll fills the hand of every roster player in join order.
func (s *Service) DealAll(g *domain.GameState, pool domain.Pool) ([]Event, error) {
	if !pool.Valid() {
		return nil, ErrUnknownPool
	}
	var events []Event
	for _, p := range g.Players {
		events = append(events, s.fill(g, p, pool)...)
	}
	return events, nil
}

func (s *Service) fill(g *domain.GameState, p domain.Player, pool domain.Pool) []Event {
	hands := domain.Hands(g, pool)
	needed := s.rules.HandSize(pool) - len(hands[p.ID])
	if needed <= 0 {
		return nil
	}
	available := domain.Available(g, pool, p)
	if len(available) == 0 {
		return nil
	}
	drawn := s.shuffle(available)
	if len(drawn) > needed {
		drawn = drawn[:needed]
	}
	hands[p.ID] = append(hands[p.ID], drawn...)

	return []Event{{
		Kind:       EventHandFilled,
		Payload:    HandFilledPayload{PlayerID: p.ID, Pool: pool, Drawn: drawn},
		Recipients: []string{p.ID},
	}}
}
