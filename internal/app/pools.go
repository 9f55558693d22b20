package app

import "avgrunnen/internal/domain"

// SeedPools installs catalog cards into pools that are still empty. Pools
// that already hold cards are left alone, so concurrent first joins agree.
func (s *Service) SeedPools(g *domain.GameState, events, scenes []domain.Card) ([]Event, error) {
	var out []Event
	if len(g.EventCards.Cards) == 0 && len(events) > 0 {
		g.EventCards.Cards = events
		out = append(out, poolLoaded(domain.PoolEvent, len(events)))
	}
	if len(g.SceneCards.Cards) == 0 && len(scenes) > 0 {
		g.SceneCards.Cards = scenes
		g.SceneCards.CurrentAct = domain.FirstAct
		g.SceneCards.ActiveCards = domain.ActiveCardIDs(scenes, domain.FirstAct)
		out = append(out, poolLoaded(domain.PoolScene, len(scenes)))
	}
	return out, nil
}

// ResetPool replaces the card universe of pool and deals fresh hands to the
// roster. A scene reset returns to act 1.
func (s *Service) ResetPool(g *domain.GameState, pool domain.Pool, cards []domain.Card) ([]Event, error) {
	if !pool.Valid() {
		return nil, ErrUnknownPool
	}
	if len(cards) == 0 {
		return nil, ErrEmptyPool
	}
	switch pool {
	case domain.PoolEvent:
		g.EventCards = domain.EventDeck{
			Cards:     cards,
			Hands:     map[string][]domain.Card{},
			Played:    []domain.CardRecord{},
			Discarded: []domain.CardRecord{},
		}
	case domain.PoolScene:
		g.SceneCards = domain.SceneDeck{
			Cards:       cards,
			ActiveCards: domain.ActiveCardIDs(cards, domain.FirstAct),
			Hands:       map[string][]domain.Card{},
			Played:      []domain.CardRecord{},
			CurrentAct:  domain.FirstAct,
		}
	}

	events := []Event{poolLoaded(pool, len(cards))}
	dealt, err := s.DealAll(g, pool)
	if err != nil {
		return nil, err
	}
	return append(events, dealt...), nil
}

func poolLoaded(pool domain.Pool, n int) Event {
	return Event{Kind: EventPoolLoaded, Payload: PoolLoadedPayload{Pool: pool, Count: n}}
}
