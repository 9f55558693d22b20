package app

import "avgrunnen/internal/domain"

// AdvanceActIfComplete moves the session into the next act once every active
// scene card has been played. Scene hands and the played log are cleared,
// the turn counter restarts and the director is unset so the rotation
// begins again from its first entry. The progression entry keeps the turn
// on which the act ended. Act 3 is final.
func (s *Service) AdvanceActIfComplete(g *domain.GameState) ([]Event, error) {
	if !domain.ActComplete(g) {
		return nil, nil
	}
	prev := g.SceneCards.CurrentAct
	endTurn := g.CurrentTurn
	next := prev + 1
	active := domain.ActiveCardIDs(g.SceneCards.Cards, next)

	g.SceneCards.CurrentAct = next
	g.SceneCards.ActiveCards = active
	g.SceneCards.Hands = map[string][]domain.Card{}
	g.SceneCards.Played = []domain.CardRecord{}
	g.CurrentTurn = 1
	g.CurrentDirector = ""
	g.TurnHistory = append(g.TurnHistory, domain.TurnEntry{
		Kind:        domain.TurnKindActProgression,
		Turn:        endTurn,
		Timestamp:   s.timestamp(),
		PreviousAct: prev,
		NewAct:      next,
		ActiveCards: len(active),
	})

	return []Event{{
		Kind:    EventActAdvanced,
		Payload: ActAdvancedPayload{PreviousAct: prev, NewAct: next, ActiveCards: len(active)},
	}}, nil
}

// SetAct jumps to act, recomputes the active cards and deals fresh scene
// hands. The played log is kept.
func (s *Service) SetAct(g *domain.GameState, act int) ([]Event, error) {
	if act < domain.FirstAct || act > domain.FinalAct {
		return nil, ErrInvalidAct
	}
	active := domain.ActiveCardIDs(g.SceneCards.Cards, act)
	if len(active) == 0 {
		return nil, ErrNoActiveCards
	}
	g.SceneCards.CurrentAct = act
	g.SceneCards.ActiveCards = active
	g.SceneCards.Hands = map[string][]domain.Card{}

	events := []Event{{
		Kind:    EventActSet,
		Payload: ActSetPayload{Act: act, ActiveCards: len(active)},
	}}
	dealt, err := s.DealAll(g, domain.PoolScene)
	if err != nil {
		return nil, err
	}
	return append(events, dealt...), nil
}
