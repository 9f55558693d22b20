package app

import (
	"slices"

	"avgrunnen/internal/domain"
)

// PlayCard plays cardID from the player's hand in pool.
func (s *Service) PlayCard(g *domain.GameState, playerID string, pool domain.Pool, cardID string) ([]Event, error) {
	switch pool {
	case domain.PoolEvent:
		return s.PlayEventCard(g, playerID, cardID)
	case domain.PoolScene:
		return s.PlaySceneCard(g, playerID, cardID)
	}
	return nil, ErrUnknownPool
}

// PlayEventCard moves an event card from hand to the played log and refills.
// A card that is no longer in the hand is a no-op.
func (s *Service) PlayEventCard(g *domain.GameState, playerID, cardID string) ([]Event, error) {
	hands := domain.Hands(g, domain.PoolEvent)
	card, rest, ok := domain.RemoveCard(hands[playerID], cardID)
	if !ok {
		return nil, nil
	}
	hands[playerID] = rest

	rec := domain.CardRecord{Card: card, PlayerID: playerID, Timestamp: s.timestamp(), Turn: g.CurrentTurn}
	g.EventCards.Played = append(g.EventCards.Played, rec)
	if last := g.LastTurn(); last != nil {
		last.EventCards.Played = append(last.EventCards.Played, rec)
	}

	events := []Event{{
		Kind:    EventCardPlayed,
		Payload: CardPlayedPayload{PlayerID: playerID, Pool: domain.PoolEvent, Card: card, Turn: g.CurrentTurn},
	}}
	return append(events, s.refill(g, playerID, domain.PoolEvent)...), nil
}

// DiscardEventCard moves an event card from hand to the discard log and
// refills. Discards never advance the turn.
func (s *Service) DiscardEventCard(g *domain.GameState, playerID string, pool domain.Pool, cardID string) ([]Event, error) {
	if pool != domain.PoolEvent {
		if pool == domain.PoolScene {
			return nil, ErrPoolNotDiscardable
		}
		return nil, ErrUnknownPool
	}
	hands := domain.Hands(g, domain.PoolEvent)
	card, rest, ok := domain.RemoveCard(hands[playerID], cardID)
	if !ok {
		return nil, nil
	}
	hands[playerID] = rest

	rec := domain.CardRecord{Card: card, PlayerID: playerID, Timestamp: s.timestamp(), Turn: g.CurrentTurn}
	g.EventCards.Discarded = append(g.EventCards.Discarded, rec)
	if last := g.LastTurn(); last != nil {
		last.EventCards.Discarded = append(last.EventCards.Discarded, rec)
	}

	events := []Event{{
		Kind:    EventCardDiscarded,
		Payload: CardDiscardedPayload{PlayerID: playerID, Card: card},
	}}
	return append(events, s.refill(g, playerID, domain.PoolEvent)...), nil
}

// PlaySceneCard plays a scene card as the director: it records the play,
// hands direction to the next player in the rotation, logs the turn,
// refills the hand and advances the act once every active card is played.
//
// A card that is no longer in the hand is a no-op, so a retried request
// after the director has rotated does not fail.
func (s *Service) PlaySceneCard(g *domain.GameState, playerID, cardID string) ([]Event, error) {
	hands := domain.Hands(g, domain.PoolScene)
	card, rest, ok := domain.RemoveCard(hands[playerID], cardID)
	if !ok {
		return nil, nil
	}
	if !g.GameStarted {
		return nil, ErrGameNotStarted
	}
	director := g.EffectiveDirector()
	if director == "" {
		return nil, ErrNoDirector
	}
	if director != playerID {
		return nil, ErrNotDirector
	}
	if !slices.Contains(g.SceneCards.ActiveCards, card.ID) {
		return nil, ErrCardNotActive
	}

	now := s.timestamp()
	hands[playerID] = rest
	g.SceneCards.Played = append(g.SceneCards.Played, domain.CardRecord{
		Card:      card,
		PlayerID:  playerID,
		Timestamp: now,
		Turn:      g.CurrentTurn,
	})

	next := domain.NextDirector(g.DirectorOrder, director)
	g.CurrentDirector = next
	g.CurrentTurn = max(g.CurrentTurn, 1) + 1
	g.TurnHistory = append(g.TurnHistory, domain.TurnEntry{
		Kind:      domain.TurnKindTurn,
		Turn:      g.CurrentTurn,
		Timestamp: now,
		Act:       g.SceneCards.CurrentAct,
		SceneCard: &domain.SceneCardSummary{
			ID:       card.ID,
			Title:    card.Title,
			Type:     card.Type,
			PlayedBy: playerID,
		},
		Director:   next,
		EventCards: &domain.TurnEventCards{Played: []domain.CardRecord{}, Discarded: []domain.CardRecord{}},
	})

	events := []Event{
		{
			Kind: EventCardPlayed,
			Payload: CardPlayedPayload{
				PlayerID: playerID,
				Pool:     domain.PoolScene,
				Card:     card,
				Turn:     g.CurrentTurn,
				Prompts:  domain.PromptsFor(s.guidance, card.Type, g.SceneCards.CurrentAct),
			},
		},
		{
			Kind:    EventDirectorChanged,
			Payload: DirectorChangedPayload{Previous: director, Director: next, Turn: g.CurrentTurn},
		},
	}
	events = append(events, s.refill(g, playerID, domain.PoolScene)...)

	advanced, err := s.AdvanceActIfComplete(g)
	if err != nil {
		return nil, err
	}
	return append(events, advanced...), nil
}

// refill tops up a hand after a play. Hands of players who have left the
// roster are not refilled.
func (s *Service) refill(g *domain.GameState, playerID string, pool domain.Pool) []Event {
	p, ok := g.PlayerByID(playerID)
	if !ok {
		return nil
	}
	return s.fill(g, p, pool)
}
