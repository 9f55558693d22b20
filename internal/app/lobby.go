package app

import (
	"strings"

	"avgrunnen/internal/domain"
)

// Join adds a player to the roster and deals both hands. With an empty
// playerID the player is matched by case-folded name and a new id is
// assigned on first join. Joining again is idempotent and tops hands up.
func (s *Service) Join(g *domain.GameState, playerID, name, character string) (domain.Player, []Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Player{}, nil, ErrInvalidName
	}

	var events []Event
	existing, found := g.PlayerByName(name)
	if playerID != "" {
		if byID, ok := g.PlayerByID(playerID); ok {
			existing, found = byID, true
		} else if found {
			return domain.Player{}, nil, ErrNameTaken
		}
	}

	if !found {
		id := playerID
		if id == "" {
			id = s.newID()
		}
		existing = domain.Player{
			ID:        id,
			Name:      name,
			Character: strings.TrimSpace(character),
			JoinedAt:  s.timestamp(),
		}
		g.Players = append(g.Players, existing)
		events = append(events, Event{
			Kind:    EventPlayerJoined,
			Payload: PlayerJoinedPayload{Player: existing},
		})
	} else if c := strings.TrimSpace(character); c != "" && c != existing.Character {
		existing.Character = c
		g.Players[g.PlayerIndex(existing.ID)] = existing
	}

	events = append(events, s.fill(g, existing, domain.PoolEvent)...)
	events = append(events, s.fill(g, existing, domain.PoolScene)...)

	if !existing.Initialized && len(g.EventCards.Cards) > 0 && len(g.SceneCards.Cards) > 0 {
		existing.Initialized = true
		g.Players[g.PlayerIndex(existing.ID)] = existing
	}
	return existing, events, nil
}

// Leave removes a player before the game starts. Their hands go back to
// the pools.
func (s *Service) Leave(g *domain.GameState, playerID string) ([]Event, error) {
	if g.GameStarted {
		return nil, ErrGameStarted
	}
	i := g.PlayerIndex(playerID)
	if i < 0 {
		return nil, ErrUnknownPlayer
	}
	g.Players = append(g.Players[:i:i], g.Players[i+1:]...)
	delete(domain.Hands(g, domain.PoolEvent), playerID)
	delete(domain.Hands(g, domain.PoolScene), playerID)

	return []Event{{
		Kind:    EventPlayerLeft,
		Payload: PlayerLeftPayload{PlayerID: playerID},
	}}, nil
}

// StartGame fixes the director rotation to the roster in join order and
// makes the first player to join the director. Calling it on a started
// game is a no-op.
func (s *Service) StartGame(g *domain.GameState) ([]Event, error) {
	if g.GameStarted {
		return nil, nil
	}
	if len(g.Players) == 0 {
		return nil, ErrNoPlayers
	}
	order := make([]string, 0, len(g.Players))
	for _, p := range g.Players {
		order = append(order, p.ID)
	}
	g.DirectorOrder = order
	g.CurrentDirector = order[0]
	g.CurrentTurn = 1
	g.GameStarted = true

	return []Event{{
		Kind:    EventGameStarted,
		Payload: GameStartedPayload{DirectorOrder: order, Director: order[0]},
	}}, nil
}

// Cleanup returns the session to an empty lobby. Card pools, the current
// act and the turn log survive.
func (s *Service) Cleanup(g *domain.GameState) ([]Event, error) {
	g.Players = []domain.Player{}
	g.EventCards.Hands = map[string][]domain.Card{}
	g.EventCards.Played = []domain.CardRecord{}
	g.EventCards.Discarded = []domain.CardRecord{}
	g.SceneCards.Hands = map[string][]domain.Card{}
	g.SceneCards.Played = []domain.CardRecord{}
	g.DirectorOrder = []string{}
	g.CurrentDirector = ""
	g.CurrentTurn = 0
	g.GameStarted = false

	return []Event{{Kind: EventGameCleaned}}, nil
}
