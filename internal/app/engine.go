package app

import (
	"context"
	"errors"
	"fmt"

	"avgrunnen/internal/domain"
	"avgrunnen/internal/ports"
)

var (
	// ErrCatalogUnavailable wraps card catalog failures seen by the engine.
	ErrCatalogUnavailable = errors.New("card catalog unavailable")
	// ErrInvalidGameID rejects session ids that cannot be used as storage keys.
	ErrInvalidGameID = errors.New("invalid game id")
)

// Result is the committed document of an operation and the events it emitted.
type Result struct {
	State  *domain.GameState
	Events []Event
}

// Engine runs Service transitions as document store transactions.
type Engine struct {
	store   ports.DocumentStore
	catalog ports.CatalogSource
	svc     *Service
}

// NewEngine wires the engine. catalog may be nil when pools are loaded by
// other means.
func NewEngine(store ports.DocumentStore, catalog ports.CatalogSource, svc *Service) *Engine {
	if svc == nil {
		svc = NewService(nil)
	}
	return &Engine{store: store, catalog: catalog, svc: svc}
}

// Service returns the transition service.
func (e *Engine) Service() *Service {
	return e.svc
}

// transact runs body in one store transaction. Only the events of the
// committed attempt are returned.
func (e *Engine) transact(ctx context.Context, gameID string, body func(*domain.GameState) ([]Event, error)) (Result, error) {
	if !domain.ValidGameID(gameID) {
		return Result{}, ErrInvalidGameID
	}
	var events []Event
	state, err := e.store.Update(ctx, gameID, func(g *domain.GameState) error {
		evs, err := body(g)
		events = evs
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return Result{State: state, Events: events}, nil
}

// quiet turns an empty event list into ports.ErrNoChange so no-op
// transitions do not write.
func quiet(events []Event, err error) ([]Event, error) {
	if err == nil && len(events) == 0 {
		return nil, ports.ErrNoChange
	}
	return events, err
}

// withFreshDeal deals scene hands to the roster when events contain an act
// change, inside the same transaction.
func (e *Engine) withFreshDeal(g *domain.GameState, events []Event, err error) ([]Event, error) {
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		if ev.Kind != EventActAdvanced {
			continue
		}
		dealt, err := e.svc.DealAll(g, domain.PoolScene)
		if err != nil {
			return nil, err
		}
		return append(events, dealt...), nil
	}
	return events, nil
}

// State returns the current document.
func (e *Engine) State(ctx context.Context, gameID string) (*domain.GameState, error) {
	return e.store.Read(ctx, gameID)
}

// Subscribe forwards committed documents of gameID to fn.
func (e *Engine) Subscribe(gameID string, fn func(*domain.GameState)) func() {
	return e.store.Subscribe(gameID, fn)
}

// Join registers a player, loading the card pools on the first join.
func (e *Engine) Join(ctx context.Context, gameID, playerID, name, character string) (domain.Player, Result, error) {
	if !domain.ValidGameID(gameID) {
		return domain.Player{}, Result{}, ErrInvalidGameID
	}
	events, scenes, err := e.missingPools(ctx, gameID)
	if err != nil {
		return domain.Player{}, Result{}, err
	}
	var player domain.Player
	res, err := e.transact(ctx, gameID, func(g *domain.GameState) ([]Event, error) {
		seeded, err := e.svc.SeedPools(g, events, scenes)
		if err != nil {
			return nil, err
		}
		p, joined, err := e.svc.Join(g, playerID, name, character)
		if err != nil {
			return nil, err
		}
		player = p
		return append(seeded, joined...), nil
	})
	if err != nil {
		return domain.Player{}, Result{}, err
	}
	return player, res, nil
}

// missingPools fetches catalog cards for pools the stored document lacks.
// It runs outside any transaction so retries never refetch.
func (e *Engine) missingPools(ctx context.Context, gameID string) (events, scenes []domain.Card, err error) {
	if e.catalog == nil {
		return nil, nil, nil
	}
	g, err := e.store.Read(ctx, gameID)
	if err != nil && !errors.Is(err, ports.ErrGameNotFound) {
		return nil, nil, err
	}
	if g == nil || len(g.EventCards.Cards) == 0 {
		if events, err = e.loadPool(ctx, domain.PoolEvent); err != nil {
			return nil, nil, err
		}
	}
	if g == nil || len(g.SceneCards.Cards) == 0 {
		if scenes, err = e.loadPool(ctx, domain.PoolScene); err != nil {
			return nil, nil, err
		}
	}
	return events, scenes, nil
}

func (e *Engine) loadPool(ctx context.Context, pool domain.Pool) ([]domain.Card, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: no catalog configured", ErrCatalogUnavailable)
	}
	cards, err := e.catalog.Load(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s cards: %w", ErrCatalogUnavailable, pool, err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: %s catalog is empty", ErrCatalogUnavailable, pool)
	}
	return cards, nil
}

// Leave removes a player from the lobby.
func (e *Engine) Leave(ctx context.Context, gameID, playerID string) (Result, error) {
	return e.transact(ctx, gameID, func(g *domain.GameState) ([]Event, error) {
		return e.svc.Leave(g, playerID)
	})
}

// StartGame starts the session.
func (e *Engine) StartGame(ctx context.Context, gameID string) (Result, error) {
	return e.transact(ctx, gameID, func(g *domain.GameState) ([]Event, error) {
		return quiet(e.svc.StartGame(g))
	})
}

// FillHand tops up the player's hand in pool.
func (e *Engine) FillHand(ctx context.Context, gameID, playerID string, pool domain.Pool) (Result, error) {
	return e.transact(ctx, gameID, func(g *domain.GameState) ([]Event, error) {
		return quiet(e.svc.FillHand(g, playerID, pool))
	})
}

// PlayCard plays a card and, when it completes the act, deals the next act.
func (e *Engine) PlayCard(ctx context.Context, gameID, playerID string, pool domain.Pool, cardID string) (Result, error) {
	return e.transact(ctx, gameID, func(g *domain.GameState) ([]Event, error) {
		events, err := e.svc.PlayCard(g, playerID, pool, cardID)
		return quiet(e.withFreshDeal(g, events, err))
	})
}

// DiscardCard discards an event card.
func (e *Engine) DiscardCard(ctx context.Context, gameID, playerID string, pool domain.Pool, cardID string) (Result, error) {
	return e.transact(ctx, gameID, func(g *domain.GameState) ([]Event, error) {
		return quiet(e.svc.DiscardEventCard(g, playerID, pool, cardID))
	})
}

// AdvanceAct checks the act trigger against the latest document.
func (e *Engine) AdvanceAct(ctx context.Context, gameID string) (Result, error) {
	return e.transact(ctx, gameID, func(g *domain.GameState) ([]Event, error) {
		events, err := e.svc.AdvanceActIfComplete(g)
		return quiet(e.withFreshDeal(g, events, err))
	})
}

// SetAct jumps to act.
func (e *Engine) SetAct(ctx context.Context, gameID string, act int) (Result, error) {
	return e.transact(ctx, gameID, func(g *domain.GameState) ([]Event, error) {
		return e.svc.SetAct(g, act)
	})
}

// ResetPool refetches pool from the catalog and replaces it.
func (e *Engine) ResetPool(ctx context.Context, gameID string, pool domain.Pool) (Result, error) {
	if !domain.ValidGameID(gameID) {
		return Result{}, ErrInvalidGameID
	}
	if !pool.Valid() {
		return Result{}, ErrUnknownPool
	}
	cards, err := e.loadPool(ctx, pool)
	if err != nil {
		return Result{}, err
	}
	return e.transact(ctx, gameID, func(g *domain.GameState) ([]Event, error) {
		return e.svc.ResetPool(g, pool, cards)
	})
}

// Cleanup empties the lobby.
func (e *Engine) Cleanup(ctx context.Context, gameID string) (Result, error) {
	return e.transact(ctx, gameID, func(g *domain.GameState) ([]Event, error) {
		return e.svc.Cleanup(g)
	})
}

// DeckStatus reads the pool counters for a player.
func (e *Engine) DeckStatus(ctx context.Context, gameID, playerID string, pool domain.Pool) (DeckStatus, error) {
	g, err := e.store.Read(ctx, gameID)
	if err != nil {
		return DeckStatus{}, err
	}
	return e.svc.DeckStatus(g, playerID, pool)
}

// Roles reads the role overview.
func (e *Engine) Roles(ctx context.Context, gameID string) ([]Role, error) {
	g, err := e.store.Read(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return e.svc.Roles(g), nil
}

// TurnLog reads the turn history.
func (e *Engine) TurnLog(ctx context.Context, gameID string) ([]domain.TurnEntry, error) {
	g, err := e.store.Read(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return e.svc.TurnLog(g), nil
}
