package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

const (
	defaultEventHandSize       = 5
	defaultSceneHandSize       = 3
	defaultTransactionAttempts = 25
	defaultMatchIdleSeconds    = 600
)

// GameConfig holds the tunable rules of a session.
type GameConfig struct {
	EventHandSize       int `json:"event_hand_size"`
	SceneHandSize       int `json:"scene_hand_size"`
	TransactionAttempts int `json:"transaction_attempts"`
	// MatchIdleSeconds is how long an empty realtime session lingers before it stops.
	MatchIdleSeconds int `json:"match_idle_seconds"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// HandSizes returns the event and scene hand sizes, or the defaults when no
// config is loaded or a value is unset.
func HandSizes() (event, scene int) {
	event, scene = defaultEventHandSize, defaultSceneHandSize
	if cfg == nil {
		return event, scene
	}
	if cfg.EventHandSize > 0 {
		event = cfg.EventHandSize
	}
	if cfg.SceneHandSize > 0 {
		scene = cfg.SceneHandSize
	}
	return event, scene
}

// TransactionAttempts returns the optimistic retry budget of a store transaction.
func TransactionAttempts() int {
	if cfg == nil || cfg.TransactionAttempts <= 0 {
		return defaultTransactionAttempts
	}
	return cfg.TransactionAttempts
}

// MatchIdleSeconds returns how long an empty realtime session is kept.
func MatchIdleSeconds() int {
	if cfg == nil || cfg.MatchIdleSeconds <= 0 {
		return defaultMatchIdleSeconds
	}
	return cfg.MatchIdleSeconds
}
