package app

import "avgrunnen/internal/domain"

// Rules holds the tunable game parameters.
type Rules struct {
	EventHandSize int
	SceneHandSize int
}

// DefaultRules returns the standard hand sizes.
func DefaultRules() Rules {
	return Rules{
		EventHandSize: domain.EventHandSize,
		SceneHandSize: domain.SceneHandSize,
	}
}

// HandSize returns the configured hand size of pool.
func (r Rules) HandSize(pool domain.Pool) int {
	if pool == domain.PoolScene {
		return r.SceneHandSize
	}
	return r.EventHandSize
}
