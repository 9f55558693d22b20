package domain

const (
	// EventHandSize is the number of event cards a player holds when the pool allows it.
	EventHandSize = 5
	// SceneHandSize is the number of scene cards a player holds when the pool allows it.
	SceneHandSize = 3

	// FirstAct and FinalAct bound the three-act structure.
	FirstAct = 1
	FinalAct = 3

	// SchemaVersion is the aggregate layout written by this build. See Migrate.
	SchemaVersion = 2
)

// Pool selects one of the two card subsystems of a session.
type Pool string

const (
	PoolEvent Pool = "event"
	PoolScene Pool = "scene"
)

// Valid reports whether p names a known pool.
func (p Pool) Valid() bool {
	return p == PoolEvent || p == PoolScene
}

// HandSize returns the default hand size for the pool.
func (p Pool) HandSize() int {
	if p == PoolScene {
		return SceneHandSize
	}
	return EventHandSize
}

// Scene card types in the order the role overview lists them.
const (
	TypeGoal         = "goal"
	TypeRelationship = "relationship"
	TypeExploration  = "exploration"
	TypePlan         = "plan"
)

// RoleTypeOrder ranks owned scene cards in the role overview.
var RoleTypeOrder = []string{TypeGoal, TypeRelationship, TypeExploration, TypePlan}

// MaxGameIDLength bounds session ids; they are used as storage keys and in
// match label queries.
const MaxGameIDLength = 64

// ValidGameID reports whether id is a non-empty run of ASCII letters, digits,
// '-' and '_'.
func ValidGameID(id string) bool {
	if id == "" || len(id) > MaxGameIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
