package app

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"avgrunnen/internal/domain"

	"github.com/google/uuid"
)

// Service contains the game transitions. Every method mutates the state it
// is given and nothing else, so it can run as a retried transaction body.
// One Service is shared by every session; rngMu guards rng.
type Service struct {
	rngMu    sync.Mutex
	rng      *rand.Rand
	rules    Rules
	now      func() time.Time
	newID    func() string
	guidance []domain.Guidance
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRules overrides the hand sizes.
func WithRules(r Rules) ServiceOption {
	return func(s *Service) { s.rules = r }
}

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator sets the player id source.
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) { s.newID = newID }
}

// WithGuidance sets the prompt lines offered when scene cards are played.
func WithGuidance(g []domain.Guidance) ServiceOption {
	return func(s *Service) { s.guidance = g }
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand, opts ...ServiceOption) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Service{
		rng:   rng,
		rules: DefaultRules(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// shuffle returns a shuffled copy of cards.
func (s *Service) shuffle(cards []domain.Card) []domain.Card {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return domain.Shuffle(s.rng, cards)
}

var (
	ErrGameNotStarted     = errors.New("game has not started")
	ErrGameStarted        = errors.New("game has already started")
	ErrNotDirector        = errors.New("only the director can play scene cards")
	ErrNoDirector         = errors.New("no director is set")
	ErrNoPlayers          = errors.New("no players have joined")
	ErrUnknownPlayer      = errors.New("player not found")
	ErrInvalidName        = errors.New("player name is required")
	ErrNameTaken          = errors.New("player name is taken")
	ErrInvalidAct         = errors.New("act must be between 1 and 3")
	ErrNoActiveCards      = errors.New("no scene cards are eligible in that act")
	ErrUnknownPool        = errors.New("unknown card pool")
	ErrPoolNotDiscardable = errors.New("only event cards can be discarded")
	ErrCardNotActive      = errors.New("scene card is not active in this act")
	ErrEmptyPool          = errors.New("card pool is empty")
)

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}
