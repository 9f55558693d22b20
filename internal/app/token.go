package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// ErrInvalidToken is returned for tokens that fail signature, issuer or
// expiry checks.
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims identify the acting player of a request.
type SessionClaims struct {
	GameID   string
	PlayerID string
}

// TokenService issues the bearer tokens handed out at join.
type TokenService struct {
	secret string
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a token service. ttl defaults to 12 hours.
func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenService{secret: secret, issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a session token for playerID in gameID.
func (s *TokenService) Issue(gameID, playerID string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("token service is nil")
	}
	if gameID == "" || playerID == "" {
		return "", fmt.Errorf("game and player are required")
	}
	if s.secret == "" || s.issuer == "" {
		return "", fmt.Errorf("token config is incomplete")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": playerID,
		"gid": gameID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
		"jti": fmt.Sprintf("%d-%d", now.UnixNano(), rand.Int63()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify checks a token and returns its claims.
func (s *TokenService) Verify(tokenString string) (SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid {
		return SessionClaims{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !claims.VerifyIssuer(s.issuer, true) {
		return SessionClaims{}, ErrInvalidToken
	}
	gameID, _ := claims["gid"].(string)
	playerID, _ := claims["sub"].(string)
	if gameID == "" || playerID == "" {
		return SessionClaims{}, ErrInvalidToken
	}
	return SessionClaims{GameID: gameID, PlayerID: playerID}, nil
}
