// Package ws pushes committed game documents to browser clients over
// WebSockets.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"avgrunnen/internal/app"
	"avgrunnen/internal/domain"
	"avgrunnen/internal/ports"

	"nhooyr.io/websocket"
)

const (
	pingInterval = 15 * time.Second
	writeTimeout = 10 * time.Second
	sendBuffer   = 16
)

// Msg is the envelope of every server message.
type Msg struct {
	T string `json:"t"`           // type
	M any    `json:"m,omitempty"` // payload
}

// StateSource reads and watches session documents.
type StateSource interface {
	State(ctx context.Context, gameID string) (*domain.GameState, error)
	Subscribe(gameID string, fn func(*domain.GameState)) func()
}

// TokenVerifier checks session tokens issued at join.
type TokenVerifier interface {
	Verify(token string) (app.SessionClaims, error)
}

// Client is one connected socket.
type Client struct {
	playerID string
	conn     *websocket.Conn
	send     chan []byte
}

type room struct {
	clients map[*Client]struct{}
	cancel  func()
}

// Hub relays every committed document of a game to the sockets of that game.
// It subscribes to a game while at least one socket is connected.
type Hub struct {
	source       StateSource
	tokens       TokenVerifier
	allowOrigins map[string]bool

	mu    sync.Mutex
	rooms map[string]*room
}

// NewHub creates a hub. An empty allow list accepts any origin.
func NewHub(source StateSource, tokens TokenVerifier, allow []string) *Hub {
	m := map[string]bool{}
	for _, a := range allow {
		if a != "" {
			m[a] = true
		}
	}
	return &Hub{
		source:       source,
		tokens:       tokens,
		allowOrigins: m,
		rooms:        map[string]*room{},
	}
}

// ServeWS upgrades GET /games/{id}/ws. The session token comes from the
// "token" query parameter or a bearer Authorization header.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" && len(h.allowOrigins) > 0 && !h.allowOrigins[origin] {
		http.Error(w, "forbidden origin", http.StatusForbidden)
		return
	}

	gameID := r.PathValue("id")
	claims, err := h.tokens.Verify(requestToken(r))
	if err != nil || claims.GameID != gameID {
		http.Error(w, app.UserMessage(app.ErrInvalidToken), http.StatusUnauthorized)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := &Client{playerID: claims.PlayerID, conn: c, send: make(chan []byte, sendBuffer)}
	h.join(ctx, gameID, client)
	log.Printf("ws: player %s connected to game %s", client.playerID, gameID)

	// writer
	done := make(chan struct{})
	go func() {
		defer close(done)
		ping := time.NewTicker(pingInterval)
		defer ping.Stop()
		for {
			select {
			case msg, ok := <-client.send:
				if !ok {
					return
				}
				wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
				err := c.Write(wctx, websocket.MessageText, msg)
				wcancel()
				if err != nil {
					cancel()
					return
				}
			case <-ping.C:
				if err := c.Ping(ctx); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Clients only listen; reads detect the close handshake.
	for {
		if _, _, err := c.Read(ctx); err != nil {
			break
		}
	}

	h.leave(gameID, client)
	cancel()
	<-done
	_ = c.Close(websocket.StatusNormalClosure, "bye")
	log.Printf("ws: player %s disconnected from game %s", client.playerID, gameID)
}

func requestToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// join adds c to the room of gameID and queues the current document as its
// first message. Holding h.mu until the snapshot is queued keeps any commit
// published meanwhile behind it.
func (h *Hub) join(ctx context.Context, gameID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[gameID]
	if !ok {
		rm = &room{clients: map[*Client]struct{}{}}
		rm.cancel = h.source.Subscribe(gameID, func(g *domain.GameState) {
			h.broadcast(gameID, Msg{T: "state", M: g})
		})
		h.rooms[gameID] = rm
	}
	rm.clients[c] = struct{}{}

	g, err := h.source.State(ctx, gameID)
	if err != nil {
		if !errors.Is(err, ports.ErrGameNotFound) {
			log.Printf("ws: read game %s: %v", gameID, err)
		}
		return
	}
	sendTo(c, Msg{T: "state", M: g})
}

func (h *Hub) leave(gameID string, c *Client) {
	h.mu.Lock()
	rm, ok := h.rooms[gameID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(rm.clients, c)
	var cancel func()
	if len(rm.clients) == 0 {
		delete(h.rooms, gameID)
		cancel = rm.cancel
	}
	h.mu.Unlock()

	// Subscriptions call broadcast, which takes h.mu.
	if cancel != nil {
		cancel()
	}
}

// Connected returns the number of sockets open for gameID.
func (h *Hub) Connected(gameID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rm, ok := h.rooms[gameID]; ok {
		return len(rm.clients)
	}
	return 0
}

func (h *Hub) broadcast(gameID string, msg Msg) {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ws: marshal %s: %v", msg.T, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[gameID]
	if !ok {
		return
	}
	for c := range rm.clients {
		select {
		case c.send <- b:
		default:
		}
	}
}

func sendTo(c *Client, msg Msg) {
	b, _ := json.Marshal(msg)
	select {
	case c.send <- b:
	default:
	}
}
