package nakama

import (
	"encoding/json"
	"testing"

	"avgrunnen/internal/app"
	"avgrunnen/internal/domain"
	"avgrunnen/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

func newTestModule(t *testing.T) (*module, *fakeMatches, *fakeAccounts) {
	t.Helper()
	engine, _ := newTestEngine(t)
	matches := &fakeMatches{}
	accounts := &fakeAccounts{names: map[string]string{"user-1": "Astrid", "user-2": "Bjørn"}}
	return &module{engine: engine, matches: matches, accounts: accounts, admins: []string{"gm"}}, matches, accounts
}

func callJoin(t *testing.T, m *module, userID, payload string) JoinResponse {
	t.Helper()
	raw, err := m.rpcJoin(userCtx(userID), noopLogger{}, nil, nil, payload)
	if err != nil {
		t.Fatalf("rpcJoin(%s) error: %v", userID, err)
	}
	var resp JoinResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal join response: %v", err)
	}
	return resp
}

func TestRpcJoinCreatesThenReusesMatch(t *testing.T) {
	m, matches, accounts := newTestModule(t)

	first := callJoin(t, m, "user-1", `{"gameId":"kveld","name":"Astrid","character":"Smed"}`)
	if first.Player.ID != "user-1" || first.Player.Name != "Astrid" {
		t.Fatalf("player = %+v, want user-1/Astrid", first.Player)
	}
	if first.MatchID == "" {
		t.Fatal("expected a match id")
	}
	if len(first.State.EventCards.Hands["user-1"]) != domain.EventHandSize {
		t.Fatalf("event hand = %d cards, want %d", len(first.State.EventCards.Hands["user-1"]), domain.EventHandSize)
	}
	if accounts.updated["user-1"] != "Astrid" {
		t.Fatalf("display name not updated: %+v", accounts.updated)
	}

	second := callJoin(t, m, "user-2", `{"gameId":"kveld"}`)
	if second.MatchID != first.MatchID {
		t.Fatalf("second join match = %s, want %s", second.MatchID, first.MatchID)
	}
	if second.Player.Name != "Bjørn" {
		t.Fatalf("second player name = %q, want display name Bjørn", second.Player.Name)
	}
	if len(matches.created) != 1 {
		t.Fatalf("created %d matches, want 1", len(matches.created))
	}
	if got := matches.lists[0]; got != "+label.gameId:kveld" {
		t.Fatalf("label query = %q", got)
	}
}

func TestRpcJoinErrors(t *testing.T) {
	m, _, _ := newTestModule(t)

	tests := []struct {
		name    string
		userID  string
		payload string
		code    int
	}{
		{name: "Unauthenticated", userID: "", payload: `{"gameId":"kveld","name":"A"}`, code: codeUnauthenticated},
		{name: "BadJSON", userID: "user-1", payload: `{`, code: codeInvalidArgument},
		{name: "EmptyPayload", userID: "user-1", payload: ``, code: codeInvalidArgument},
		{name: "InvalidGameID", userID: "user-1", payload: `{"gameId":"no spaces","name":"A"}`, code: codeInvalidArgument},
		{name: "NoName", userID: "user-9", payload: `{"gameId":"kveld"}`, code: codeInvalidArgument},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := m.rpcJoin(userCtx(test.userID), noopLogger{}, nil, nil, test.payload)
			rerr, ok := err.(*runtime.Error)
			if !ok {
				t.Fatalf("err = %v, want *runtime.Error", err)
			}
			if rerr.Code != test.code {
				t.Fatalf("code = %d, want %d (%s)", rerr.Code, test.code, rerr.Message)
			}
		})
	}
}

func TestRpcStateIncludesDeckStatusForPlayers(t *testing.T) {
	m, _, _ := newTestModule(t)
	callJoin(t, m, "user-1", `{"gameId":"kveld","name":"Astrid"}`)

	raw, err := m.rpcState(userCtx("user-1"), noopLogger{}, nil, nil, `{"gameId":"kveld"}`)
	if err != nil {
		t.Fatalf("rpcState error: %v", err)
	}
	var resp StateResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.State.Players) != 1 || len(resp.Roles) != 1 {
		t.Fatalf("state players = %d, roles = %d", len(resp.State.Players), len(resp.Roles))
	}
	if got := resp.DeckStatus[domain.PoolEvent].InHand; got != domain.EventHandSize {
		t.Fatalf("event in hand = %d, want %d", got, domain.EventHandSize)
	}

	raw, err = m.rpcState(userCtx("stranger"), noopLogger{}, nil, nil, `{"gameId":"kveld"}`)
	if err != nil {
		t.Fatalf("rpcState error: %v", err)
	}
	resp = StateResponse{}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.DeckStatus != nil {
		t.Fatalf("stranger got deck status %+v", resp.DeckStatus)
	}

	_, err = m.rpcState(userCtx("user-1"), noopLogger{}, nil, nil, `{"gameId":"nope"}`)
	if rerr, ok := err.(*runtime.Error); !ok || rerr.Code != codeNotFound {
		t.Fatalf("missing game err = %v, want NOT_FOUND", err)
	}
}

func TestRpcAdmin(t *testing.T) {
	m, _, _ := newTestModule(t)
	callJoin(t, m, "user-1", `{"gameId":"kveld","name":"Astrid"}`)

	_, err := m.rpcAdmin(userCtx("user-1"), noopLogger{}, nil, nil, `{"gameId":"kveld","action":"cleanup"}`)
	if rerr, ok := err.(*runtime.Error); !ok || rerr.Code != codePermissionDenied {
		t.Fatalf("non-admin err = %v, want PERMISSION_DENIED", err)
	}

	raw, err := m.rpcAdmin(userCtx("gm"), noopLogger{}, nil, nil, `{"gameId":"kveld","action":"set_act","act":2}`)
	if err != nil {
		t.Fatalf("set_act error: %v", err)
	}
	var g domain.GameState
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if g.SceneCards.CurrentAct != 2 {
		t.Fatalf("act = %d, want 2", g.SceneCards.CurrentAct)
	}

	// Server-to-server calls carry no user id.
	if _, err := m.rpcAdmin(userCtx(""), noopLogger{}, nil, nil, `{"gameId":"kveld","action":"cleanup"}`); err != nil {
		t.Fatalf("cleanup error: %v", err)
	}
	state, err := m.engine.State(userCtx(""), "kveld")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(state.Players) != 0 {
		t.Fatalf("players after cleanup = %d", len(state.Players))
	}

	_, err = m.rpcAdmin(userCtx("gm"), noopLogger{}, nil, nil, `{"gameId":"kveld","action":"explode"}`)
	if rerr, ok := err.(*runtime.Error); !ok || rerr.Code != codeInvalidArgument {
		t.Fatalf("unknown action err = %v, want INVALID_ARGUMENT", err)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: ports.ErrGameNotFound, want: codeNotFound},
		{err: app.ErrNotDirector, want: codePermissionDenied},
		{err: app.ErrGameNotStarted, want: codeFailedPrecondition},
		{err: app.ErrUnknownPool, want: codeInvalidArgument},
		{err: ports.ErrTooManyRetries, want: codeAborted},
		{err: app.ErrCatalogUnavailable, want: codeUnavailable},
		{err: errBadPayload, want: codeInvalidArgument},
		{err: json.Unmarshal([]byte("{"), new(any)), want: codeInternal},
	}
	for _, test := range tests {
		if got := errorCode(test.err); got != test.want {
			t.Fatalf("errorCode(%v) = %d, want %d", test.err, got, test.want)
		}
	}
}
