package nakama

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"avgrunnen/internal/app"
	"avgrunnen/internal/domain"
	"avgrunnen/internal/storage"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode    int64
	data      []byte
	presences []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	sent         []sentMessage
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.sent = append(md.sent, sentMessage{opCode: opCode, data: append([]byte(nil), data...), presences: presences})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) byOp(opCode int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.sent {
		if m.opCode == opCode {
			out = append(out, m)
		}
	}
	return out
}

// testPresence only answers GetUserId; other Presence methods are not used.
type testPresence struct {
	runtime.Presence
	userID string
}

func (p testPresence) GetUserId() string { return p.userID }

type testMatchData struct {
	runtime.MatchData
	userID string
	opCode int64
	data   []byte
}

func (d testMatchData) GetUserId() string { return d.userID }
func (d testMatchData) GetOpCode() int64  { return d.opCode }
func (d testMatchData) GetData() []byte   { return d.data }

type storedObject struct {
	value   string
	version int
}

// fakeStorage mimics Nakama's conditional storage writes.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]storedObject
	writes  int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string]storedObject)}
}

func (f *fakeStorage) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*api.StorageObject
	for _, r := range reads {
		obj, ok := f.objects[r.Collection+"/"+r.Key]
		if !ok {
			continue
		}
		out = append(out, &api.StorageObject{
			Collection: r.Collection,
			Key:        r.Key,
			Value:      obj.value,
			Version:    fmt.Sprint(obj.version),
		})
	}
	return out, nil
}

func (f *fakeStorage) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var acks []*api.StorageObjectAck
	for _, w := range writes {
		key := w.Collection + "/" + w.Key
		obj, exists := f.objects[key]
		switch {
		case w.Version == "*" && exists:
			return nil, runtime.ErrStorageRejectedVersion
		case w.Version != "" && w.Version != "*" && (!exists || fmt.Sprint(obj.version) != w.Version):
			return nil, runtime.ErrStorageRejectedVersion
		}
		obj = storedObject{value: w.Value, version: obj.version + 1}
		f.objects[key] = obj
		f.writes++
		acks = append(acks, &api.StorageObjectAck{Collection: w.Collection, Key: w.Key, Version: fmt.Sprint(obj.version)})
	}
	return acks, nil
}

type fakeCatalog struct {
	events, scenes []domain.Card
}

func (c fakeCatalog) Load(ctx context.Context, pool domain.Pool) ([]domain.Card, error) {
	if pool == domain.PoolScene {
		return c.scenes, nil
	}
	return c.events, nil
}

func testCatalog() fakeCatalog {
	var c fakeCatalog
	for i := 0; i < 20; i++ {
		c.events = append(c.events, domain.Card{ID: fmt.Sprintf("e%d", i), Title: "Hendelse"})
	}
	for act := domain.FirstAct; act <= domain.FinalAct; act++ {
		for i := 0; i < 8; i++ {
			c.scenes = append(c.scenes, domain.Card{ID: fmt.Sprintf("s%d-%d", act, i), Title: "Scene", Type: domain.TypeGoal, Acts: []int{act}})
		}
	}
	return c
}

func newTestEngine(t *testing.T) (*app.Engine, *fakeStorage) {
	t.Helper()
	fs := newFakeStorage()
	store := storage.New(NewNakamaStorageAdapter(fs, GameCollection))
	svc := app.NewService(rand.New(rand.NewSource(7)))
	return app.NewEngine(store, testCatalog(), svc), fs
}

// fakeMatches keeps created matches keyed by their gameId param.
type fakeMatches struct {
	created map[string]string
	lists   []string
}

func (f *fakeMatches) MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error) {
	f.lists = append(f.lists, query)
	prefix := "+label." + MatchLabelKeyGameID + ":"
	if id, ok := f.created[strings.TrimPrefix(query, prefix)]; ok {
		return []*api.Match{{MatchId: id, Authoritative: true}}, nil
	}
	return nil, nil
}

func (f *fakeMatches) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	if f.created == nil {
		f.created = make(map[string]string)
	}
	gameID, _ := params[MatchLabelKeyGameID].(string)
	id := fmt.Sprintf("match-%d.node", len(f.created)+1)
	f.created[gameID] = id
	return id, nil
}

type fakeAccounts struct {
	names   map[string]string
	updated map[string]string
}

func (f *fakeAccounts) DisplayName(ctx context.Context, userID string) (string, error) {
	name, ok := f.names[userID]
	if !ok {
		return "", fmt.Errorf("account %s not found", userID)
	}
	return name, nil
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, userID, username, displayName string) error {
	if f.updated == nil {
		f.updated = make(map[string]string)
	}
	f.updated[userID] = displayName
	return nil
}

func userCtx(userID string) context.Context {
	ctx := context.Background()
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, runtime.RUNTIME_CTX_USER_ID, userID)
}
