package nakama

import (
	"context"
	"database/sql"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"avgrunnen/internal/app"
	"avgrunnen/internal/catalog"
	"avgrunnen/internal/config"
	"avgrunnen/internal/domain"
	"avgrunnen/internal/ports"
	"avgrunnen/internal/storage"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Runtime environment keys read at module load.
const (
	envGameConfig   = "avgrunnen_game_config"
	envSheetID      = "avgrunnen_sheet_id"
	envEventGID     = "avgrunnen_event_gid"
	envSceneGID     = "avgrunnen_scene_gid"
	envCatalogFile  = "avgrunnen_catalog_file"
	envGuidanceFile = "avgrunnen_guidance_file"
	envAdmins       = "avgrunnen_admins"
)

const catalogTimeout = 15 * time.Second

// InitModule wires RPCs and the session match handler for the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)

	if path := env[envGameConfig]; path != "" {
		if err := config.LoadGameConfig(path); err != nil {
			logger.Warn("InitModule: Could not load game config: %v", err)
		}
	}

	var guidance []domain.Guidance
	if path := env[envGuidanceFile]; path != "" {
		lines, rowErrs, err := catalog.LoadGuidanceFile(path)
		if err != nil {
			logger.Warn("InitModule: Could not load guidance: %v", err)
		}
		for _, re := range rowErrs {
			logger.Warn("InitModule: Skipped guidance row %d: %s", re.Line, re.Reason)
		}
		guidance = lines
	}

	eventSize, sceneSize := config.HandSizes()
	svc := app.NewService(rand.New(rand.NewSource(time.Now().UnixNano())),
		app.WithRules(app.Rules{EventHandSize: eventSize, SceneHandSize: sceneSize}),
		app.WithGuidance(guidance),
	)
	store := storage.New(NewNakamaStorageAdapter(nk, GameCollection), storage.WithMaxAttempts(config.TransactionAttempts()))
	engine := app.NewEngine(store, newCatalog(env, logger), svc)

	m := &module{
		engine:   engine,
		matches:  nk,
		accounts: NewNakamaAccountAdapter(nk),
		admins:   splitList(env[envAdmins]),
	}
	if err := RegisterRPCs(initializer, m); err != nil {
		return err
	}

	idleSeconds := config.MatchIdleSeconds()
	if err := initializer.RegisterMatch(MatchNameSession, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(engine, idleSeconds), nil
	}); err != nil {
		return err
	}

	logger.Info("Avgrunnen Go module loaded.")
	return nil
}

// RegisterRPCs registers the Nakama RPC endpoints served by m.
func RegisterRPCs(initializer runtime.Initializer, m *module) error {
	if err := initializer.RegisterRpc(RpcJoin, m.rpcJoin); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcState, m.rpcState); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcAdmin, m.rpcAdmin)
}

// newCatalog prefers a local YAML catalog and falls back to the Google sheet.
func newCatalog(env map[string]string, logger runtime.Logger) ports.CatalogSource {
	if path := env[envCatalogFile]; path != "" {
		return catalog.NewFileSource(path)
	}
	sheetID := orDefault(env[envSheetID], catalog.DefaultSheetID)
	eventGID := orDefault(env[envEventGID], catalog.DefaultEventGID)
	sceneGID := orDefault(env[envSceneGID], catalog.DefaultSceneGID)
	return catalog.NewSheetsSource(sheetID, eventGID, sceneGID,
		catalog.WithHTTPClient(&http.Client{Timeout: catalogTimeout}),
		catalog.WithRowErrorHandler(func(pool domain.Pool, re catalog.RowError) {
			logger.Warn("Catalog: Skipped %s row %d: %s", pool, re.Line, re.Reason)
		}),
	)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
