// Command server runs Avgrunnen as a standalone HTTP and WebSocket service
// backed by SQLite.
package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"avgrunnen/internal/app"
	"avgrunnen/internal/catalog"
	"avgrunnen/internal/config"
	"avgrunnen/internal/domain"
	"avgrunnen/internal/ports"
	"avgrunnen/internal/ports/httpapi"
	"avgrunnen/internal/ports/ws"
	"avgrunnen/internal/storage"
	"avgrunnen/internal/storage/sqlite"
	"avgrunnen/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("avgrunnen: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}
	if cfg.GameConfig != "" {
		if err := config.LoadGameConfig(cfg.GameConfig); err != nil {
			return err
		}
	}

	shutdownTracing, err := telemetry.Setup(ctx, "avgrunnen", cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	backend, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer backend.Close()
	store := storage.New(backend, storage.WithMaxAttempts(config.TransactionAttempts()))

	guidance, err := loadGuidance(cfg)
	if err != nil {
		return err
	}
	eventSize, sceneSize := config.HandSizes()
	svc := app.NewService(rand.New(rand.NewSource(time.Now().UnixNano())),
		app.WithRules(app.Rules{EventHandSize: eventSize, SceneHandSize: sceneSize}),
		app.WithGuidance(guidance),
	)
	engine := app.NewEngine(store, newCatalog(cfg), svc)

	tokens := app.NewTokenService(cfg.TokenSecret, cfg.TokenIssuer, cfg.TokenTTL)
	hub := ws.NewHub(engine, tokens, cfg.AllowedOrigins)
	api := httpapi.New(engine, tokens,
		httpapi.WithAdminKey(cfg.AdminKey),
		httpapi.WithWebSocket(hub.ServeWS),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.CORS(cfg.AllowedOrigins, api.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("avgrunnen listening on %s", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func newCatalog(cfg config.ServerConfig) ports.CatalogSource {
	if cfg.CatalogFile != "" {
		return catalog.NewFileSource(cfg.CatalogFile)
	}
	return catalog.NewSheetsSource(cfg.SheetID, cfg.EventSheetGID, cfg.SceneSheetGID,
		catalog.WithHTTPClient(&http.Client{Timeout: cfg.CatalogTimeout}),
		catalog.WithRowErrorHandler(func(pool domain.Pool, re catalog.RowError) {
			log.Printf("catalog: skipped %s row %d: %s", pool, re.Line, re.Reason)
		}),
	)
}

// loadGuidance reads the prompt file, falling back to the guidance section
// of a YAML catalog.
func loadGuidance(cfg config.ServerConfig) ([]domain.Guidance, error) {
	path := cfg.GuidanceFile
	if path == "" {
		path = cfg.CatalogFile
	}
	if path == "" {
		return nil, nil
	}
	lines, rowErrs, err := catalog.LoadGuidanceFile(path)
	for _, re := range rowErrs {
		log.Printf("guidance: skipped row %d: %s", re.Line, re.Reason)
	}
	if err != nil && cfg.GuidanceFile != "" {
		return nil, err
	}
	return lines, nil
}
