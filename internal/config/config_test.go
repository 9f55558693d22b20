package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func resetGameConfig() {
	cfg = nil
	loadErr = nil
	loadOnce = sync.Once{}
}

func TestDefaultsWithoutConfig(t *testing.T) {
	resetGameConfig()
	t.Cleanup(resetGameConfig)

	if ev, sc := HandSizes(); ev != 5 || sc != 3 {
		t.Fatalf("hand sizes = %d,%d want 5,3", ev, sc)
	}
	if got := TransactionAttempts(); got != 25 {
		t.Fatalf("attempts = %d, want 25", got)
	}
	if got := MatchIdleSeconds(); got != 600 {
		t.Fatalf("idle = %d, want 600", got)
	}
}

func TestLoadGameConfig(t *testing.T) {
	resetGameConfig()
	t.Cleanup(resetGameConfig)

	path := filepath.Join(t.TempDir(), "game.json")
	if err := os.WriteFile(path, []byte(`{"event_hand_size":4,"transaction_attempts":10}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := LoadGameConfig(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if ev, sc := HandSizes(); ev != 4 || sc != 3 {
		t.Fatalf("hand sizes = %d,%d want 4,3", ev, sc)
	}
	if got := TransactionAttempts(); got != 10 {
		t.Fatalf("attempts = %d, want 10", got)
	}
}

func TestLoadGameConfigErrors(t *testing.T) {
	resetGameConfig()
	t.Cleanup(resetGameConfig)

	if err := LoadGameConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected read error")
	}

	resetGameConfig()
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := LoadGameConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadServerConfig(t *testing.T) {
	t.Setenv("AVGRUNNEN_TOKEN_SECRET", "")
	if _, err := LoadServerConfig(); err == nil {
		t.Fatalf("expected missing secret error")
	}

	t.Setenv("AVGRUNNEN_TOKEN_SECRET", "s3cret")
	t.Setenv("AVGRUNNEN_ALLOWED_ORIGINS", "localhost:3000,example.com")
	t.Setenv("AVGRUNNEN_TOKEN_TTL", "2h")
	c, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Addr != ":8080" || c.SceneSheetGID != "1815867176" || c.TokenTTL != 2*time.Hour {
		t.Fatalf("config = %+v", c)
	}
	if len(c.AllowedOrigins) != 2 || c.AllowedOrigins[1] != "example.com" {
		t.Fatalf("origins = %v", c.AllowedOrigins)
	}
}
