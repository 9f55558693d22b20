package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerConfig holds the process settings of the standalone server.
type ServerConfig struct {
	Addr       string `env:"AVGRUNNEN_ADDR" envDefault:":8080"`
	DBPath     string `env:"AVGRUNNEN_DB_PATH" envDefault:"data/avgrunnen.db"`
	GameConfig string `env:"AVGRUNNEN_GAME_CONFIG"`

	SheetID        string        `env:"AVGRUNNEN_SHEET_ID" envDefault:"1CS9CjOEJlG0etC8JI117DTY-FRU9Pstm20De_iuxtK4"`
	EventSheetGID  string        `env:"AVGRUNNEN_EVENT_SHEET_GID" envDefault:"0"`
	SceneSheetGID  string        `env:"AVGRUNNEN_SCENE_SHEET_GID" envDefault:"1815867176"`
	CatalogFile    string        `env:"AVGRUNNEN_CATALOG_FILE"`
	GuidanceFile   string        `env:"AVGRUNNEN_GUIDANCE_FILE"`
	CatalogTimeout time.Duration `env:"AVGRUNNEN_CATALOG_TIMEOUT" envDefault:"15s"`

	TokenSecret string        `env:"AVGRUNNEN_TOKEN_SECRET"`
	TokenIssuer string        `env:"AVGRUNNEN_TOKEN_ISSUER" envDefault:"avgrunnen"`
	TokenTTL    time.Duration `env:"AVGRUNNEN_TOKEN_TTL" envDefault:"12h"`
	AdminKey    string        `env:"AVGRUNNEN_ADMIN_KEY"`

	AllowedOrigins []string `env:"AVGRUNNEN_ALLOWED_ORIGINS" envSeparator:","`
	OTelEndpoint   string   `env:"AVGRUNNEN_OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServerConfig reads ServerConfig from the environment.
func LoadServerConfig() (ServerConfig, error) {
	var c ServerConfig
	if err := ParseEnv(&c); err != nil {
		return ServerConfig{}, err
	}
	if c.TokenSecret == "" {
		return ServerConfig{}, fmt.Errorf("AVGRUNNEN_TOKEN_SECRET is required")
	}
	return c, nil
}
