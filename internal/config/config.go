package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken  string `env:"DISCORD_TOKEN,required,notEmpty"`
	ApplicationID string `env:"DISCORD_APPLICATION_ID"`

	SyncConcurrency int `env:"SYNC_CONCURRENCY" envDefault:"4"`
	SyncMaxAttempts int `env:"SYNC_MAX_ATTEMPTS" envDefault:"5"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
	LogDev   bool   `env:"LOG_DEV"`

	// Guild-scoped moderation commands are only declared when ModGuildID is
	// set; ModRoleID, when also set, is granted access through a permission
	// overwrite.
	ModGuildID string `env:"MOD_GUILD_ID"`
	ModRoleID  string `env:"MOD_ROLE_ID"`
}

// Load reads .env files (missing files are fine) and then the environment.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)
	return parse(env.Options{})
}

// FromMap builds a Config from vars only, ignoring the process environment.
func FromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.SyncConcurrency < 1 {
		return nil, fmt.Errorf("parse config: SYNC_CONCURRENCY must be positive, got %d", cfg.SyncConcurrency)
	}
	if cfg.SyncMaxAttempts < 1 {
		return nil, fmt.Errorf("parse config: SYNC_MAX_ATTEMPTS must be positive, got %d", cfg.SyncMaxAttempts)
	}
	if cfg.ModRoleID != "" && cfg.ModGuildID == "" {
		return nil, fmt.Errorf("parse config: MOD_ROLE_ID requires MOD_GUILD_ID")
	}
	return &cfg, nil
}
