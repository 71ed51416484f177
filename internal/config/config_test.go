package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromMapDefaults(t *testing.T) {
	cfg, err := FromMap(map[string]string{"DISCORD_TOKEN": "t"})
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	if cfg.SyncConcurrency != 4 || cfg.SyncMaxAttempts != 5 || cfg.LogLevel != "info" {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestFromMapValidation(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"missing token", map[string]string{}},
		{"empty token", map[string]string{"DISCORD_TOKEN": ""}},
		{"bad concurrency", map[string]string{"DISCORD_TOKEN": "t", "SYNC_CONCURRENCY": "0"}},
		{"not a number", map[string]string{"DISCORD_TOKEN": "t", "SYNC_MAX_ATTEMPTS": "many"}},
		{"role without guild", map[string]string{"DISCORD_TOKEN": "t", "MOD_ROLE_ID": "9"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromMap(tt.vars); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	os.Unsetenv("DISCORD_TOKEN")
	t.Setenv("MOD_GUILD_ID", "42")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DISCORD_TOKEN=from-file\nLOG_DEV=true\nMOD_GUILD_ID=1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("LOG_DEV")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DiscordToken != "from-file" || !cfg.LogDev {
		t.Fatalf("cfg = %+v", cfg)
	}
	// Variables already set win over the file.
	if cfg.ModGuildID != "42" {
		t.Fatalf("ModGuildID = %q", cfg.ModGuildID)
	}
}
