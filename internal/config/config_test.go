package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat created config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file mode = %o, want 600", perm)
	}
}

func TestLoadReadsExistingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `listen: "0.0.0.0:9090"
log_level: debug
events_url: "https://example.org/events.csv"
presence_url: "https://example.org/presence.csv"
long_running_days: 90
presence_exclusion_days: 45
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Listen != "0.0.0.0:9090" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	if cfg.EventsURL != "https://example.org/events.csv" {
		t.Errorf("events_url = %q", cfg.EventsURL)
	}
	if cfg.LongRunningDays != 90 || cfg.PresenceExclusionDays != 45 {
		t.Errorf("thresholds = %d/%d", cfg.LongRunningDays, cfg.PresenceExclusionDays)
	}
	// Unset fields keep their defaults.
	if cfg.EventsRefresh != "@hourly" {
		t.Errorf("events_refresh = %q", cfg.EventsRefresh)
	}
}

func TestLoadEnvOverridesToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TelegramToken != "from-env" {
		t.Errorf("telegram token = %q", cfg.TelegramToken)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "missing events url",
			raw:  "events_url: \"\"\n",
		},
		{
			name: "non-positive threshold",
			raw:  "long_running_days: 0\n",
		},
		{
			name: "bad yaml",
			raw:  "listen: [unclosed\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.raw), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
