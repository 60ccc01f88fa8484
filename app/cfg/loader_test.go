package cfg

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"FEED_URL", "DB_PATH", "FEED_LIMIT", "PORT", "HTTP_TIMEOUT", "SCHEDULER_INTERVAL", "BLOCKLIST_MAX_AGE", "GEMINI_API_KEY"} {
		// Setenv registers the restore; an empty value would still count as set.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestParse_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := parse([]string{"--feed-url", "https://example.com/feed.xml"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Command != "serve" {
		t.Errorf("Expected default command 'serve', got '%s'", cfg.Command)
	}
	if cfg.DBPath != "./data/articles.db" {
		t.Errorf("Expected default DB path, got '%s'", cfg.DBPath)
	}
	if cfg.FeedLimit != 50 {
		t.Errorf("Expected feed limit 50, got %d", cfg.FeedLimit)
	}
	if cfg.BlocklistMaxAge != 0 {
		t.Errorf("Expected blocklist refresh to be disabled by default, got %d", cfg.BlocklistMaxAge)
	}
	if cfg.HTTPTimeout() != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %s", cfg.HTTPTimeout())
	}
	if cfg.OutputFile != "./output.xml" {
		t.Errorf("Expected default output file, got '%s'", cfg.OutputFile)
	}
}

func TestParse_CommandAndParams(t *testing.T) {
	clearEnv(t)

	cfg, err := parse([]string{"reset-entry", "urn:entry:1", "urn:entry:2"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Command != "reset-entry" {
		t.Errorf("Expected command 'reset-entry', got '%s'", cfg.Command)
	}
	if len(cfg.Params) != 2 || cfg.Params[0] != "urn:entry:1" {
		t.Errorf("Expected two entry params, got %v", cfg.Params)
	}
}

func TestParse_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FEED_URL", "https://example.com/env.xml")
	t.Setenv("FEED_LIMIT", "10")

	cfg, err := parse([]string{"run"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.FeedURL != "https://example.com/env.xml" {
		t.Errorf("Expected feed URL from environment, got '%s'", cfg.FeedURL)
	}
	if cfg.FeedLimit != 10 {
		t.Errorf("Expected feed limit 10, got %d", cfg.FeedLimit)
	}
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"run without feed url", []string{"run"}},
		{"serve without feed url", []string{}},
		{"reset-entry without ids", []string{"reset-entry"}},
		{"unknown command", []string{"--feed-url", "https://example.com/f", "explode"}},
		{"negative limit", []string{"--feed-limit", "-1", "publish"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if _, err := parse(tt.args); err == nil {
				t.Errorf("Expected error for args %v", tt.args)
			}
		})
	}
}

func TestParse_CommandsWithoutFeedURL(t *testing.T) {
	for _, command := range []string{"publish", "stats", "backfill"} {
		t.Run(command, func(t *testing.T) {
			clearEnv(t)
			cfg, err := parse([]string{command})
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if cfg.Command != command {
				t.Errorf("Expected command '%s', got '%s'", command, cfg.Command)
			}
		})
	}
}

func TestGet_AfterSet(t *testing.T) {
	Set(&Cfg{Port: "9090"})
	defer Set(nil)

	if Get().Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", Get().Port)
	}
}
