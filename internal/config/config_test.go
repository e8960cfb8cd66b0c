package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// TestLoad_Defaults verifies defaults apply when no file or env is present.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New(), t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Database.Path != "gymroster.db" {
		t.Errorf("got addr=%q path=%q", cfg.Server.Addr, cfg.Database.Path)
	}
	if cfg.Client.Debounce != 400*time.Millisecond || cfg.Cache.TTL != 30*time.Second {
		t.Errorf("got debounce=%s ttl=%s", cfg.Client.Debounce, cfg.Cache.TTL)
	}
	if cfg.IsProduction() {
		t.Error("expected development by default")
	}
}

// TestLoad_FileAndEnv verifies the yaml file is read and env vars override it.
func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "server:\n  addr: \":9000\"\nredis:\n  address: \"cache:6379\"\nclient:\n  debounce: 250ms\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GYMROSTER_SERVER_ADDR", ":9100")
	t.Setenv("GYMROSTER_EMAIL_DIGEST_TO", "a@gym.test, b@gym.test")

	cfg, err := load(viper.New(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":9100" {
		t.Errorf("addr = %q, want env override :9100", cfg.Server.Addr)
	}
	if cfg.Redis.Address != "cache:6379" || cfg.Client.Debounce != 250*time.Millisecond {
		t.Errorf("got redis=%q debounce=%s", cfg.Redis.Address, cfg.Client.Debounce)
	}
	if len(cfg.Email.DigestTo) != 2 || cfg.Email.DigestTo[1] != "b@gym.test" {
		t.Errorf("digest_to = %v", cfg.Email.DigestTo)
	}
}

// TestLoad_Invalid verifies out-of-range values are rejected.
func TestLoad_Invalid(t *testing.T) {
	t.Setenv("GYMROSTER_CLIENT_TIMEOUT", "0s")
	if _, err := load(viper.New(), t.TempDir()); err == nil {
		t.Error("expected error for zero client timeout")
	}
}

// TestNewLogger verifies level filtering and format selection.
func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "text"}, &buf)
	logger.Info("hidden")
	logger.Warn("slow_query", "label", "SELECT member")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=slow_query") {
		t.Errorf("unexpected output: %q", out)
	}

	buf.Reset()
	NewLogger(LogConfig{}, &buf).Info("member_event")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
	if ParseLevel("DEBUG") != slog.LevelDebug || ParseLevel("nonsense") != slog.LevelInfo {
		t.Error("ParseLevel mismatch")
	}
}
