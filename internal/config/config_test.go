package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INVOICER_DATA_DIR", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("INVOICER_CONFIG", "")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataDir != "./data" {
		t.Errorf("DataDir = %q, want ./data", cfg.DataDir)
	}
	if cfg.DatabaseDriver != "sqlite3" {
		t.Errorf("DatabaseDriver = %q, want sqlite3", cfg.DatabaseDriver)
	}
	if cfg.AppName != "invoicer" {
		t.Errorf("AppName = %q, want invoicer", cfg.AppName)
	}
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoicer.yaml")
	content := "data_dir: /from/file\napp_name: faturas\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("INVOICER_CONFIG", path)
	t.Setenv("DATABASE_DRIVER", "")

	cfg, err := Load("/from/flag", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataDir != "/from/flag" {
		t.Errorf("DataDir = %q, want /from/flag", cfg.DataDir)
	}
	if cfg.AppName != "faturas" {
		t.Errorf("AppName = %q, want faturas", cfg.AppName)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadRejectsLibsqlWithoutURL(t *testing.T) {
	t.Setenv("INVOICER_CONFIG", "")
	t.Setenv("DATABASE_URL", "")

	if _, err := Load("", "libsql"); err == nil {
		t.Fatal("expected an error for libsql without DATABASE_URL")
	}
	if _, err := Load("", "postgres"); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}
