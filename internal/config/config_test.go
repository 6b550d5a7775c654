package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.QuickNoteIdleMS != 800 {
		t.Errorf("expected default quick-note idle 800ms, got %d", cfg.QuickNoteIdleMS)
	}
	if cfg.UseDatabase() {
		t.Error("expected memory mode without DATABASE_URL")
	}
}

func TestLoad_DatabaseMode(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/mediflow")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.UseDatabase() {
		t.Error("expected database mode with DATABASE_URL set")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{DBMaxConns: 20, DBMinConns: 5, QuickNoteIdleMS: 800, MaxImportMB: 25}, false},
		{"min exceeds max conns", Config{DBMaxConns: 5, DBMinConns: 10, QuickNoteIdleMS: 800, MaxImportMB: 25}, true},
		{"zero idle delay", Config{DBMaxConns: 20, DBMinConns: 5, QuickNoteIdleMS: 0, MaxImportMB: 25}, true},
		{"zero import limit", Config{DBMaxConns: 20, DBMinConns: 5, QuickNoteIdleMS: 800, MaxImportMB: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsDev(t *testing.T) {
	cfg := &Config{Env: "development"}
	if !cfg.IsDev() {
		t.Error("expected IsDev true for development env")
	}
	cfg.Env = "production"
	if cfg.IsDev() {
		t.Error("expected IsDev false for production env")
	}
}
