package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TS_STRING", "value")
	t.Setenv("TS_EMPTY", "")

	if got := GetEnv("TS_STRING", "fallback"); got != "value" {
		t.Errorf("GetEnv: got %q", got)
	}
	if got := GetEnv("TS_EMPTY", "fallback"); got != "fallback" {
		t.Errorf("GetEnv empty: got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TS_INT", "42")
	t.Setenv("TS_BAD", "forty-two")

	if got := GetEnvInt("TS_INT", 1); got != 42 {
		t.Errorf("GetEnvInt: got %d", got)
	}
	if got := GetEnvInt("TS_BAD", 1); got != 1 {
		t.Errorf("GetEnvInt invalid: got %d", got)
	}
	if got := GetEnvInt64("TS_INT", 1); got != 42 {
		t.Errorf("GetEnvInt64: got %d", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 5 * time.Second},
		{"90s", 90 * time.Second},
		{"2m", 2 * time.Minute},
		{"30", 30 * time.Second},
		{"soon", 5 * time.Second},
	}
	for _, tt := range tests {
		t.Setenv("TS_DURATION", tt.value)
		if got := GetEnvDuration("TS_DURATION", 5*time.Second); got != tt.want {
			t.Errorf("GetEnvDuration(%q): got %v want %v", tt.value, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TS_FROM_DOTENV=yes\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TS_FROM_DOTENV", "")
	os.Unsetenv("TS_FROM_DOTENV")

	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := GetEnv("TS_FROM_DOTENV", "no"); got != "yes" {
		t.Errorf("value from .env: got %q", got)
	}

	if err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Load of a missing file should return an error")
	}
}
