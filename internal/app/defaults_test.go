package app

import (
	"path/filepath"
	"testing"

	"bvc-go/internal/config"
)

func TestUserConfigPath(t *testing.T) {
	t.Run("env var wins", func(t *testing.T) {
		t.Setenv("BVC_CONFIG_PATH", "/custom/user-config.json")

		got, err := UserConfigPath(t.TempDir())
		if err != nil {
			t.Fatalf("UserConfigPath() error = %v", err)
		}
		if got != "/custom/user-config.json" {
			t.Errorf("UserConfigPath() = %q, want /custom/user-config.json", got)
		}
	})

	t.Run("falls back to the search path", func(t *testing.T) {
		t.Setenv("BVC_CONFIG_PATH", "")
		t.Setenv("HOME", t.TempDir())
		repo := t.TempDir()
		path := filepath.Join(repo, config.FileName)
		if err := config.WriteToFile(path, &config.Config{Author: "alice"}); err != nil {
			t.Fatalf("WriteToFile() error = %v", err)
		}

		got, err := UserConfigPath(repo)
		if err != nil {
			t.Fatalf("UserConfigPath() error = %v", err)
		}
		if got != path {
			t.Errorf("UserConfigPath() = %q, want %q", got, path)
		}
	})

	t.Run("empty when nothing exists", func(t *testing.T) {
		t.Setenv("BVC_CONFIG_PATH", "")
		t.Setenv("HOME", t.TempDir())

		got, err := UserConfigPath(t.TempDir())
		if err != nil {
			t.Fatalf("UserConfigPath() error = %v", err)
		}
		if got != "" {
			t.Errorf("UserConfigPath() = %q, want empty", got)
		}
	})
}

func TestDebugEnabled(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{"1", true},
		{"true", true},
	}
	for _, tt := range tests {
		t.Run("BVC_DEBUG="+tt.value, func(t *testing.T) {
			t.Setenv("BVC_DEBUG", tt.value)
			if got := DebugEnabled(); got != tt.want {
				t.Errorf("DebugEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}
