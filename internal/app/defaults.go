package app

import (
	"os"

	"bvc-go/internal/config"
)

// UserConfigPath returns the user configuration path: the BVC_CONFIG_PATH
// environment variable when set, otherwise the first-match search starting
// from repoDir (repo dir, home, parents). Returns "" when no configuration
// exists anywhere.
func UserConfigPath(repoDir string) (string, error) {
	if path := os.Getenv("BVC_CONFIG_PATH"); path != "" {
		return path, nil
	}
	return config.Find(repoDir)
}

// DebugEnabled reports whether debug output was requested via the
// BVC_DEBUG environment variable.
func DebugEnabled() bool {
	v := os.Getenv("BVC_DEBUG")
	return v != "" && v != "0" && v != "false"
}
