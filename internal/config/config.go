// Package config reads and writes the user configuration: the signing
// credential, the remote endpoints, and the author display name.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileName is the user configuration document. It is looked up in the
// repository directory first, then the user's home directory, then each
// parent of the repository directory, first match wins.
const FileName = "user-config.json"

// Config is the user-level configuration shared across repositories.
type Config struct {
	Author  string        `json:"author"`
	Ledger  LedgerConfig  `json:"ledger"`
	Content ContentConfig `json:"content"`
}

// LedgerConfig configures the on-chain ledger client.
// Type selects the backend: "ethereum" (default) or "memory" (development).
type LedgerConfig struct {
	Type            string `json:"type,omitempty"`
	RPCURL          string `json:"rpcUrl"`
	ContractAddress string `json:"contractAddress"`
	PrivateKey      string `json:"privateKey"`
}

// ContentConfig configures the content store client.
// Type selects the backend: "ipfs" (default) or "memory" (tests).
// AllowSimulated permits the development-only fallback to locally derived
// stand-in identifiers when the store is unreachable.
type ContentConfig struct {
	Type           string `json:"type,omitempty"`
	APIURL         string `json:"apiUrl"`
	AllowSimulated bool   `json:"allowSimulated,omitempty"`
}

// HasLedger reports whether enough ledger configuration is present to build
// a client.
func (c *Config) HasLedger() bool {
	return c.Ledger.Type == "memory" || (c.Ledger.RPCURL != "" && c.Ledger.ContractAddress != "")
}

// HasContent reports whether a content store client can be built.
func (c *Config) HasContent() bool {
	return c.Content.Type == "memory" || c.Content.APIURL != ""
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Find locates the user configuration file starting from the given
// repository directory: the directory itself, then the home directory, then
// each parent of the directory upward. Returns "" when no file exists.
func Find(repoDir string) (string, error) {
	dir, err := filepath.Abs(repoDir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", repoDir, err)
	}

	candidates := []string{filepath.Join(dir, FileName)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, FileName))
	}
	for parent := filepath.Dir(dir); ; parent = filepath.Dir(parent) {
		candidates = append(candidates, filepath.Join(parent, FileName))
		if parent == filepath.Dir(parent) {
			break
		}
	}

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// WriteToFile writes a Config to the specified file path, creating parent
// directories as needed.
func WriteToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path. It refuses to
// overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := WriteToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

// Reset removes the config file at the specified path. Removing a file that
// does not exist is not an error.
func Reset(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing config: %w", err)
	}
	return nil
}
