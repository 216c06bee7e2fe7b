package content

import (
	"fmt"

	"bvc-go/internal/bvc"
	"bvc-go/internal/config"
)

// NewFromConfig creates a ContentStore implementation based on the
// configured type. An empty type defaults to "ipfs".
func NewFromConfig(cfg config.ContentConfig, logger bvc.Logger) (bvc.ContentStore, error) {
	switch cfg.Type {
	case "", "ipfs":
		if cfg.APIURL == "" {
			return nil, &bvc.ConfigurationMissingError{Key: "content apiUrl"}
		}
		return NewIPFSStore(cfg.APIURL, cfg.AllowSimulated, logger), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown content store type: %s", cfg.Type)
	}
}
