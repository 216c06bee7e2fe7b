package ledger

import (
	"context"
	"fmt"

	"bvc-go/internal/bvc"
	"bvc-go/internal/config"
)

// NewFromConfig creates a Ledger implementation based on the configured
// type. An empty type defaults to "ethereum".
func NewFromConfig(ctx context.Context, cfg config.LedgerConfig, logger bvc.Logger) (bvc.Ledger, error) {
	switch cfg.Type {
	case "", "ethereum":
		return NewEthereumLedger(ctx, cfg, logger)
	case "memory":
		return NewMemoryLedger("local"), nil
	default:
		return nil, fmt.Errorf("unknown ledger type: %s", cfg.Type)
	}
}
