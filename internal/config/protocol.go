package config

import (
	"fmt"

	"github.com/gitdigital/founder-loan-service/pkg"
)

// ProtocolConfig holds the parameters init-protocol applies. They are read
// once; changing them afterwards has no effect on an initialized deployment.
type ProtocolConfig struct {
	Authority      string `mapstructure:"authority"`
	Treasury       string `mapstructure:"treasury"`
	ProtocolFeeBps uint16 `mapstructure:"protocol-fee-bps"`
	MinCreditScore uint16 `mapstructure:"min-credit-score"`
}

func (cfg *ProtocolConfig) Validate() error {
	if err := pkg.ValidateIdentity(cfg.Authority); err != nil {
		return fmt.Errorf("invalid protocol authority: %w", err)
	}

	if err := pkg.ValidateIdentity(cfg.Treasury); err != nil {
		return fmt.Errorf("invalid protocol treasury: %w", err)
	}

	if cfg.ProtocolFeeBps > 10_000 {
		return fmt.Errorf("protocol-fee-bps must be at most 10000, got %d", cfg.ProtocolFeeBps)
	}

	if cfg.MinCreditScore > 850 {
		return fmt.Errorf("min-credit-score must be at most 850, got %d", cfg.MinCreditScore)
	}

	return nil
}
