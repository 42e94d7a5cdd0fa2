package config

import (
	"fmt"
	"time"
)

type MetadataConfig struct {
	URL           string        `mapstructure:"url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetryTimes uint          `mapstructure:"max-retry-times"`
	RetryInterval time.Duration `mapstructure:"retry-interval"`
}

func (cfg *MetadataConfig) Validate() error {
	if cfg.URL == "" {
		return fmt.Errorf("metadata URL must be set")
	}

	if cfg.Timeout <= 0 {
		return fmt.Errorf("metadata timeout must be positive")
	}

	if cfg.RetryInterval <= 0 {
		return fmt.Errorf("metadata retry-interval must be positive")
	}

	return nil
}
