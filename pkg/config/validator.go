package config

import "fmt"

// ValidateConfig validates the complete configuration
func (c *Config) ValidateConfig() error {
	if err := c.GetUpstreamConfig().Validate(); err != nil {
		return fmt.Errorf("upstream: %w", err)
	}

	if err := c.GetSummaryConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrSummaryConfig, err)
	}

	if err := c.GetServerConfig().Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if err := c.GetAppConfig().Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}

	return nil
}
