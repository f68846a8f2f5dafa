package config

// Config is the top-level application configuration
type Config struct {
	Upstream *UpstreamConfig `json:"upstream" yaml:"upstream"`
	Proxy    *ProxyConfig    `json:"proxy" yaml:"proxy"`
	Monitors *MonitorsConfig `json:"monitors" yaml:"monitors"`
	Summary  *SummaryConfig  `json:"summary" yaml:"summary"`
	Server   *ServerConfig   `json:"server" yaml:"server"`
	App      *AppConfig      `json:"app" yaml:"app"`
}

// getDefaultConfig returns a configuration with every section at its default value
func getDefaultConfig() *Config {
	return &Config{
		Upstream: NewUpstreamConfig(),
		Proxy:    NewProxyConfig(),
		Monitors: NewMonitorsConfig(),
		Summary:  NewSummaryConfig(),
		Server:   NewServerConfig(),
		App:      NewAppConfig(),
	}
}

// GetUpstreamConfig returns the upstream section, falling back to defaults
func (c *Config) GetUpstreamConfig() *UpstreamConfig {
	if c.Upstream != nil {
		return c.Upstream
	}
	return NewUpstreamConfig()
}

// GetProxyConfig returns the proxy section, falling back to defaults
func (c *Config) GetProxyConfig() *ProxyConfig {
	if c.Proxy != nil {
		return c.Proxy
	}
	return NewProxyConfig()
}

// GetMonitorsConfig returns the monitors section, falling back to defaults
func (c *Config) GetMonitorsConfig() *MonitorsConfig {
	if c.Monitors != nil {
		return c.Monitors
	}
	return NewMonitorsConfig()
}

// GetSummaryConfig returns the summary section, falling back to defaults
func (c *Config) GetSummaryConfig() *SummaryConfig {
	if c.Summary != nil {
		return c.Summary
	}
	return NewSummaryConfig()
}

// GetServerConfig returns the server section, falling back to defaults
func (c *Config) GetServerConfig() *ServerConfig {
	if c.Server != nil {
		return c.Server
	}
	return NewServerConfig()
}

// GetAppConfig returns the app section, falling back to defaults
func (c *Config) GetAppConfig() *AppConfig {
	if c.App != nil {
		return c.App
	}
	return NewAppConfig()
}
