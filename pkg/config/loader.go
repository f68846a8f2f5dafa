package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the application configuration from the given path
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	// Missing file falls back to pure defaults plus environment variables
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := getDefaultConfig()
		mergeEnvVars(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigNotFound, err)
	}

	config := &Config{}
	ext := filepath.Ext(configPath)

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("%w: JSON parsing failed: %v", ErrInvalidFormat, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("%w: YAML parsing failed: %v", ErrInvalidFormat, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config file format: %s", ErrInvalidFormat, ext)
	}

	mergeEnvVars(config)
	return config, nil
}

// getDefaultConfigPath probes the conventional config locations
func getDefaultConfigPath() string {
	paths := []string{
		"./config.yaml",
		"./config.json",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".pickwatch", "config.yaml"),
			filepath.Join(homeDir, ".pickwatch", "config.json"),
		)
	}

	paths = append(paths,
		"/etc/pickwatch/config.yaml",
		"/etc/pickwatch/config.json",
	)

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "./config.yaml"
}

// mergeEnvVars overlays environment variables on top of the file values
func mergeEnvVars(config *Config) {
	mergeUpstreamEnvVars(config)
	mergeProxyEnvVars(config)
	mergeMonitorsEnvVars(config)
	mergeSummaryEnvVars(config)
	mergeServerEnvVars(config)
	mergeAppEnvVars(config)
}

func mergeUpstreamEnvVars(config *Config) {
	if config.Upstream == nil {
		config.Upstream = NewUpstreamConfig()
		return
	}

	if policy := os.Getenv("UPSTREAM_VARIANT_POLICY"); policy != "" {
		config.Upstream.VariantPolicy = policy
	}
	if timeout := getEnvInt("UPSTREAM_REQUEST_TIMEOUT", 0); timeout != 0 {
		config.Upstream.RequestTimeout = timeout
	}
	if rate := getEnvFloat("UPSTREAM_RATE_PER_SECOND", 0); rate != 0 {
		config.Upstream.RatePerSecond = rate
	}
	if burst := getEnvInt("UPSTREAM_RATE_BURST", 0); burst != 0 {
		config.Upstream.RateBurst = burst
	}
}

func mergeProxyEnvVars(config *Config) {
	if config.Proxy == nil {
		config.Proxy = NewProxyConfig()
		return
	}

	if file := os.Getenv("PROXY_FILE"); file != "" {
		config.Proxy.File = file
	}
}

func mergeMonitorsEnvVars(config *Config) {
	if config.Monitors == nil {
		config.Monitors = NewMonitorsConfig()
		return
	}

	if file := os.Getenv("MONITORS_FILE"); file != "" {
		config.Monitors.File = file
	}
}

func mergeSummaryEnvVars(config *Config) {
	if config.Summary == nil {
		config.Summary = NewSummaryConfig()
		return
	}

	if enabled := os.Getenv("SUMMARY_ENABLED"); enabled != "" {
		config.Summary.Enabled = enabled == "true" || enabled == "1"
	}
	if cronExpr := os.Getenv("SUMMARY_CRON"); cronExpr != "" {
		config.Summary.Cron = cronExpr
	}
}

func mergeServerEnvVars(config *Config) {
	if config.Server == nil {
		config.Server = NewServerConfig()
		return
	}

	if enabled := os.Getenv("SERVER_ENABLED"); enabled != "" {
		config.Server.Enabled = enabled == "true" || enabled == "1"
	}
	if port := getEnvInt("SERVER_PORT", 0); port != 0 {
		config.Server.Port = port
	}
	if address := os.Getenv("SERVER_ADDRESS"); address != "" {
		config.Server.Address = address
	}
}

func mergeAppEnvVars(config *Config) {
	if config.App == nil {
		config.App = NewAppConfig()
		return
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.App.LogLevel = logLevel
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		config.App.LogFile = logFile
	}
}
