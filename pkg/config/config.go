package config

import (
	"os"
	"strconv"
	"strings"
)

// UpstreamConfig controls the upstream availability client
type UpstreamConfig struct {
	VariantPolicy  string  `json:"variant_policy" yaml:"variant_policy"`   // random, round_robin
	RequestTimeout int     `json:"request_timeout" yaml:"request_timeout"` // seconds
	RatePerSecond  float64 `json:"rate_per_second" yaml:"rate_per_second"` // upstream request budget
	RateBurst      int     `json:"rate_burst" yaml:"rate_burst"`
}

// ProxyConfig points at the proxy list file
type ProxyConfig struct {
	File string `json:"file" yaml:"file"`
}

// MonitorsConfig points at the monitor definitions file
type MonitorsConfig struct {
	File string `json:"file" yaml:"file"`
}

// SummaryConfig controls the periodic summary report
type SummaryConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Cron    string `json:"cron" yaml:"cron"`
}

// ServerConfig represents status API server settings
type ServerConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port" yaml:"port"`
	Address string `json:"address" yaml:"address"`
}

// AppConfig represents application settings
type AppConfig struct {
	LogLevel    string `json:"log_level" yaml:"log_level"`
	LogFile     string `json:"log_file" yaml:"log_file"`
	Environment string `json:"environment" yaml:"environment"`
}

// NewUpstreamConfig creates an upstream configuration with default values populated from environment variables
func NewUpstreamConfig() *UpstreamConfig {
	return &UpstreamConfig{
		VariantPolicy:  getEnv("UPSTREAM_VARIANT_POLICY", "random"),
		RequestTimeout: getEnvInt("UPSTREAM_REQUEST_TIMEOUT", 5),
		RatePerSecond:  getEnvFloat("UPSTREAM_RATE_PER_SECOND", 2.0),
		RateBurst:      getEnvInt("UPSTREAM_RATE_BURST", 4),
	}
}

// NewProxyConfig creates a proxy configuration with default values populated from environment variables
func NewProxyConfig() *ProxyConfig {
	return &ProxyConfig{
		File: getEnv("PROXY_FILE", "./proxies.txt"),
	}
}

// NewMonitorsConfig creates a monitors configuration with default values populated from environment variables
func NewMonitorsConfig() *MonitorsConfig {
	return &MonitorsConfig{
		File: getEnv("MONITORS_FILE", "./data.csv"),
	}
}

// NewSummaryConfig creates a summary report configuration with default values populated from environment variables
func NewSummaryConfig() *SummaryConfig {
	return &SummaryConfig{
		Enabled: getEnvBool("SUMMARY_ENABLED", false),
		Cron:    getEnv("SUMMARY_CRON", "0 9 * * *"),
	}
}

// NewServerConfig creates a server configuration with default values populated from environment variables
func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		Enabled: getEnvBool("SERVER_ENABLED", true),
		Port:    getEnvInt("SERVER_PORT", 8080),
		Address: getEnv("SERVER_ADDRESS", "0.0.0.0"),
	}
}

// NewAppConfig creates an application configuration with default values populated from environment variables
func NewAppConfig() *AppConfig {
	return &AppConfig{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

// Validate validates the upstream configuration
func (uc *UpstreamConfig) Validate() error {
	if uc.VariantPolicy != "" {
		validPolicies := []string{"random", "round_robin"}
		if !isValidValue(uc.VariantPolicy, validPolicies) {
			return ErrInvalidValue
		}
	}

	if uc.RequestTimeout <= 0 {
		uc.RequestTimeout = 5
	}

	if uc.RatePerSecond <= 0 {
		uc.RatePerSecond = 2.0
	}

	if uc.RateBurst <= 0 {
		uc.RateBurst = 4
	}

	return nil
}

// Validate validates the summary report configuration
func (sc *SummaryConfig) Validate() error {
	if !sc.Enabled {
		return nil // skip validation if not enabled
	}

	if sc.Cron == "" {
		return ErrMissingRequired
	}

	if !isValidCronExpression(sc.Cron) {
		return ErrInvalidCron
	}

	return nil
}

// Validate validates server configuration
func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return ErrInvalidValue
	}

	if sc.Address == "" {
		sc.Address = "0.0.0.0"
	}

	return nil
}

// Validate validates application configuration
func (ac *AppConfig) Validate() error {
	if ac.LogLevel != "" {
		validLevels := []string{"debug", "info", "warn", "error", "fatal"}
		if !isValidValue(ac.LogLevel, validLevels) {
			return ErrInvalidValue
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func isValidValue(value string, validValues []string) bool {
	for _, valid := range validValues {
		if value == valid {
			return true
		}
	}
	return false
}

// isValidCronExpression does a shallow field-count check; the cron library
// does the real parse when the job is registered
func isValidCronExpression(expr string) bool {
	fields := strings.Fields(expr)
	return len(fields) == 5 || len(fields) == 6
}
