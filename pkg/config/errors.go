package config

import "errors"

// Configuration-related error definitions using sentinel errors pattern
var (
	// Generic errors
	ErrConfigNotFound = errors.New("configuration file not found")
	ErrInvalidFormat  = errors.New("invalid configuration file format")

	// Configuration validation errors
	ErrMissingRequired = errors.New("missing required configuration item")
	ErrInvalidValue    = errors.New("invalid configuration value")

	// Monitor row errors
	ErrMonitorsNotFound = errors.New("monitor definitions file not found")
	ErrInvalidMonitor   = errors.New("invalid monitor row")
	ErrInvalidFamily    = errors.New("invalid family descriptor")

	// Scheduler configuration errors
	ErrSummaryConfig = errors.New("summary report configuration error")
	ErrInvalidCron   = errors.New("invalid Cron expression")
)
