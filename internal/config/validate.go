package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Upstream.URL == "" {
		return errors.New("upstream.url is required")
	}
	if c.Upstream.Timeout <= 0 {
		return errors.New("upstream.timeout must be positive")
	}
	if c.Poller.Interval <= 0 {
		return errors.New("poller.interval must be positive")
	}
	// A stalled fetch must never delay the next cycle indefinitely.
	if c.Upstream.Timeout >= c.Poller.Interval {
		return fmt.Errorf("upstream.timeout (%v) must be shorter than poller.interval (%v)",
			c.Upstream.Timeout, c.Poller.Interval)
	}
	if c.Stats.Window < 1 {
		return errors.New("stats.window must be >= 1")
	}
	if err := validateLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Validate checks the simulator configuration.
func (c *SimulatorConfig) Validate() error {
	if c.Switches < 1 {
		return errors.New("switches must be >= 1")
	}
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	if c.FaultErrorPct < 0 || c.FaultErrorPct > 100 {
		return fmt.Errorf("fault_error_pct must be between 0 and 100, got %d", c.FaultErrorPct)
	}
	if c.FaultSlow < 0 {
		return errors.New("fault_slow must not be negative")
	}
	if err := validateLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func validateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", level)
}
