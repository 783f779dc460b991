// Package config loads YAML configuration for the telemetry binaries,
// with ${VAR} environment expansion, defaults and validation.
package config

import "time"

// Config is the root configuration for telemetryd.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Poller   PollerConfig   `yaml:"poller"`
	Stats    StatsConfig    `yaml:"stats"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// UpstreamConfig holds the producer endpoint settings.
type UpstreamConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"` // Per-fetch timeout; must be < poller interval
}

// PollerConfig holds snapshot poller settings.
type PollerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// StatsConfig holds the latency recorder settings.
type StatsConfig struct {
	Window int `yaml:"window"` // Samples kept per operation class
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// SimulatorConfig is the root configuration for fabricsim.
type SimulatorConfig struct {
	ListenAddr    string        `yaml:"listen_addr"`
	Switches      int           `yaml:"switches"`
	Interval      time.Duration `yaml:"interval"`
	FaultErrorPct int           `yaml:"fault_error_pct"`
	FaultSlow     time.Duration `yaml:"fault_slow"`
	Log           LogConfig     `yaml:"log"`
}
