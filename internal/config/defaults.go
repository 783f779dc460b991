package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultListenAddr    = ":8080"
	DefaultUpstreamURL   = "http://127.0.0.1:9001/counters"
	DefaultFetchTimeout  = time.Second
	DefaultPollInterval  = 1500 * time.Millisecond
	DefaultStatsWindow   = 1000
	DefaultLogLevel      = "info"
	DefaultSimListenAddr = ":9001"
	DefaultSimSwitches   = 64
	DefaultSimInterval   = 10 * time.Second
)

func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Upstream.URL == "" {
		c.Upstream.URL = DefaultUpstreamURL
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = DefaultFetchTimeout
	}
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Stats.Window == 0 {
		c.Stats.Window = DefaultStatsWindow
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func (c *SimulatorConfig) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultSimListenAddr
	}
	if c.Switches == 0 {
		c.Switches = DefaultSimSwitches
	}
	if c.Interval == 0 {
		c.Interval = DefaultSimInterval
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
