// Package config handles configuration for the CLI client, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the Genesisio CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP API.
//   - ProfileRefreshInterval: how often a logged-in session re-fetches the profile.
//   - CodeRequestCooldown: minimum gap between verification-code requests.
//   - LogoutTimeout: upper bound on the remote logout call.
//   - DatabasePath: sqlite file for the transactional session tier.
//   - SessionFilePath: JSON file for the fallback session tier.
type Config struct {
	ServerEndpointAddr     string
	ProfileRefreshInterval time.Duration
	CodeRequestCooldown    time.Duration
	LogoutTimeout          time.Duration
	DatabasePath           string
	SessionFilePath        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.ProfileRefreshInterval = 5 * time.Minute
	c.CodeRequestCooldown = 5 * time.Minute
	c.LogoutTimeout = 3 * time.Second
	c.DatabasePath = "session.db"
	c.SessionFilePath = "session.json"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
