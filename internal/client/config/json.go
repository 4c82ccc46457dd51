package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/genesisio/genesisio/internal/flagx"
	"github.com/genesisio/genesisio/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerEndpointAddr     string         `json:"server_endpoint_addr"`
	ProfileRefreshInterval timex.Duration `json:"profile_refresh_interval"`
	CodeRequestCooldown    timex.Duration `json:"code_request_cooldown"`
	LogoutTimeout          timex.Duration `json:"logout_timeout"`
	DatabasePath           string         `json:"database_path"`
	SessionFilePath        string         `json:"session_file_path"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Behavior:
//   - Reads and unmarshals the JSON into JsonConfig.
//   - Copies known fields into the provided Config.
//   - Panics on read or unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	cfg.ProfileRefreshInterval = time.Duration(jc.ProfileRefreshInterval.Duration)
	cfg.CodeRequestCooldown = time.Duration(jc.CodeRequestCooldown.Duration)
	cfg.LogoutTimeout = time.Duration(jc.LogoutTimeout.Duration)
	cfg.DatabasePath = jc.DatabasePath
	cfg.SessionFilePath = jc.SessionFilePath
}
