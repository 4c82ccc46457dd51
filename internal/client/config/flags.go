package config

import (
	"flag"
	"os"
	"time"

	"github.com/genesisio/genesisio/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend server (default from Config)
//	-i int      profile refresh interval in seconds (default from Config)
//	-d string   sqlite database path
//	-f string   session file path
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-d", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "base URL of the backend server")
	profileRefreshInterval := fs.Int("i", int(cfg.ProfileRefreshInterval.Seconds()), "profile refresh interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "sqlite database path")
	fs.StringVar(&cfg.SessionFilePath, "f", cfg.SessionFilePath, "session file path")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.ProfileRefreshInterval = time.Duration(*profileRefreshInterval) * time.Second
}
