// Command birdbridge serves the Mastodon client API backed by the
// Twitter API, letting Mastodon apps read and post through a normal
// Twitter account. Sessions are configured statically: each bearer
// token maps to a set of OAuth 1.0a credentials.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/epetousis/BirdBridge/pkg/bridge"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	writeExample := flag.Bool("write-example-config", false, "write the example config to stdout and exit")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *writeExample {
		fmt.Print(bridge.ExampleConfig)
		return
	}

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := bridge.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	log.Info().
		Str("tag", Tag).
		Str("commit", Commit).
		Str("built", BuildTime).
		Int("sessions", len(cfg.Sessions)).
		Msg("Starting BirdBridge")

	server := bridge.NewServer(cfg, log)
	if err := server.Run(); err != nil {
		log.Fatal().Err(err).Msg("Server exited")
	}
}
