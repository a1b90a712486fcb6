package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/svedin/kontera/cmd"
	"github.com/svedin/kontera/internal/config"
	"github.com/svedin/kontera/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Logger setup happens before config validation so that a missing
	// API key still produces a readable error.
	cfg, err := config.Load()
	if err != nil {
		if lerr := logger.Setup(logger.DefaultConfig()); lerr != nil {
			log.Fatalf("Failed to initialize logger: %v", lerr)
		}
		l := logger.WithComponent("main")
		l.Warn().Err(err).Msg("Configuration incomplete, subcommands may fail")
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	cmd.Execute()
}
