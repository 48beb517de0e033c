package main

import (
	"os"

	"github.com/rs/zerolog"

	"library-records/library"
)

func main() {
	cfg := library.LoadConfig()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	library.SetLogger(logger)

	manager, err := library.NewLibraryManagerWithOptions(cfg.DBPath, cfg.Options())
	if err != nil {
		logger.Fatal().Err(err).Str("db", cfg.DBPath).Msg("open database")
	}
	defer manager.Close()

	router := newServer(manager, logger)
	logger.Info().Str("addr", cfg.HTTPAddr).Str("db", cfg.DBPath).Msg("listening")
	if err := router.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
