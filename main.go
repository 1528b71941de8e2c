package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"storyloom/assets"
	"storyloom/internal/ai"
	"storyloom/internal/config"
	"storyloom/internal/game"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	log, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	var narrator ai.Narrator
	if cfg.AIEnabled() {
		client, err := ai.NewClient(ai.Config{
			APIKey:       cfg.AIAPIKey,
			BaseURL:      cfg.AIBaseURL,
			Model:        cfg.AIModel,
			SystemPrompt: assets.NarratorPrompt,
			Timeout:      cfg.AITimeout,
			MaxRetries:   cfg.AIMaxRetries,
		}, log)
		if err != nil {
			return err
		}
		narrator = client
	} else {
		log.Info().Msg("no API key configured, narration uses authored text")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	g, err := game.New(screen, cfg, narrator, log)
	if err != nil {
		return err
	}
	return g.Run()
}

// openLogger writes structured logs to a file under the data directory.
// The terminal belongs to the game, so nothing logs to stderr.
func openLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}

	base, err := game.DataDir(cfg)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return zerolog.Nop(), nil, err
	}
	f, err := os.OpenFile(filepath.Join(base, "storyloom.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	log := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return log, func() { _ = f.Close() }, nil
}
