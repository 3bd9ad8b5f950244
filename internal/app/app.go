package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"campaign-forecast/internal/config"
	"campaign-forecast/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// RunOptions configure a simulation run.
type RunOptions struct {
	InputPath string
	Seed      *uint64
	Workers   int
	JSONPath  string
}

// ExportOptions hold parameters for exporting a run's daily series.
type ExportOptions struct {
	RunID     string
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// GenerateOptions configure the example-data generator.
type GenerateOptions struct {
	OutPath   string
	Customers int
	Seed      uint64
	From      time.Time
	To        time.Time
}
