// Package app assembles the configured application: store, extractor,
// engine and service, built once per CLI invocation.
package app

import (
	"fmt"

	"github.com/soundalike/soundalike/configs"
	"github.com/soundalike/soundalike/internal/recommender"
	"github.com/soundalike/soundalike/pkg/feature/extractor"
	"github.com/soundalike/soundalike/pkg/genre"
	"github.com/soundalike/soundalike/pkg/logging"
	"github.com/soundalike/soundalike/pkg/recommend"
	"github.com/soundalike/soundalike/pkg/store"
)

// App holds the wired application components
type App struct {
	Config  *configs.Config
	Service *recommender.Service
	Store   store.Store
	Logger  logging.Logger
}

// New loads and validates configuration, then wires the service
func New() (*App, error) {
	config, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := configs.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.WithFields(logging.Fields{
		"component": "app",
	})

	trackStore, err := store.NewFileStore(config.Store.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open track store: %w", err)
	}

	ext := extractor.New(&config.Feature)
	canonicalizer := genre.NewCanonicalizer(config.GenreSynonyms)
	engine := recommend.NewEngine(canonicalizer, &config.Penalty)

	service, err := recommender.NewService(
		recommender.Config{
			SchemaPath:       config.Store.SchemaFile,
			StandardizerPath: config.Store.StandardizerFile,
			SampleRate:       config.Audio.SampleRate,
			MaxConcurrency:   config.Recommend.MaxConcurrency,
		},
		ext,
		engine,
		trackStore,
		&config.Standardize,
	)
	if err != nil {
		return nil, err
	}

	logger.Debug("application initialized", logging.Fields{
		"data_dir":     config.DataDir,
		"catalog_file": config.Store.CatalogFile,
	})

	return &App{
		Config:  config,
		Service: service,
		Store:   trackStore,
		Logger:  logger,
	}, nil
}
