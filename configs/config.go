// Package configs defines the application configuration surface and its
// defaults, loaded through viper from file, environment and flags.
package configs

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/soundalike/soundalike/pkg/feature/extractor"
	"github.com/soundalike/soundalike/pkg/genre"
	"github.com/soundalike/soundalike/pkg/standardize"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`
	DataDir      string `mapstructure:"data_dir"`

	// Audio decoding settings
	Audio AudioConfig `mapstructure:"audio"`

	// Feature extraction settings
	Feature extractor.Config `mapstructure:"feature"`

	// Standardizer fit settings
	Standardize standardize.Config `mapstructure:"standardize"`

	// Genre penalty settings
	Penalty genre.PenaltyConfig `mapstructure:"penalty"`

	// Genre synonym overrides merged over the built-in table
	GenreSynonyms map[string]string `mapstructure:"genre_synonyms"`

	// Recommendation settings
	Recommend RecommendConfig `mapstructure:"recommend"`

	// Data persistence settings
	Store StoreConfig `mapstructure:"store"`
}

// AudioConfig contains audio input settings
type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
	Channels   int `mapstructure:"channels"`
}

// RecommendConfig contains recommendation defaults
type RecommendConfig struct {
	K              int                `mapstructure:"k"`
	Strictness     int                `mapstructure:"strictness"`
	ShadowMode     bool               `mapstructure:"shadow_mode"`
	BlockWeights   map[string]float64 `mapstructure:"block_weights"`
	MaxConcurrency int                `mapstructure:"max_concurrency"`
}

// StoreConfig contains data persistence settings
type StoreConfig struct {
	CatalogFile      string `mapstructure:"catalog_file"`
	SchemaFile       string `mapstructure:"schema_file"`
	StandardizerFile string `mapstructure:"standardizer_file"`
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio sample rate must be positive")
	}

	if config.Feature.WindowSize <= 0 || config.Feature.WindowSize&(config.Feature.WindowSize-1) != 0 {
		return fmt.Errorf("feature window size must be a positive power of two")
	}

	if config.Feature.HopSize <= 0 || config.Feature.HopSize > config.Feature.WindowSize {
		return fmt.Errorf("feature hop size must be positive and at most the window size")
	}

	if config.Standardize.MinRows < 2 {
		return fmt.Errorf("standardize min_rows must be at least 2")
	}

	if config.Recommend.K <= 0 {
		return fmt.Errorf("recommend k must be positive")
	}

	if config.Recommend.Strictness < 0 || config.Recommend.Strictness > config.Penalty.MaxStrictness {
		return fmt.Errorf("recommend strictness must be between 0 and %d", config.Penalty.MaxStrictness)
	}

	for block, w := range config.Recommend.BlockWeights {
		if w < 0 {
			return fmt.Errorf("block weight for %q cannot be negative", block)
		}
	}

	return nil
}
