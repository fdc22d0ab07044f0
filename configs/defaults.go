package configs

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// SetDefaults sets default configuration values for all components
func SetDefaults(v *viper.Viper) {
	// Application defaults
	if !v.IsSet("log_level") {
		v.Set("log_level", "info")
	}
	if !v.IsSet("output_format") {
		v.Set("output_format", "table")
	}
	if !v.IsSet("data_dir") {
		v.Set("data_dir", defaultDataDir())
	}

	// Audio defaults
	if !v.IsSet("audio.sample_rate") {
		v.Set("audio.sample_rate", 44100)
	}
	if !v.IsSet("audio.channels") {
		v.Set("audio.channels", 1)
	}

	// Feature extraction defaults
	if !v.IsSet("feature.window_size") {
		v.Set("feature.window_size", 2048)
	}
	if !v.IsSet("feature.hop_size") {
		v.Set("feature.hop_size", 512)
	}
	if !v.IsSet("feature.mfcc_coefficients") {
		v.Set("feature.mfcc_coefficients", 13)
	}
	if !v.IsSet("feature.contrast_bands") {
		v.Set("feature.contrast_bands", 6)
	}
	if !v.IsSet("feature.tonal_coefficients") {
		v.Set("feature.tonal_coefficients", 6)
	}
	if !v.IsSet("feature.min_seconds") {
		v.Set("feature.min_seconds", 1.0)
	}
	if !v.IsSet("feature.silence_rms") {
		v.Set("feature.silence_rms", 1e-4)
	}
	if !v.IsSet("feature.target_rms") {
		v.Set("feature.target_rms", 0.1)
	}
	if !v.IsSet("feature.tempo_window_sec") {
		v.Set("feature.tempo_window_sec", 8.0)
	}
	if !v.IsSet("feature.tempo_hop_sec") {
		v.Set("feature.tempo_hop_sec", 4.0)
	}
	if !v.IsSet("feature.rolloff_threshold") {
		v.Set("feature.rolloff_threshold", 0.85)
	}

	// Standardizer defaults
	if !v.IsSet("standardize.min_rows") {
		v.Set("standardize.min_rows", 4)
	}
	if !v.IsSet("standardize.epsilon") {
		v.Set("standardize.epsilon", 1e-8)
	}

	// Genre penalty defaults; empirical knobs, not a contract
	if !v.IsSet("penalty.both_unknown") {
		v.Set("penalty.both_unknown", 0.02)
	}
	if !v.IsSet("penalty.one_unknown") {
		v.Set("penalty.one_unknown", 0.05)
	}
	if !v.IsSet("penalty.hard_mismatch") {
		v.Set("penalty.hard_mismatch", 0.15)
	}
	if !v.IsSet("penalty.overlap_weight") {
		v.Set("penalty.overlap_weight", 0.10)
	}
	if !v.IsSet("penalty.max_strictness") {
		v.Set("penalty.max_strictness", 3)
	}

	// Recommendation defaults
	if !v.IsSet("recommend.k") {
		v.Set("recommend.k", 10)
	}
	if !v.IsSet("recommend.strictness") {
		v.Set("recommend.strictness", 1)
	}
	if !v.IsSet("recommend.shadow_mode") {
		v.Set("recommend.shadow_mode", false)
	}

	// Store defaults, resolved under data_dir
	dataDir := v.GetString("data_dir")
	if !v.IsSet("store.catalog_file") {
		v.Set("store.catalog_file", filepath.Join(dataDir, "catalog.yaml"))
	}
	if !v.IsSet("store.schema_file") {
		v.Set("store.schema_file", filepath.Join(dataDir, "schema.yaml"))
	}
	if !v.IsSet("store.standardizer_file") {
		v.Set("store.standardizer_file", filepath.Join(dataDir, "standardizer.yaml"))
	}
}

// defaultDataDir returns the per-user data directory
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".soundalike"
	}
	return filepath.Join(home, ".local", "share", "soundalike")
}
