package configs

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTestConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)

	config := &Config{}
	require.NoError(t, v.Unmarshal(config))
	return config
}

func TestDefaultsProduceValidConfig(t *testing.T) {
	config := defaultTestConfig(t)

	require.NoError(t, ValidateConfig(config))
	assert.Equal(t, 2048, config.Feature.WindowSize)
	assert.Equal(t, 13, config.Feature.MFCCCoefficients)
	assert.Equal(t, 4, config.Standardize.MinRows)
	assert.Equal(t, 10, config.Recommend.K)
	assert.Equal(t, 3, config.Penalty.MaxStrictness)
	assert.NotEmpty(t, config.Store.CatalogFile)
}

func TestSetDefaultsKeepsExplicitValues(t *testing.T) {
	v := viper.New()
	v.Set("recommend.k", 25)
	v.Set("feature.window_size", 4096)
	SetDefaults(v)

	config := &Config{}
	require.NoError(t, v.Unmarshal(config))
	assert.Equal(t, 25, config.Recommend.K)
	assert.Equal(t, 4096, config.Feature.WindowSize)
}

func TestValidateConfigRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.Audio.SampleRate = 0 }},
		{"non power-of-two window", func(c *Config) { c.Feature.WindowSize = 1000 }},
		{"hop larger than window", func(c *Config) { c.Feature.HopSize = c.Feature.WindowSize * 2 }},
		{"min rows too small", func(c *Config) { c.Standardize.MinRows = 1 }},
		{"non-positive k", func(c *Config) { c.Recommend.K = 0 }},
		{"strictness out of range", func(c *Config) { c.Recommend.Strictness = 99 }},
		{"negative block weight", func(c *Config) {
			c.Recommend.BlockWeights = map[string]float64{"timbre-mean": -1}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := defaultTestConfig(t)
			tt.mutate(config)
			assert.Error(t, ValidateConfig(config))
		})
	}
}
