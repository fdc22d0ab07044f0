// Package standardize fits, persists and applies per-block mean/variance
// normalization over a catalog of feature vectors. Standardization keeps
// heterogeneous blocks (a 13-dimension timbre block vs a 1-dimension tempo
// value) commensurable before any distance computation.
package standardize

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/soundalike/soundalike/pkg/feature"
	"github.com/soundalike/soundalike/pkg/logging"
)

// ErrStandardizerUnavailable is returned when no fitted standardizer exists
// and the catalog is below the minimum size for fitting. Callers should wait
// for more catalog data or use the unit-length fallback explicitly.
var ErrStandardizerUnavailable = errors.New("standardizer unavailable: catalog below minimum fit size")

// DefaultEpsilon is the floor below which a block's standard deviation is
// treated as constant and clamped to 1, avoiding division blow-up
const DefaultEpsilon = 1e-8

// artifactVersion is the on-disk format version of the standardizer artifact
const artifactVersion = 1

// Config holds fit parameters
type Config struct {
	MinRows int                `mapstructure:"min_rows" yaml:"min_rows"`
	Epsilon float64            `mapstructure:"epsilon" yaml:"epsilon"`
	Weights map[string]float64 `mapstructure:"weights" yaml:"weights"`
}

// DefaultConfig returns fitting defaults
func DefaultConfig() *Config {
	return &Config{
		MinRows: 4,
		Epsilon: DefaultEpsilon,
	}
}

// Standardizer is a fitted per-dimension mean/scale pair aligned to the
// schema's block slices. It is immutable after fitting; recalibration
// produces a replacement artifact rather than updating in place.
type Standardizer struct {
	Version  int             `yaml:"version"`
	Mean     []float64       `yaml:"mean"`
	Scale    []float64       `yaml:"scale"`
	Blocks   []feature.Block `yaml:"blocks"`
	Rows     int             `yaml:"rows"`
	FittedAt time.Time       `yaml:"fitted_at"`
}

// Fit computes per-block statistics over all catalog rows. Per block, the
// mean and standard deviation are taken across rows restricted to that
// block's column slice; near-zero deviations are clamped to 1.
func Fit(matrix [][]float64, blocks []feature.Block, config *Config) (*Standardizer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if len(matrix) < config.MinRows {
		return nil, fmt.Errorf("%w: have %d rows, need %d", ErrStandardizerUnavailable, len(matrix), config.MinRows)
	}

	total := 0
	for _, b := range blocks {
		total += b.Length
	}
	for i, row := range matrix {
		if len(row) != total {
			return nil, fmt.Errorf("catalog row %d has length %d, schema expects %d", i, len(row), total)
		}
	}

	epsilon := config.Epsilon
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}

	mean := make([]float64, total)
	scale := make([]float64, total)
	column := make([]float64, len(matrix))

	for dim := 0; dim < total; dim++ {
		for r, row := range matrix {
			column[r] = row[dim]
		}
		m, sd := stat.MeanStdDev(column, nil)
		if math.IsNaN(sd) || sd < epsilon {
			sd = 1.0
		}
		mean[dim] = m
		scale[dim] = sd
	}

	blockCopy := make([]feature.Block, len(blocks))
	copy(blockCopy, blocks)

	logging.WithFields(logging.Fields{"component": "standardizer"}).Info(
		"standardizer fitted",
		logging.Fields{"rows": len(matrix), "dims": total, "blocks": len(blocks)},
	)

	return &Standardizer{
		Version:  artifactVersion,
		Mean:     mean,
		Scale:    scale,
		Blocks:   blockCopy,
		Rows:     len(matrix),
		FittedAt: time.Now().UTC(),
	}, nil
}

// Transform applies (x - mean) / scale per dimension, then multiplies each
// block by its weight (default 1.0). Weights let an operator emphasize, say,
// harmony over raw timbre without re-deriving statistics.
func (s *Standardizer) Transform(vec feature.Vector, weights map[string]float64) (feature.Vector, error) {
	if len(vec) != len(s.Mean) {
		return nil, fmt.Errorf("vector length %d does not match standardizer dimensions %d", len(vec), len(s.Mean))
	}

	out := make(feature.Vector, len(vec))
	offset := 0
	for _, b := range s.Blocks {
		w := 1.0
		if weights != nil {
			if bw, ok := weights[b.Name]; ok {
				w = bw
			}
		}
		for i := offset; i < offset+b.Length; i++ {
			out[i] = (vec[i] - s.Mean[i]) / s.Scale[i] * w
		}
		offset += b.Length
	}
	return out, nil
}

// TransformMatrix standardizes every row of a catalog matrix
func (s *Standardizer) TransformMatrix(matrix [][]float64, weights map[string]float64) ([][]float64, error) {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		t, err := s.Transform(row, weights)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

// UnitNorm is the degenerate fallback for catalogs too small to fit stable
// statistics: each block is scaled to unit L2 length independently, which
// avoids division-by-near-zero instability while keeping blocks
// commensurable.
func UnitNorm(vec feature.Vector, blocks []feature.Block) feature.Vector {
	out := vec.Clone()
	offset := 0
	for _, b := range blocks {
		norm := 0.0
		for i := offset; i < offset+b.Length; i++ {
			norm += out[i] * out[i]
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for i := offset; i < offset+b.Length; i++ {
				out[i] /= norm
			}
		}
		offset += b.Length
	}
	return out
}

// Save writes the standardizer artifact atomically (write-new-then-rename)
// so concurrent readers never observe a half-written file
func (s *Standardizer) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode standardizer: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create standardizer directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write standardizer artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit standardizer artifact: %w", err)
	}
	return nil
}

// Load reads a persisted standardizer. Returns ok=false when none exists.
func Load(path string) (*Standardizer, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read standardizer artifact: %w", err)
	}

	var s Standardizer
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("failed to parse standardizer artifact: %w", err)
	}
	if s.Version > artifactVersion {
		return nil, false, fmt.Errorf("standardizer artifact version %d is newer than supported %d", s.Version, artifactVersion)
	}
	if len(s.Mean) != len(s.Scale) {
		return nil, false, fmt.Errorf("standardizer artifact corrupt: %d means vs %d scales", len(s.Mean), len(s.Scale))
	}
	return &s, true, nil
}
