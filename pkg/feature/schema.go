// Package feature defines the fixed-length fingerprint representation of a
// track: the versioned block schema, the vector type, and strict validation
// of vectors against a persisted schema.
package feature

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Block is a named, fixed-length slice of the fingerprint
type Block struct {
	Name   string `yaml:"name" json:"name"`
	Length int    `yaml:"length" json:"length"`
}

// Schema is the ordered catalog of feature blocks defining a valid
// fingerprint. Once persisted it is immutable; block order is the
// concatenation order of the final vector.
type Schema struct {
	Blocks []Block `yaml:"blocks" json:"blocks"`
	Total  int     `yaml:"total_length" json:"total_length"`
}

// NewSchema builds a schema from an ordered block list
func NewSchema(blocks []Block) (*Schema, error) {
	total := 0
	seen := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		if b.Name == "" {
			return nil, fmt.Errorf("schema block with empty name")
		}
		if b.Length <= 0 {
			return nil, fmt.Errorf("schema block %q has non-positive length %d", b.Name, b.Length)
		}
		if seen[b.Name] {
			return nil, fmt.Errorf("schema block %q appears twice", b.Name)
		}
		seen[b.Name] = true
		total += b.Length
	}
	out := make([]Block, len(blocks))
	copy(out, blocks)
	return &Schema{Blocks: out, Total: total}, nil
}

// TotalLength returns the expected vector length
func (s *Schema) TotalLength() int {
	return s.Total
}

// SliceFor returns the [lo, hi) column range of the named block, or ok=false
// when the block is not part of the schema
func (s *Schema) SliceFor(name string) (lo, hi int, ok bool) {
	offset := 0
	for _, b := range s.Blocks {
		if b.Name == name {
			return offset, offset + b.Length, true
		}
		offset += b.Length
	}
	return 0, 0, false
}

// Validate checks an observed block layout and vector against the schema.
// The comparison is position-for-position: any reordered, missing, extra or
// resized block fails with a SchemaMismatch carrying the per-block diff.
func (s *Schema) Validate(vec Vector, observed []Block) error {
	mismatch := &SchemaMismatch{}

	n := len(s.Blocks)
	if len(observed) > n {
		n = len(observed)
	}
	for i := 0; i < n; i++ {
		switch {
		case i >= len(observed):
			mismatch.Diffs = append(mismatch.Diffs, BlockDiff{
				Name:    s.Blocks[i].Name,
				WantLen: s.Blocks[i].Length,
				Kind:    DiffMissing,
			})
		case i >= len(s.Blocks):
			mismatch.Diffs = append(mismatch.Diffs, BlockDiff{
				Name:   observed[i].Name,
				GotLen: observed[i].Length,
				Kind:   DiffExtra,
			})
		case s.Blocks[i].Name != observed[i].Name:
			mismatch.Diffs = append(mismatch.Diffs, BlockDiff{
				Name:    observed[i].Name,
				WantLen: s.Blocks[i].Length,
				GotLen:  observed[i].Length,
				Kind:    DiffReordered,
			})
		case s.Blocks[i].Length != observed[i].Length:
			mismatch.Diffs = append(mismatch.Diffs, BlockDiff{
				Name:    s.Blocks[i].Name,
				WantLen: s.Blocks[i].Length,
				GotLen:  observed[i].Length,
				Kind:    DiffLength,
			})
		}
	}

	if len(mismatch.Diffs) > 0 {
		return mismatch
	}

	if len(vec) != s.Total {
		mismatch.Diffs = append(mismatch.Diffs, BlockDiff{
			Name:    "(total)",
			WantLen: s.Total,
			GotLen:  len(vec),
			Kind:    DiffLength,
		})
		return mismatch
	}

	return nil
}

// LoadSchema reads a persisted schema artifact. Returns ok=false when no
// schema has been persisted yet.
func LoadSchema(path string) (*Schema, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read schema artifact: %w", err)
	}

	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("failed to parse schema artifact: %w", err)
	}

	total := 0
	for _, b := range s.Blocks {
		total += b.Length
	}
	if s.Total != total {
		return nil, false, fmt.Errorf("schema artifact corrupt: total %d != sum of block lengths %d", s.Total, total)
	}

	return &s, true, nil
}

// SaveIfAbsent persists the schema only when no artifact exists yet
// (write-once bootstrap). Returns the persisted schema, which is the
// existing one when present.
func SaveIfAbsent(path string, blocks []Block) (*Schema, error) {
	existing, ok, err := LoadSchema(path)
	if err != nil {
		return nil, err
	}
	if ok {
		return existing, nil
	}

	s, err := NewSchema(blocks)
	if err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create schema directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write schema artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, fmt.Errorf("failed to commit schema artifact: %w", err)
	}

	return s, nil
}
