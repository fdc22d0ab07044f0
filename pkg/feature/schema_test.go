package feature

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlocks() []Block {
	return []Block{
		{Name: "timbre-mean", Length: 13},
		{Name: "harmony-chroma", Length: 12},
		{Name: "tempo", Length: 2},
	}
}

func TestNewSchema(t *testing.T) {
	schema, err := NewSchema(testBlocks())
	require.NoError(t, err)
	assert.Equal(t, 27, schema.TotalLength())

	lo, hi, ok := schema.SliceFor("harmony-chroma")
	require.True(t, ok)
	assert.Equal(t, 13, lo)
	assert.Equal(t, 25, hi)

	_, _, ok = schema.SliceFor("nonexistent")
	assert.False(t, ok)
}

func TestNewSchemaRejectsInvalidBlocks(t *testing.T) {
	tests := []struct {
		name   string
		blocks []Block
	}{
		{"empty name", []Block{{Name: "", Length: 3}}},
		{"zero length", []Block{{Name: "a", Length: 0}}},
		{"duplicate name", []Block{{Name: "a", Length: 3}, {Name: "a", Length: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.blocks)
			assert.Error(t, err)
		})
	}
}

func TestValidateAcceptsMatchingLayout(t *testing.T) {
	schema, err := NewSchema(testBlocks())
	require.NoError(t, err)

	vec := make(Vector, schema.TotalLength())
	assert.NoError(t, schema.Validate(vec, testBlocks()))
}

func TestValidateRejectsMismatches(t *testing.T) {
	schema, err := NewSchema(testBlocks())
	require.NoError(t, err)
	vec := make(Vector, schema.TotalLength())

	tests := []struct {
		name     string
		observed []Block
		wantKind DiffKind
	}{
		{
			"length change",
			[]Block{{"timbre-mean", 20}, {"harmony-chroma", 12}, {"tempo", 2}},
			DiffLength,
		},
		{
			"missing block",
			[]Block{{"timbre-mean", 13}, {"harmony-chroma", 12}},
			DiffMissing,
		},
		{
			"extra block",
			append(testBlocks(), Block{"extra", 4}),
			DiffExtra,
		},
		{
			"reordered blocks",
			[]Block{{"harmony-chroma", 12}, {"timbre-mean", 13}, {"tempo", 2}},
			DiffReordered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.Validate(vec, tt.observed)
			require.Error(t, err)

			var mismatch *SchemaMismatch
			require.ErrorAs(t, err, &mismatch)
			require.NotEmpty(t, mismatch.Diffs)
			assert.Equal(t, tt.wantKind, mismatch.Diffs[0].Kind)
		})
	}
}

func TestValidateRejectsWrongVectorLength(t *testing.T) {
	schema, err := NewSchema(testBlocks())
	require.NoError(t, err)

	err = schema.Validate(make(Vector, 5), testBlocks())
	var mismatch *SchemaMismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestSaveIfAbsentBootstrapsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")

	first, err := SaveIfAbsent(path, testBlocks())
	require.NoError(t, err)
	assert.Equal(t, 27, first.TotalLength())

	// A second save with a different layout must not replace the artifact
	other := []Block{{Name: "other", Length: 5}}
	second, err := SaveIfAbsent(path, other)
	require.NoError(t, err)
	assert.Equal(t, first.Blocks, second.Blocks)

	loaded, ok, err := LoadSchema(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.Blocks, loaded.Blocks)
	assert.Equal(t, first.TotalLength(), loaded.TotalLength())
}

func TestLoadSchemaAbsent(t *testing.T) {
	_, ok, err := LoadSchema(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVectorFinite(t *testing.T) {
	assert.True(t, Vector{1, 2, 3}.Finite())
	assert.False(t, Vector{1, math.NaN(), 3}.Finite())
	assert.False(t, Vector{1, math.Inf(1), 3}.Finite())
}
