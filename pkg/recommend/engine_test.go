package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundalike/soundalike/pkg/feature"
	"github.com/soundalike/soundalike/pkg/standardize"
	"github.com/soundalike/soundalike/pkg/store"
)

// identityStd builds a standardizer that leaves vectors untouched, so test
// cosine values can be computed by hand
func identityStd(dims int) *standardize.Standardizer {
	mean := make([]float64, dims)
	scale := make([]float64, dims)
	for i := range scale {
		scale[i] = 1.0
	}
	return &standardize.Standardizer{
		Mean:   mean,
		Scale:  scale,
		Blocks: []feature.Block{{Name: "toy", Length: dims}},
		Rows:   dims,
	}
}

func toCatalog(entries []*store.Entry) *store.Catalog {
	matrix := make([][]float64, len(entries))
	for i, e := range entries {
		matrix[i] = e.Vector
	}
	return &store.Catalog{Entries: entries, Matrix: matrix}
}

func toyCatalog() *store.Catalog {
	return toCatalog([]*store.Entry{
		{ID: "t1", Title: "Anchor", Genres: []string{"rock"}, Vector: feature.Vector{1, 0, 0}},
		{ID: "t2", Title: "Close Twin", Genres: []string{"rock"}, Vector: feature.Vector{0.9, 0.1, 0}},
		{ID: "t3", Title: "Orthogonal Pop", Genres: []string{"pop"}, Vector: feature.Vector{0, 1, 0}},
		{ID: "t4", Title: "Orthogonal Rock", Genres: []string{"rock"}, Vector: feature.Vector{0, 0, 1}},
		{ID: "t5", Title: "Opposite", Genres: []string{"jazz"}, Vector: feature.Vector{-1, 0, 0}},
	})
}

func TestRecommendToyCatalog(t *testing.T) {
	engine := NewEngine(nil, nil)

	result, err := engine.Recommend(context.Background(),
		feature.Vector{1, 0, 0}, []string{"rock"},
		toyCatalog(), identityStd(3),
		Options{K: 2, ExcludeID: "t1", Strictness: 1})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 2)

	top := result.Recommendations[0]
	assert.Equal(t, "t2", top.Entry.ID)
	assert.InDelta(t, 0.9939, top.Similarity, 1e-3)
	assert.Equal(t, 0.0, top.Penalty)
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, 2, result.Recommendations[1].Rank)

	// The excluded query entry never appears
	for _, rec := range result.Recommendations {
		assert.NotEqual(t, "t1", rec.Entry.ID)
	}
}

func TestRecommendExclusionDoesNotUnderFill(t *testing.T) {
	engine := NewEngine(nil, nil)

	// t1 is the best match for itself; excluding it must still return k
	// results from the remaining rows
	result, err := engine.Recommend(context.Background(),
		feature.Vector{1, 0, 0}, nil,
		toyCatalog(), identityStd(3),
		Options{K: 4, ExcludeID: "t1"})
	require.NoError(t, err)
	assert.Len(t, result.Recommendations, 4)
}

func TestRecommendPenaltyReorders(t *testing.T) {
	engine := NewEngine(nil, nil)
	catalog := toCatalog([]*store.Entry{
		{ID: "near-jazz", Genres: []string{"jazz"}, Vector: feature.Vector{0.95, 0.3122, 0}},
		{ID: "far-rock", Genres: []string{"rock"}, Vector: feature.Vector{0.9, 0.4359, 0}},
	})

	// Without strictness the closer jazz track wins
	result, err := engine.Recommend(context.Background(),
		feature.Vector{1, 0, 0}, []string{"rock"},
		catalog, identityStd(3),
		Options{K: 2, Strictness: 0})
	require.NoError(t, err)
	assert.Equal(t, "near-jazz", result.Recommendations[0].Entry.ID)

	// Strictness 2 charges the jazz mismatch 0.30, dropping it below the
	// rock track
	result, err = engine.Recommend(context.Background(),
		feature.Vector{1, 0, 0}, []string{"rock"},
		catalog, identityStd(3),
		Options{K: 2, Strictness: 2})
	require.NoError(t, err)
	assert.Equal(t, "far-rock", result.Recommendations[0].Entry.ID)
	assert.Greater(t, result.Recommendations[1].Penalty, 0.0)
}

func TestRecommendShadowModeKeepsSimilarityOrder(t *testing.T) {
	engine := NewEngine(nil, nil)
	catalog := toCatalog([]*store.Entry{
		{ID: "near-jazz", Genres: []string{"jazz"}, Vector: feature.Vector{0.95, 0.3122, 0}},
		{ID: "far-rock", Genres: []string{"rock"}, Vector: feature.Vector{0.9, 0.4359, 0}},
	})

	result, err := engine.Recommend(context.Background(),
		feature.Vector{1, 0, 0}, []string{"rock"},
		catalog, identityStd(3),
		Options{K: 2, Strictness: 2, ShadowMode: true})
	require.NoError(t, err)

	// Penalties are reported but do not change the order
	assert.Equal(t, "near-jazz", result.Recommendations[0].Entry.ID)
	assert.Greater(t, result.Recommendations[0].Penalty, 0.0)
	assert.Less(t, result.Recommendations[0].FinalScore, result.Recommendations[0].Similarity)
}

func TestRecommendMaxStrictnessDisqualifies(t *testing.T) {
	engine := NewEngine(nil, nil)
	catalog := toCatalog([]*store.Entry{
		{ID: "jazz", Genres: []string{"jazz"}, Vector: feature.Vector{1, 0, 0}},
	})

	result, err := engine.Recommend(context.Background(),
		feature.Vector{1, 0, 0}, []string{"rock"},
		catalog, identityStd(3),
		Options{K: 1, Strictness: 3})
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, 0.0, result.Recommendations[0].FinalScore)
}

func TestRecommendEmptyCatalog(t *testing.T) {
	engine := NewEngine(nil, nil)

	result, err := engine.Recommend(context.Background(),
		feature.Vector{1, 0, 0}, nil,
		&store.Catalog{}, identityStd(3),
		Options{K: 5})
	require.NoError(t, err)
	assert.Empty(t, result.Recommendations)
	assert.Equal(t, ReasonEmptyCatalog, result.ReasonCode)
}

func TestRecommendRejectsNonPositiveK(t *testing.T) {
	engine := NewEngine(nil, nil)
	_, err := engine.Recommend(context.Background(),
		feature.Vector{1, 0, 0}, nil, toyCatalog(), identityStd(3), Options{K: 0})
	assert.Error(t, err)
}

func TestRecommendWithoutStandardizer(t *testing.T) {
	engine := NewEngine(nil, nil)
	_, err := engine.Recommend(context.Background(),
		feature.Vector{1, 0, 0}, nil, toyCatalog(), nil, Options{K: 1})
	require.ErrorIs(t, err, standardize.ErrStandardizerUnavailable)
}

func TestRecommendCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(nil, nil)
	_, err := engine.Recommend(ctx,
		feature.Vector{1, 0, 0}, nil, toyCatalog(), identityStd(3), Options{K: 1})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity(feature.Vector{1, 0}, feature.Vector{2, 0}), 1e-12)
	assert.InDelta(t, 0.0, CosineSimilarity(feature.Vector{1, 0}, feature.Vector{0, 1}), 1e-12)
	assert.InDelta(t, -1.0, CosineSimilarity(feature.Vector{1, 0}, feature.Vector{-1, 0}), 1e-12)
	assert.Equal(t, 0.0, CosineSimilarity(feature.Vector{0, 0}, feature.Vector{1, 0}))
}
