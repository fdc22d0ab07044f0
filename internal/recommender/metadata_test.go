package recommender

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver scripts one provider in the cascade
type stubResolver struct {
	name  string
	meta  TrackMetadata
	err   error
	calls int
}

func (s *stubResolver) Name() string { return s.name }

func (s *stubResolver) Resolve(_ context.Context, _ []float64, _ int) (TrackMetadata, error) {
	s.calls++
	return s.meta, s.err
}

func TestResolverChainShortCircuitsOnFirstHit(t *testing.T) {
	first := &stubResolver{name: "fingerprint", meta: TrackMetadata{Found: true, Title: "Song", Confidence: 0.9}}
	second := &stubResolver{name: "tags", meta: TrackMetadata{Found: true, Title: "Other"}}

	chain := NewResolverChain(first, second)
	meta, err := chain.Resolve(context.Background(), nil, 0)
	require.NoError(t, err)

	assert.True(t, meta.Found)
	assert.Equal(t, "Song", meta.Title)
	assert.Equal(t, "fingerprint", meta.Source)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestResolverChainContinuesPastFailures(t *testing.T) {
	first := &stubResolver{name: "fingerprint", err: errors.New("service down")}
	second := &stubResolver{name: "tags", meta: TrackMetadata{Found: true, Title: "Song"}}

	chain := NewResolverChain(first, second)
	meta, err := chain.Resolve(context.Background(), nil, 0)
	require.NoError(t, err)

	assert.True(t, meta.Found)
	assert.Equal(t, "tags", meta.Source)
}

func TestResolverChainAllMiss(t *testing.T) {
	chain := NewResolverChain(
		&stubResolver{name: "fingerprint"},
		&stubResolver{name: "tags"},
	)

	meta, err := chain.Resolve(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.False(t, meta.Found)
}

func TestResolverChainAllFail(t *testing.T) {
	lastErr := errors.New("also down")
	chain := NewResolverChain(
		&stubResolver{name: "fingerprint", err: errors.New("down")},
		&stubResolver{name: "tags", err: lastErr},
	)

	_, err := chain.Resolve(context.Background(), nil, 0)
	require.ErrorIs(t, err, lastErr)
}

func TestResolverChainMixedFailureAndMiss(t *testing.T) {
	chain := NewResolverChain(
		&stubResolver{name: "fingerprint", err: errors.New("down")},
		&stubResolver{name: "tags"},
	)

	// A provider that answered not-found means the chain itself did not fail
	meta, err := chain.Resolve(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.False(t, meta.Found)
}

func TestResolverChainCanceledContext(t *testing.T) {
	resolver := &stubResolver{name: "fingerprint", meta: TrackMetadata{Found: true}}
	chain := NewResolverChain(resolver)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chain.Resolve(ctx, nil, 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, resolver.calls)
}

func TestResolverChainEmpty(t *testing.T) {
	meta, err := NewResolverChain().Resolve(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.False(t, meta.Found)
}
