package recommender

import (
	"context"

	"github.com/soundalike/soundalike/pkg/logging"
)

// TrackMetadata is the narrow struct of fields the engine actually
// consumes from metadata recognition. External providers return arbitrary
// nested payloads; they are reduced to this shape at the boundary.
type TrackMetadata struct {
	Found      bool
	Title      string
	Artist     string
	Album      string
	Genres     []string
	Confidence float64
	Source     string
}

// MetadataResolver is one provider in the recognition cascade. A resolver
// reports not-found by returning Found=false with a nil error; errors are
// reserved for provider failures.
type MetadataResolver interface {
	Name() string
	Resolve(ctx context.Context, audio []float64, sampleRate int) (TrackMetadata, error)
}

// ResolverChain runs an ordered list of providers, short-circuiting on the
// first hit. Provider errors are logged and the cascade continues; the
// chain only fails when every provider fails.
type ResolverChain struct {
	resolvers []MetadataResolver
	logger    logging.Logger
}

// NewResolverChain builds a cascade in invocation order, typically
// fingerprint match, then tag lookup, then catalog search
func NewResolverChain(resolvers ...MetadataResolver) *ResolverChain {
	return &ResolverChain{
		resolvers: resolvers,
		logger: logging.WithFields(logging.Fields{
			"component": "metadata_resolver_chain",
		}),
	}
}

// Resolve returns the first provider hit, or Found=false when all
// providers miss
func (c *ResolverChain) Resolve(ctx context.Context, audio []float64, sampleRate int) (TrackMetadata, error) {
	var lastErr error
	failures := 0

	for _, r := range c.resolvers {
		if err := ctx.Err(); err != nil {
			return TrackMetadata{}, err
		}

		meta, err := r.Resolve(ctx, audio, sampleRate)
		if err != nil {
			c.logger.Warn("metadata provider failed, trying next", logging.Fields{
				"provider": r.Name(),
				"error":    err.Error(),
			})
			lastErr = err
			failures++
			continue
		}
		if meta.Found {
			meta.Source = r.Name()
			return meta, nil
		}
	}

	if failures > 0 && failures == len(c.resolvers) {
		return TrackMetadata{}, lastErr
	}
	return TrackMetadata{Found: false}, nil
}
