// Package recommend converts raw vector similarity into a trustworthy short
// list: nearest-neighbor retrieval over the standardized catalog, exclusion
// of the query's own entry, and genre-compatibility re-ranking.
package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/soundalike/soundalike/pkg/feature"
	"github.com/soundalike/soundalike/pkg/genre"
	"github.com/soundalike/soundalike/pkg/logging"
	"github.com/soundalike/soundalike/pkg/standardize"
	"github.com/soundalike/soundalike/pkg/store"
)

// ReasonEmptyCatalog marks a result that is empty because there was nothing
// to compare against, as opposed to a query with no close matches
const ReasonEmptyCatalog = "empty_catalog"

// oversampleMargin is how many candidates beyond k are retrieved before
// exclusion and re-ranking, so dropping the query's own row cannot
// under-fill the final top-k
const oversampleMargin = 5

// Options control a single recommendation call
type Options struct {
	K          int
	ExcludeID  string
	Strictness int
	ShadowMode bool
	Weights    map[string]float64
}

// Recommendation is one ephemeral per-query candidate; never persisted
type Recommendation struct {
	Entry      *store.Entry `json:"entry"`
	Similarity float64      `json:"similarity"`
	Penalty    float64      `json:"penalty"`
	FinalScore float64      `json:"final_score"`
	Reasons    []string     `json:"reasons"`
	Rank       int          `json:"rank"`
}

// Result is the ordered recommendation list plus a reason code for empty
// results
type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
	ReasonCode      string           `json:"reason_code,omitempty"`
}

// Engine ranks catalog candidates against a query vector. It is stateless
// between calls: every Recommend is a pure function of the query, the
// catalog snapshot, the standardizer and the configuration.
type Engine struct {
	canonicalizer *genre.Canonicalizer
	penaltyConfig *genre.PenaltyConfig
	logger        logging.Logger
}

// NewEngine creates a recommendation engine
func NewEngine(canonicalizer *genre.Canonicalizer, penaltyConfig *genre.PenaltyConfig) *Engine {
	if canonicalizer == nil {
		canonicalizer = genre.NewCanonicalizer(nil)
	}
	if penaltyConfig == nil {
		penaltyConfig = genre.DefaultPenaltyConfig()
	}
	return &Engine{
		canonicalizer: canonicalizer,
		penaltyConfig: penaltyConfig,
		logger: logging.WithFields(logging.Fields{
			"component": "recommend_engine",
		}),
	}
}

// Recommend returns at most opts.K candidates nearest to the query,
// re-ranked by genre compatibility. An empty catalog yields an empty result
// with ReasonEmptyCatalog, never an error.
func (e *Engine) Recommend(
	ctx context.Context,
	query feature.Vector,
	queryGenres []string,
	catalog *store.Catalog,
	std *standardize.Standardizer,
	opts Options,
) (*Result, error) {
	if opts.K <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", opts.K)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if catalog == nil || catalog.Len() == 0 {
		return &Result{ReasonCode: ReasonEmptyCatalog}, nil
	}
	if std == nil {
		return nil, standardize.ErrStandardizerUnavailable
	}

	stdQuery, err := std.Transform(query, opts.Weights)
	if err != nil {
		return nil, fmt.Errorf("failed to standardize query: %w", err)
	}
	stdMatrix, err := std.TransformMatrix(catalog.Matrix, opts.Weights)
	if err != nil {
		return nil, fmt.Errorf("failed to standardize catalog: %w", err)
	}

	// Similarity against every row; stable sort keeps catalog insertion
	// order on ties
	type scored struct {
		idx int
		sim float64
	}
	all := make([]scored, catalog.Len())
	for i, row := range stdMatrix {
		all[i] = scored{idx: i, sim: CosineSimilarity(stdQuery, row)}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].sim > all[j].sim
	})

	// Oversample beyond k so excluding the query's own row cannot
	// under-fill the final list
	limit := opts.K + 1 + oversampleMargin
	if limit > len(all) {
		limit = len(all)
	}

	canonQuery := e.canonicalizer.Canonicalize(queryGenres)
	candidates := make([]Recommendation, 0, limit)

	for _, s := range all[:limit] {
		entry := catalog.Entries[s.idx]
		if opts.ExcludeID != "" && entry.ID == opts.ExcludeID {
			continue
		}

		canonCandidate := e.canonicalizer.Canonicalize(entry.Genres)
		penalty, reasons := genre.Penalty(canonQuery, canonCandidate, e.penaltyConfig, opts.Strictness)

		final := s.sim - penalty
		if final < 0 {
			final = 0
		}

		candidates = append(candidates, Recommendation{
			Entry:      entry,
			Similarity: s.sim,
			Penalty:    penalty,
			FinalScore: final,
			Reasons:    reasons,
		})
	}

	// Shadow mode reports penalties without letting them affect the order
	sort.SliceStable(candidates, func(i, j int) bool {
		if opts.ShadowMode {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].FinalScore > candidates[j].FinalScore
	})

	if len(candidates) > opts.K {
		candidates = candidates[:opts.K]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	e.logger.Debug("recommendation computed", logging.Fields{
		"catalog_size": catalog.Len(),
		"k":            opts.K,
		"returned":     len(candidates),
		"strictness":   opts.Strictness,
		"shadow_mode":  opts.ShadowMode,
	})

	return &Result{Recommendations: candidates}, nil
}
