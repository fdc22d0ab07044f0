// Package recommender wires the extractor, schema, standardizer and
// recommendation engine into one service. The fitted standardizer is the
// only shared mutable state: it lives behind a single atomically-swapped
// pointer so concurrent reads always see either the old or the new artifact,
// never a half-written one.
package recommender

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/soundalike/soundalike/pkg/feature"
	"github.com/soundalike/soundalike/pkg/feature/extractor"
	"github.com/soundalike/soundalike/pkg/logging"
	"github.com/soundalike/soundalike/pkg/recommend"
	"github.com/soundalike/soundalike/pkg/standardize"
	"github.com/soundalike/soundalike/pkg/store"
)

// ErrRecalibrationInFlight is returned when a recalibration is requested
// while another one is already running
var ErrRecalibrationInFlight = errors.New("recalibration already in flight")

// Config holds service-level settings
type Config struct {
	SchemaPath       string
	StandardizerPath string
	SampleRate       int
	MaxConcurrency   int
}

// Service owns the pipeline from decoded audio to ranked recommendations
type Service struct {
	config       Config
	extractor    *extractor.Extractor
	engine       *recommend.Engine
	store        store.Store
	stdConfig    *standardize.Config
	standardizer atomic.Pointer[standardize.Standardizer]
	recalMu      sync.Mutex
	schemaMu     sync.Mutex
	logger       logging.Logger
}

// NewService creates a service and loads any persisted standardizer
func NewService(
	config Config,
	ext *extractor.Extractor,
	engine *recommend.Engine,
	trackStore store.Store,
	stdConfig *standardize.Config,
) (*Service, error) {
	if stdConfig == nil {
		stdConfig = standardize.DefaultConfig()
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = runtime.GOMAXPROCS(0)
	}

	s := &Service{
		config:    config,
		extractor: ext,
		engine:    engine,
		store:     trackStore,
		stdConfig: stdConfig,
		logger: logging.WithFields(logging.Fields{
			"component": "recommender_service",
		}),
	}

	std, ok, err := standardize.Load(config.StandardizerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load standardizer: %w", err)
	}
	if ok {
		s.standardizer.Store(std)
		s.logger.Info("standardizer loaded", logging.Fields{
			"rows":      std.Rows,
			"fitted_at": std.FittedAt,
		})
	}

	return s, nil
}

// TrackMeta is the catalog metadata accompanying one ingested track
type TrackMeta struct {
	Title  string
	Artist string
	Genres []string
	Ref    string
}

// IngestTrack extracts a fingerprint from decoded audio, validates it
// against the persisted schema and appends it to the catalog. Schema and
// extraction failures are local to the track.
func (s *Service) IngestTrack(ctx context.Context, signal []float64, sampleRate int, meta TrackMeta) (*store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec, blocks, err := s.extractor.Extract(signal, sampleRate)
	if err != nil {
		return nil, err
	}

	schema, err := s.ensureSchema(blocks)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(vec, blocks); err != nil {
		return nil, err
	}

	entry := &store.Entry{
		Title:  meta.Title,
		Artist: meta.Artist,
		Genres: meta.Genres,
		Ref:    meta.Ref,
		Vector: vec,
	}
	if err := s.store.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append track: %w", err)
	}

	s.logger.Info("track ingested", logging.Fields{
		"id":     entry.ID,
		"title":  meta.Title,
		"artist": meta.Artist,
	})
	return entry, nil
}

// ensureSchema loads the persisted schema, bootstrapping it from the first
// observed block layout when absent (write-once)
func (s *Service) ensureSchema(blocks []feature.Block) (*feature.Schema, error) {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	return feature.SaveIfAbsent(s.config.SchemaPath, blocks)
}

// BatchItem is one unit of a bulk ingestion
type BatchItem struct {
	Signal     []float64
	SampleRate int
	Meta       TrackMeta
}

// BatchResult reports the per-item outcome of a bulk ingestion
type BatchResult struct {
	Entry *store.Entry
	Err   error
}

// IngestBatch ingests many tracks on a worker pool sized to available
// cores. Extraction and schema failures are reported per item and never
// abort the rest of the batch.
func (s *Service) IngestBatch(ctx context.Context, items []BatchItem) []BatchResult {
	results := make([]BatchResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrency)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			entry, err := s.IngestTrack(gctx, item.Signal, item.SampleRate, item.Meta)
			results[i] = BatchResult{Entry: entry, Err: err}
			// Per-item errors are part of the report, not a batch abort
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.Info("batch ingestion finished", logging.Fields{
		"total":  len(items),
		"failed": failed,
	})

	return results
}

// Standardizer returns the currently active standardizer, or nil when none
// has been fitted yet
func (s *Service) Standardizer() *standardize.Standardizer {
	return s.standardizer.Load()
}

// Recalibrate fits a new standardizer over the full current catalog,
// persists it atomically and swaps it in. At most one recalibration runs at
// a time; a fit in progress never blocks reads against the active
// standardizer. A failed fit keeps the previous artifact.
func (s *Service) Recalibrate(ctx context.Context) (*standardize.Standardizer, error) {
	if !s.recalMu.TryLock() {
		return nil, ErrRecalibrationInFlight
	}
	defer s.recalMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	catalog, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	schema, ok, err := feature.LoadSchema(s.config.SchemaPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no schema persisted yet", standardize.ErrStandardizerUnavailable)
	}

	std, err := standardize.Fit(catalog.Matrix, schema.Blocks, s.stdConfig)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		// Cancelled mid-fit: keep the previous standardizer
		return nil, err
	}

	if err := std.Save(s.config.StandardizerPath); err != nil {
		return nil, err
	}
	s.standardizer.Store(std)

	s.logger.Info("standardizer recalibrated", logging.Fields{
		"rows": std.Rows,
	})
	return std, nil
}

// RecommendOptions extends engine options with the query source
type RecommendOptions struct {
	K          int
	ExcludeID  string
	Strictness int
	ShadowMode bool
	Weights    map[string]float64
}

// RecommendByID recommends tracks similar to a track already in the
// catalog, excluding the track itself
func (s *Service) RecommendByID(ctx context.Context, trackID string, opts RecommendOptions) (*recommend.Result, error) {
	entry, err := s.store.Get(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if opts.ExcludeID == "" {
		opts.ExcludeID = trackID
	}
	return s.recommendVector(ctx, entry.Vector, entry.Genres, opts)
}

// RecommendByAudio extracts a fingerprint from decoded audio and recommends
// similar catalog tracks. Genre tags come from the metadata recognition
// collaborator when available.
func (s *Service) RecommendByAudio(ctx context.Context, signal []float64, sampleRate int, genres []string, opts RecommendOptions) (*recommend.Result, error) {
	vec, blocks, err := s.extractor.Extract(signal, sampleRate)
	if err != nil {
		return nil, err
	}

	schema, ok, err := feature.LoadSchema(s.config.SchemaPath)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := schema.Validate(vec, blocks); err != nil {
			return nil, err
		}
	}

	return s.recommendVector(ctx, vec, genres, opts)
}

// recommendVector standardizes the query and delegates to the engine,
// lazily fitting the standardizer when none exists yet
func (s *Service) recommendVector(ctx context.Context, query feature.Vector, genres []string, opts RecommendOptions) (*recommend.Result, error) {
	catalog, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if catalog.Len() == 0 {
		return &recommend.Result{ReasonCode: recommend.ReasonEmptyCatalog}, nil
	}

	std := s.standardizer.Load()
	if std == nil {
		std, err = s.Recalibrate(ctx)
		if errors.Is(err, ErrRecalibrationInFlight) {
			// Another caller is fitting; retry against whatever lands
			return nil, fmt.Errorf("standardizer not ready: %w", err)
		}
		if err != nil {
			return nil, err
		}
	}

	return s.engine.Recommend(ctx, query, genres, catalog, std, recommend.Options{
		K:          opts.K,
		ExcludeID:  opts.ExcludeID,
		Strictness: opts.Strictness,
		ShadowMode: opts.ShadowMode,
		Weights:    opts.Weights,
	})
}
