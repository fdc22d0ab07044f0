// Package extractor converts one decoded audio signal into one fixed-length
// feature vector obeying the block schema. The pipeline applies musical
// invariances (loudness normalization, harmonic/percussive separation,
// canonical pitch-class rotation, beat-synchronous aggregation) so that the
// same song recorded or transposed differently still yields a close vector.
package extractor

import (
	"math"

	"github.com/soundalike/soundalike/pkg/feature"
	"github.com/soundalike/soundalike/pkg/logging"
)

// Config holds extraction parameters
type Config struct {
	WindowSize        int     `mapstructure:"window_size" yaml:"window_size"`
	HopSize           int     `mapstructure:"hop_size" yaml:"hop_size"`
	MFCCCoefficients  int     `mapstructure:"mfcc_coefficients" yaml:"mfcc_coefficients"`
	ContrastBands     int     `mapstructure:"contrast_bands" yaml:"contrast_bands"`
	TonalCoefficients int     `mapstructure:"tonal_coefficients" yaml:"tonal_coefficients"`
	MinSeconds        float64 `mapstructure:"min_seconds" yaml:"min_seconds"`
	SilenceRMS        float64 `mapstructure:"silence_rms" yaml:"silence_rms"`
	TargetRMS         float64 `mapstructure:"target_rms" yaml:"target_rms"`
	TempoWindowSec    float64 `mapstructure:"tempo_window_sec" yaml:"tempo_window_sec"`
	TempoHopSec       float64 `mapstructure:"tempo_hop_sec" yaml:"tempo_hop_sec"`
	RolloffThreshold  float64 `mapstructure:"rolloff_threshold" yaml:"rolloff_threshold"`
}

// DefaultConfig returns extraction defaults suitable for full tracks
func DefaultConfig() *Config {
	return &Config{
		WindowSize:        2048,
		HopSize:           512,
		MFCCCoefficients:  13,
		ContrastBands:     6,
		TonalCoefficients: 6,
		MinSeconds:        1.0,
		SilenceRMS:        1e-4,
		TargetRMS:         0.1,
		TempoWindowSec:    8.0,
		TempoHopSec:       4.0,
		RolloffThreshold:  0.85,
	}
}

// Extractor turns decoded PCM into a feature vector
type Extractor struct {
	config *Config
	logger logging.Logger
}

// New creates an extractor with the given configuration; nil uses defaults
func New(config *Config) *Extractor {
	if config == nil {
		config = DefaultConfig()
	}
	return &Extractor{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "feature_extractor",
		}),
	}
}

// Blocks returns the canonical block layout this extractor produces
func (e *Extractor) Blocks() []feature.Block {
	c := e.config
	return []feature.Block{
		{Name: "timbre-mean", Length: c.MFCCCoefficients},
		{Name: "timbre-var", Length: c.MFCCCoefficients},
		{Name: "timbre-d1", Length: c.MFCCCoefficients},
		{Name: "timbre-d2", Length: c.MFCCCoefficients},
		{Name: "harmony-chroma", Length: chromaBins},
		{Name: "harmony-var", Length: chromaBins},
		{Name: "harmony-ci", Length: c.TonalCoefficients},
		{Name: "contrast", Length: c.ContrastBands},
		{Name: "percussive", Length: 8},
		{Name: "tempo", Length: 2},
	}
}

// Extract converts a decoded mono signal into a fixed-length vector and the
// block layout describing it
func (e *Extractor) Extract(signal []float64, sampleRate int) (feature.Vector, []feature.Block, error) {
	logger := e.logger.WithFields(logging.Fields{
		"function":    "Extract",
		"samples":     len(signal),
		"sample_rate": sampleRate,
	})

	if sampleRate <= 0 {
		return nil, nil, feature.NewExtractionError("input", "sample rate must be positive", nil)
	}
	if len(signal) == 0 {
		return nil, nil, feature.NewExtractionError("input", "empty signal", nil)
	}
	if float64(len(signal)) < e.config.MinSeconds*float64(sampleRate) {
		return nil, nil, feature.NewExtractionError("input", "signal too short to fingerprint", nil)
	}

	// Loudness normalization keeps absolute level out of the timbral blocks
	normalized, rms := normalizeLoudness(signal, e.config.TargetRMS)
	if rms < e.config.SilenceRMS {
		return nil, nil, feature.NewExtractionError("input", "signal is effectively silent", nil)
	}

	analyzer := NewSpectralAnalyzer(e.config.WindowSize, e.config.HopSize, sampleRate)
	spectrogram, err := analyzer.ComputeSTFT(normalized)
	if err != nil {
		return nil, nil, err
	}

	harmonic, percussive := separateHarmonicPercussive(spectrogram)
	frameRate := 1.0 / spectrogram.TimeResolution

	// Beat grid from the percussive component drives aggregation
	envelope := onsetEnvelope(percussive)
	tempi := localTempi(envelope, frameRate, e.config.TempoWindowSec, e.config.TempoHopSec)
	tempoMedian, tempoSpread := tempoSummary(tempi)
	beats := beatBoundaries(envelope, frameRate, tempoMedian)

	logger.Debug("beat analysis complete", logging.Fields{
		"tempo_bpm":    tempoMedian,
		"tempo_spread": tempoSpread,
		"beats":        len(beats),
	})

	// Timbre: MFCC and differences, beat-synchronous statistics
	mfcc := computeMFCC(spectrogram, e.config.MFCCCoefficients)
	timbreMean, timbreVar := beatSyncStats(mfcc, beats)
	d1 := absRows(deltas(mfcc))
	d2 := absRows(deltas(deltas(mfcc)))
	timbreD1, _ := beatSyncStats(d1, beats)
	timbreD2, _ := beatSyncStats(d2, beats)
	timbreD1 = padTo(timbreD1, e.config.MFCCCoefficients)
	timbreD2 = padTo(timbreD2, e.config.MFCCCoefficients)

	// Harmony: chroma rotated to the canonical reference pitch class
	chroma := computeChroma(harmonic)
	rotated := rotateChroma(chroma, dominantPitchClass(chroma))
	chromaMean, chromaVar := beatSyncStats(rotated, beats)
	intervals := tonalIntervalVector(chromaMean, e.config.TonalCoefficients)

	// Harmonic contrast per band
	contrastFrames := make([][]float64, harmonic.TimeFrames)
	for t := range contrastFrames {
		contrastFrames[t] = spectralContrast(harmonic.Magnitude[t], e.config.ContrastBands)
	}
	contrastMean, _ := beatSyncStats(contrastFrames, beats)

	// Percussive texture: ZCR from the time-domain frames, spectral shape
	// from the percussive component
	percBlock := e.percussiveBlock(normalized, percussive)

	vec := feature.Concat(
		timbreMean, timbreVar, timbreD1, timbreD2,
		chromaMean, chromaVar, intervals,
		contrastMean, percBlock,
		[]float64{tempoMedian, tempoSpread},
	)

	if !vec.Finite() {
		return nil, nil, feature.NewExtractionError("assemble", "non-finite value in feature vector", nil)
	}

	blocks := e.Blocks()
	logger.Debug("extraction complete", logging.Fields{
		"vector_length": len(vec),
		"blocks":        len(blocks),
	})

	return vec, blocks, nil
}

// percussiveBlock summarizes percussive texture as mean and variance of
// zero-crossing rate, centroid, bandwidth and rolloff
func (e *Extractor) percussiveBlock(signal []float64, percussive *Spectrogram) []float64 {
	freqs := percussive.FrequencyBins()

	zcrs := make([]float64, 0, percussive.TimeFrames)
	centroids := make([]float64, 0, percussive.TimeFrames)
	bandwidths := make([]float64, 0, percussive.TimeFrames)
	rolloffs := make([]float64, 0, percussive.TimeFrames)

	for t := 0; t < percussive.TimeFrames; t++ {
		start := t * percussive.HopSize
		end := start + percussive.WindowSize
		if end > len(signal) {
			end = len(signal)
		}
		if start < end {
			zcrs = append(zcrs, zeroCrossingRate(signal[start:end]))
		}

		magnitude := percussive.Magnitude[t]
		centroid := spectralCentroid(magnitude, freqs)
		centroids = append(centroids, centroid)
		bandwidths = append(bandwidths, spectralBandwidth(magnitude, freqs, centroid))
		rolloffs = append(rolloffs, spectralRolloff(magnitude, freqs, e.config.RolloffThreshold))
	}

	zcrMean, zcrVar := scalarStats(zcrs)
	cenMean, cenVar := scalarStats(centroids)
	bwMean, bwVar := scalarStats(bandwidths)
	roMean, roVar := scalarStats(rolloffs)

	return []float64{zcrMean, zcrVar, cenMean, cenVar, bwMean, bwVar, roMean, roVar}
}

// normalizeLoudness scales the signal to the target RMS level and returns
// the original RMS for the silence check
func normalizeLoudness(signal []float64, targetRMS float64) ([]float64, float64) {
	sum := 0.0
	for _, s := range signal {
		sum += s * s
	}
	rms := math.Sqrt(sum / float64(len(signal)))
	if rms == 0 {
		return signal, 0
	}

	scale := targetRMS / rms
	out := make([]float64, len(signal))
	for i, s := range signal {
		out[i] = s * scale
	}
	return out, rms
}

// absRows maps every element to its absolute value
func absRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for t, row := range rows {
		out[t] = make([]float64, len(row))
		for i, v := range row {
			out[t][i] = math.Abs(v)
		}
	}
	return out
}

// padTo extends a slice with zeros up to length n; delta statistics can come
// up empty on very short inputs
func padTo(x []float64, n int) []float64 {
	if len(x) >= n {
		return x[:n]
	}
	out := make([]float64, n)
	copy(out, x)
	return out
}
