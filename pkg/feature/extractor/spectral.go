package extractor

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/soundalike/soundalike/pkg/feature"
	"github.com/soundalike/soundalike/pkg/logging"
)

// SpectralAnalyzer provides STFT and per-frame spectral descriptors
type SpectralAnalyzer struct {
	windowSize int
	hopSize    int
	sampleRate int
	logger     logging.Logger
}

// Spectrogram holds the magnitude result of STFT analysis
type Spectrogram struct {
	Magnitude      [][]float64 // time x frequency
	TimeFrames     int
	FreqBins       int
	SampleRate     int
	WindowSize     int
	HopSize        int
	FreqResolution float64 // Hz per bin
	TimeResolution float64 // seconds per frame
}

// NewSpectralAnalyzer creates a spectral analyzer
func NewSpectralAnalyzer(windowSize, hopSize, sampleRate int) *SpectralAnalyzer {
	return &SpectralAnalyzer{
		windowSize: windowSize,
		hopSize:    hopSize,
		sampleRate: sampleRate,
		logger: logging.WithFields(logging.Fields{
			"component":   "spectral_analyzer",
			"window_size": windowSize,
			"hop_size":    hopSize,
		}),
	}
}

// ComputeSTFT computes the magnitude spectrogram of a signal
func (sa *SpectralAnalyzer) ComputeSTFT(signal []float64) (*Spectrogram, error) {
	if len(signal) < sa.windowSize {
		return nil, feature.NewExtractionError("stft", "signal shorter than analysis window", nil)
	}

	numFrames := (len(signal)-sa.windowSize)/sa.hopSize + 1
	freqBins := sa.windowSize/2 + 1
	win := window.Hann(sa.windowSize)

	magnitude := make([][]float64, numFrames)
	frame := make([]float64, sa.windowSize)

	for t := 0; t < numFrames; t++ {
		start := t * sa.hopSize
		for i := 0; i < sa.windowSize; i++ {
			frame[i] = signal[start+i] * win[i]
		}

		spectrum := fft.FFTReal(frame)

		magnitude[t] = make([]float64, freqBins)
		for f := 0; f < freqBins; f++ {
			magnitude[t][f] = cmplx.Abs(spectrum[f])
		}
	}

	sg := &Spectrogram{
		Magnitude:      magnitude,
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     sa.sampleRate,
		WindowSize:     sa.windowSize,
		HopSize:        sa.hopSize,
		FreqResolution: float64(sa.sampleRate) / float64(sa.windowSize),
		TimeResolution: float64(sa.hopSize) / float64(sa.sampleRate),
	}

	sa.logger.Debug("STFT computed", logging.Fields{
		"time_frames": sg.TimeFrames,
		"freq_bins":   sg.FreqBins,
	})

	return sg, nil
}

// FrequencyBins returns the center frequency of every FFT bin
func (sg *Spectrogram) FrequencyBins() []float64 {
	freqs := make([]float64, sg.FreqBins)
	for i := range freqs {
		freqs[i] = float64(i) * sg.FreqResolution
	}
	return freqs
}

// spectralCentroid computes the magnitude-weighted mean frequency
func spectralCentroid(magnitude, freqs []float64) float64 {
	weighted := 0.0
	total := 0.0
	for i, mag := range magnitude {
		weighted += freqs[i] * mag
		total += mag
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// spectralBandwidth computes the spread around the centroid
func spectralBandwidth(magnitude, freqs []float64, centroid float64) float64 {
	weighted := 0.0
	total := 0.0
	for i, mag := range magnitude {
		diff := freqs[i] - centroid
		weighted += diff * diff * mag
		total += mag
	}
	if total == 0 {
		return 0
	}
	return math.Sqrt(weighted / total)
}

// spectralRolloff returns the frequency below which the given fraction of
// spectral energy lies
func spectralRolloff(magnitude, freqs []float64, threshold float64) float64 {
	totalEnergy := 0.0
	for _, mag := range magnitude {
		totalEnergy += mag * mag
	}
	if totalEnergy == 0 {
		return 0
	}

	target := threshold * totalEnergy
	cumulative := 0.0
	for i, mag := range magnitude {
		cumulative += mag * mag
		if cumulative >= target {
			return freqs[i]
		}
	}
	return freqs[len(freqs)-1]
}

// zeroCrossingRate computes the fraction of sign changes in a signal frame
func zeroCrossingRate(pcm []float64) float64 {
	if len(pcm) <= 1 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(pcm); i++ {
		if (pcm[i-1] >= 0 && pcm[i] < 0) || (pcm[i-1] < 0 && pcm[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(pcm)-1)
}

// spectralContrast computes per-band peak-to-valley contrast in log
// magnitude across the given number of octave-spaced bands
func spectralContrast(magnitude []float64, numBands int) []float64 {
	contrast := make([]float64, numBands)
	if len(magnitude) < numBands*2 {
		return contrast
	}

	// Octave-style band edges: each band covers twice the bins of the
	// previous one, anchored at the low end of the spectrum.
	edges := make([]int, numBands+1)
	edges[0] = 1 // skip DC
	span := len(magnitude) - 1
	for b := 1; b <= numBands; b++ {
		edges[b] = edges[0] + int(float64(span)*math.Pow(2, float64(b-numBands)))
		if edges[b] <= edges[b-1] {
			edges[b] = edges[b-1] + 1
		}
	}
	edges[numBands] = len(magnitude)

	for b := 0; b < numBands; b++ {
		lo, hi := edges[b], edges[b+1]
		if hi > len(magnitude) {
			hi = len(magnitude)
		}
		if hi-lo < 2 {
			continue
		}

		peak, valley := 0.0, math.MaxFloat64
		for i := lo; i < hi; i++ {
			if magnitude[i] > peak {
				peak = magnitude[i]
			}
			if magnitude[i] < valley {
				valley = magnitude[i]
			}
		}
		contrast[b] = math.Log1p(peak) - math.Log1p(valley)
	}

	return contrast
}
