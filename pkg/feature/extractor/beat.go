package extractor

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	minBPM = 60.0
	maxBPM = 180.0
)

// onsetEnvelope computes a half-wave rectified spectral flux curve from the
// percussive spectrogram. Energy increases mark note onsets.
func onsetEnvelope(sg *Spectrogram) []float64 {
	if sg.TimeFrames < 2 {
		return nil
	}

	envelope := make([]float64, sg.TimeFrames-1)
	for t := 1; t < sg.TimeFrames; t++ {
		sum := 0.0
		for f := 0; f < sg.FreqBins; f++ {
			diff := sg.Magnitude[t][f] - sg.Magnitude[t-1][f]
			if diff > 0 {
				sum += diff
			}
		}
		envelope[t-1] = sum
	}

	// Remove the running mean so sustained loudness does not read as onsets
	mean := stat.Mean(envelope, nil)
	for i := range envelope {
		envelope[i] -= mean
		if envelope[i] < 0 {
			envelope[i] = 0
		}
	}

	return envelope
}

// estimateTempo estimates BPM from the autocorrelation of an onset envelope.
// Returns 0 when no periodicity in the plausible range stands out.
func estimateTempo(envelope []float64, frameRate float64) float64 {
	if len(envelope) == 0 || frameRate <= 0 {
		return 0
	}

	minLag := int(frameRate * 60.0 / maxBPM)
	maxLag := int(frameRate * 60.0 / minBPM)
	if maxLag >= len(envelope) {
		maxLag = len(envelope) - 1
	}
	if minLag < 1 || minLag >= maxLag {
		return 0
	}

	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		corr := 0.0
		for i := 0; i+lag < len(envelope); i++ {
			corr += envelope[i] * envelope[i+lag]
		}
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	if bestLag == 0 || bestCorr <= 0 {
		return 0
	}
	return 60.0 * frameRate / float64(bestLag)
}

// localTempi estimates tempo over sliding windows of the onset envelope.
// The spread of local estimates captures tempo drift, which is itself a
// discriminative feature.
func localTempi(envelope []float64, frameRate float64, windowSec, hopSec float64) []float64 {
	windowFrames := int(windowSec * frameRate)
	hopFrames := int(hopSec * frameRate)
	if windowFrames <= 0 || hopFrames <= 0 {
		return nil
	}

	var tempi []float64
	for start := 0; start+windowFrames <= len(envelope); start += hopFrames {
		bpm := estimateTempo(envelope[start:start+windowFrames], frameRate)
		if bpm > 0 {
			tempi = append(tempi, bpm)
		}
	}

	if len(tempi) == 0 {
		if bpm := estimateTempo(envelope, frameRate); bpm > 0 {
			tempi = append(tempi, bpm)
		}
	}

	return tempi
}

// tempoSummary reduces local tempo estimates to a central tendency and a
// dispersion statistic
func tempoSummary(tempi []float64) (median, spread float64) {
	if len(tempi) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), tempi...)
	sort.Float64s(sorted)
	median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if len(sorted) > 1 {
		spread = stat.StdDev(sorted, nil)
	}
	return median, spread
}

// beatBoundaries picks onset peaks near the beat period as frame indices.
// Returns nil when the tempo is unknown.
func beatBoundaries(envelope []float64, frameRate, bpm float64) []int {
	if bpm <= 0 || len(envelope) == 0 {
		return nil
	}

	period := frameRate * 60.0 / bpm
	halfWin := int(period / 2)
	if halfWin < 1 {
		halfWin = 1
	}

	var beats []int
	pos := 0.0
	for int(pos) < len(envelope) {
		// Snap each grid position to the strongest onset nearby
		center := int(pos)
		lo := center - halfWin
		hi := center + halfWin
		if lo < 0 {
			lo = 0
		}
		if hi >= len(envelope) {
			hi = len(envelope) - 1
		}

		best := center
		for i := lo; i <= hi; i++ {
			if envelope[i] > envelope[best] {
				best = i
			}
		}

		if len(beats) == 0 || best > beats[len(beats)-1] {
			beats = append(beats, best)
		}
		pos += period
	}

	return beats
}

// beatSyncStats aggregates per-frame feature rows to fixed-size mean and
// variance vectors. When at least two beat boundaries are available the
// frames are first grouped per beat and averaged, so the statistics describe
// beat-level content rather than raw frames; otherwise it falls back to
// global per-frame statistics.
func beatSyncStats(frames [][]float64, beats []int) (mean, variance []float64) {
	if len(frames) == 0 {
		return nil, nil
	}

	groups := frames
	if len(beats) >= 2 {
		grouped := make([][]float64, 0, len(beats)-1)
		for b := 1; b < len(beats); b++ {
			lo, hi := beats[b-1], beats[b]
			if hi > len(frames) {
				hi = len(frames)
			}
			if hi-lo < 1 {
				continue
			}
			grouped = append(grouped, meanOfRows(frames[lo:hi]))
		}
		if len(grouped) >= 2 {
			groups = grouped
		}
	}

	return columnStats(groups)
}

// meanOfRows averages rows element-wise
func meanOfRows(rows [][]float64) []float64 {
	out := make([]float64, len(rows[0]))
	for _, row := range rows {
		for i, v := range row {
			out[i] += v
		}
	}
	for i := range out {
		out[i] /= float64(len(rows))
	}
	return out
}

// columnStats computes per-column mean and (population) variance
func columnStats(rows [][]float64) (mean, variance []float64) {
	if len(rows) == 0 {
		return nil, nil
	}
	dims := len(rows[0])
	mean = make([]float64, dims)
	variance = make([]float64, dims)

	for _, row := range rows {
		for i, v := range row {
			mean[i] += v
		}
	}
	n := float64(len(rows))
	for i := range mean {
		mean[i] /= n
	}
	for _, row := range rows {
		for i, v := range row {
			d := v - mean[i]
			variance[i] += d * d
		}
	}
	for i := range variance {
		variance[i] /= n
	}

	return mean, variance
}

// scalarStats computes mean and variance of a scalar series
func scalarStats(values []float64) (mean, variance float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean = stat.Mean(values, nil)
	if len(values) > 1 {
		variance = stat.Variance(values, nil)
	}
	if math.IsNaN(variance) {
		variance = 0
	}
	return mean, variance
}
