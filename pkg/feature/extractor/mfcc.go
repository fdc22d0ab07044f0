package extractor

import "math"

const (
	numMelFilters = 26
	melMinFreq    = 80.0
	logFloor      = 1e-10
)

// computeMFCC converts a magnitude spectrogram into per-frame mel-frequency
// cepstral coefficients
func computeMFCC(sg *Spectrogram, numCoeffs int) [][]float64 {
	filters := melFilterBank(numMelFilters, melMinFreq, float64(sg.SampleRate)/2, sg.FreqBins, sg.FreqResolution)

	mfcc := make([][]float64, sg.TimeFrames)
	logMel := make([]float64, numMelFilters)

	for t := 0; t < sg.TimeFrames; t++ {
		magnitude := sg.Magnitude[t]

		for m, filter := range filters {
			energy := 0.0
			for f, w := range filter {
				if w > 0 {
					energy += magnitude[f] * magnitude[f] * w
				}
			}
			if energy < logFloor {
				energy = logFloor
			}
			logMel[m] = math.Log(energy)
		}

		mfcc[t] = dct(logMel, numCoeffs)
	}

	return mfcc
}

// melFilterBank builds triangular filters spaced evenly on the mel scale
func melFilterBank(numFilters int, minFreq, maxFreq float64, freqBins int, freqResolution float64) [][]float64 {
	melMin := hzToMel(minFreq)
	melMax := hzToMel(maxFreq)

	// Filter edge frequencies: numFilters triangles need numFilters+2 points
	edges := make([]float64, numFilters+2)
	for i := range edges {
		mel := melMin + (melMax-melMin)*float64(i)/float64(numFilters+1)
		edges[i] = melToHz(mel)
	}

	filters := make([][]float64, numFilters)
	for m := 0; m < numFilters; m++ {
		filters[m] = make([]float64, freqBins)
		lower, center, upper := edges[m], edges[m+1], edges[m+2]

		for f := 0; f < freqBins; f++ {
			freq := float64(f) * freqResolution
			switch {
			case freq <= lower || freq >= upper:
				// outside the triangle
			case freq <= center:
				filters[m][f] = (freq - lower) / (center - lower)
			default:
				filters[m][f] = (upper - freq) / (upper - center)
			}
		}
	}

	return filters
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// dct applies a type-II discrete cosine transform keeping numCoeffs outputs
func dct(input []float64, numCoeffs int) []float64 {
	n := len(input)
	out := make([]float64, numCoeffs)
	for k := 0; k < numCoeffs; k++ {
		sum := 0.0
		for i, v := range input {
			sum += v * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/float64(n))
		}
		out[k] = sum
	}
	return out
}

// deltas computes first differences of a frame sequence. Applying it twice
// yields the second differences.
func deltas(frames [][]float64) [][]float64 {
	if len(frames) < 2 {
		return nil
	}
	out := make([][]float64, len(frames)-1)
	for t := 1; t < len(frames); t++ {
		row := make([]float64, len(frames[t]))
		for i := range row {
			row[i] = frames[t][i] - frames[t-1][i]
		}
		out[t-1] = row
	}
	return out
}
