package extractor

import (
	"math"
)

const (
	chromaBins    = 12
	chromaMinFreq = 80.0
	chromaMaxFreq = 8000.0
)

// computeChroma maps a magnitude spectrogram to a 12-bin chromagram by
// folding frequency bins onto pitch classes. Computed from the harmonic
// component so percussive noise does not pollute the tonal profile.
func computeChroma(sg *Spectrogram) [][]float64 {
	freqs := sg.FrequencyBins()
	chroma := make([][]float64, sg.TimeFrames)

	for t := 0; t < sg.TimeFrames; t++ {
		chroma[t] = make([]float64, chromaBins)
		magnitude := sg.Magnitude[t]

		for f, mag := range magnitude {
			freq := freqs[f]
			if freq < chromaMinFreq || freq > chromaMaxFreq {
				continue
			}

			// MIDI note = 12*log2(freq/440) + 69; pitch class is mod 12
			midiNote := 12*math.Log2(freq/440.0) + 69
			pitchClass := int(math.Round(midiNote)) % chromaBins
			if pitchClass < 0 {
				pitchClass += chromaBins
			}
			chroma[t][pitchClass] += mag
		}

		normalizeFrame(chroma[t])
	}

	return chroma
}

// normalizeFrame scales a chroma frame so its peak is 1
func normalizeFrame(frame []float64) {
	maxVal := 0.0
	for _, v := range frame {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal > 0 {
		for i := range frame {
			frame[i] /= maxVal
		}
	}
}

// dominantPitchClass returns the pitch class with the highest total energy
// across all frames
func dominantPitchClass(chroma [][]float64) int {
	totals := make([]float64, chromaBins)
	for _, frame := range chroma {
		for i, v := range frame {
			totals[i] += v
		}
	}
	best := 0
	for i := 1; i < len(totals); i++ {
		if totals[i] > totals[best] {
			best = i
		}
	}
	return best
}

// rotateChroma rotates every frame so that the given pitch class lands on
// index 0. Aligning to the most energetic pitch class makes the tonal
// blocks invariant to the song's absolute key: two performances of the same
// song in different keys map close together.
func rotateChroma(chroma [][]float64, pitchClass int) [][]float64 {
	rotated := make([][]float64, len(chroma))
	for t, frame := range chroma {
		rotated[t] = make([]float64, chromaBins)
		for i := range frame {
			rotated[t][i] = frame[(i+pitchClass)%chromaBins]
		}
	}
	return rotated
}

// tonalIntervalVector summarizes a mean chroma profile by the magnitudes of
// its first harmonics (a 12-point DFT). Interval content survives rotation,
// so this block captures "which intervals" independent of "which key".
func tonalIntervalVector(meanChroma []float64, coefficients int) []float64 {
	out := make([]float64, coefficients)
	n := float64(len(meanChroma))
	for k := 1; k <= coefficients; k++ {
		re, im := 0.0, 0.0
		for i, v := range meanChroma {
			angle := -2 * math.Pi * float64(k) * float64(i) / n
			re += v * math.Cos(angle)
			im += v * math.Sin(angle)
		}
		out[k-1] = math.Hypot(re, im) / n
	}
	return out
}
