package extractor

import "sort"

// Harmonic/percussive separation by median filtering. Harmonic content is
// sustained across time (horizontal ridges in the spectrogram), percussive
// content is broadband and transient (vertical ridges). Median-filtering the
// magnitude along each axis and soft-masking splits the two, which
// decorrelates "what note" from "how it's played".

const hpssMedianSpan = 17 // filter length in frames/bins, odd

// separateHarmonicPercussive splits a magnitude spectrogram into harmonic
// and percussive magnitude spectrograms of the same shape
func separateHarmonicPercussive(sg *Spectrogram) (harmonic, percussive *Spectrogram) {
	t, f := sg.TimeFrames, sg.FreqBins

	harmEnh := make([][]float64, t)
	percEnh := make([][]float64, t)

	// Harmonic enhancement: median across time per frequency bin
	column := make([]float64, t)
	harmCols := make([][]float64, f)
	for bin := 0; bin < f; bin++ {
		for frame := 0; frame < t; frame++ {
			column[frame] = sg.Magnitude[frame][bin]
		}
		harmCols[bin] = medianFilter(column, hpssMedianSpan)
	}

	// Percussive enhancement: median across frequency per time frame
	for frame := 0; frame < t; frame++ {
		percEnh[frame] = medianFilter(sg.Magnitude[frame], hpssMedianSpan)
		harmEnh[frame] = make([]float64, f)
		for bin := 0; bin < f; bin++ {
			harmEnh[frame][bin] = harmCols[bin][frame]
		}
	}

	harmMag := make([][]float64, t)
	percMag := make([][]float64, t)

	// Soft masks from the enhanced magnitudes (Wiener-style, power 2)
	for frame := 0; frame < t; frame++ {
		harmMag[frame] = make([]float64, f)
		percMag[frame] = make([]float64, f)
		for bin := 0; bin < f; bin++ {
			h := harmEnh[frame][bin] * harmEnh[frame][bin]
			p := percEnh[frame][bin] * percEnh[frame][bin]
			total := h + p
			if total <= 0 {
				continue
			}
			mag := sg.Magnitude[frame][bin]
			harmMag[frame][bin] = mag * h / total
			percMag[frame][bin] = mag * p / total
		}
	}

	harmonic = &Spectrogram{
		Magnitude: harmMag, TimeFrames: t, FreqBins: f,
		SampleRate: sg.SampleRate, WindowSize: sg.WindowSize, HopSize: sg.HopSize,
		FreqResolution: sg.FreqResolution, TimeResolution: sg.TimeResolution,
	}
	percussive = &Spectrogram{
		Magnitude: percMag, TimeFrames: t, FreqBins: f,
		SampleRate: sg.SampleRate, WindowSize: sg.WindowSize, HopSize: sg.HopSize,
		FreqResolution: sg.FreqResolution, TimeResolution: sg.TimeResolution,
	}
	return harmonic, percussive
}

// medianFilter applies a running median of the given odd span, edges padded
// by reflection
func medianFilter(x []float64, span int) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if span > n {
		span = n | 1 // keep it odd
		if span > n {
			span = n
		}
	}
	half := span / 2
	buf := make([]float64, 0, span)

	for i := 0; i < n; i++ {
		buf = buf[:0]
		for j := i - half; j <= i+half; j++ {
			k := j
			if k < 0 {
				k = -k
			}
			if k >= n {
				k = 2*(n-1) - k
			}
			if k < 0 {
				k = 0
			}
			buf = append(buf, x[k])
		}
		sort.Float64s(buf)
		out[i] = buf[len(buf)/2]
	}
	return out
}
