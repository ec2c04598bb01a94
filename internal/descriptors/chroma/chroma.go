// Package chroma computes the 12-bin chroma descriptor: a tuning-aware
// STFT filterbank projecting magnitude spectra onto pitch classes, mean-
// pooled across frames. Built on gonum.org/v1/gonum/dsp/fourier, the same
// FFT library farcloser/haustorium uses for its own spectral analysis.
package chroma

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/descriptors/norm"
)

const (
	fftSize = 8192
	hopSize = 2205

	binsPerOctave = 12

	// tuningPeakThreshold is the fraction of the averaged spectrum's peak
	// magnitude a bin must exceed to contribute to tuning estimation.
	tuningPeakThreshold = 0.01

	refA4Freq = 440.0
	refA4MIDI = 69.0
)

// Descriptor accumulates samples and emits 12 normalized chroma bins at
// Finalize.
type Descriptor struct {
	sampleRate int
	samples    []float32
}

func New(sampleRate int) *Descriptor {
	return &Descriptor{sampleRate: sampleRate}
}

func (d *Descriptor) Push(chunk []float32) {
	d.samples = append(d.samples, chunk...)
}

// Finalize returns 12 bins, each normalized against [0, 1]. Fewer samples
// than one FFT window yields all-MIN (0) bins, per the documented
// silent-signal behavior.
func (d *Descriptor) Finalize() [binsPerOctave]float64 {
	var out [binsPerOctave]float64

	if len(d.samples) < fftSize {
		return out
	}

	padded := reflectPad(d.samples, fftSize/2)
	if len(padded) < fftSize {
		return out
	}

	window := hannWindow(fftSize)
	fft := fourier.NewFFT(fftSize)
	binCount := fftSize/2 + 1

	var frames [][]float64

	fftIn := make([]float64, fftSize)

	for pos := 0; pos+fftSize <= len(padded); pos += hopSize {
		for i := range fftIn {
			fftIn[i] = float64(padded[pos+i]) * window[i]
		}

		coeffs := fft.Coefficients(nil, fftIn)
		mag := make([]float64, binCount)

		for i, c := range coeffs {
			mag[i] = math.Hypot(real(c), imag(c))
		}

		frames = append(frames, mag)
	}

	if len(frames) == 0 {
		return out
	}

	tuning := estimateTuning(frames, d.sampleRate, fftSize)

	binHz := float64(d.sampleRate) / float64(fftSize)

	var sum [binsPerOctave]float64

	contributing := 0

	for _, mag := range frames {
		chroma := projectChroma(mag, binHz, tuning)
		if l2Norm(chroma[:]) < 1e-9 {
			continue
		}

		normalizeL2(chroma[:])

		for i := range sum {
			sum[i] += chroma[i]
		}

		contributing++
	}

	if contributing == 0 {
		return out
	}

	for i := range out {
		out[i] = norm.Normalize(sum[i]/float64(contributing), 0, 1)
	}

	return out
}

// projectChroma assigns each FFT bin's magnitude to the pitch class
// nearest its tuning-corrected MIDI number.
func projectChroma(mag []float64, binHz, tuning float64) [binsPerOctave]float64 {
	var chroma [binsPerOctave]float64

	for i := 1; i < len(mag); i++ { // skip DC
		freq := float64(i) * binHz
		if freq <= 0 {
			continue
		}

		midi := refA4MIDI + binsPerOctave*math.Log2(freq/refA4Freq) - tuning
		pitchClass := int(math.Round(midi)) % binsPerOctave

		if pitchClass < 0 {
			pitchClass += binsPerOctave
		}

		chroma[pitchClass] += mag[i]
	}

	return chroma
}

// estimateTuning finds spectral peaks across the averaged magnitude
// spectrum and returns the mean semitone deviation from equal temperament,
// mirroring librosa's pip_track-based tuning estimation.
func estimateTuning(frames [][]float64, sampleRate, fftSizeUsed int) float64 {
	binCount := len(frames[0])
	avg := make([]float64, binCount)

	for _, mag := range frames {
		for i, m := range mag {
			avg[i] += m
		}
	}

	for i := range avg {
		avg[i] /= float64(len(frames))
	}

	maxMag := 0.0
	for _, m := range avg {
		if m > maxMag {
			maxMag = m
		}
	}

	if maxMag <= 0 {
		return 0
	}

	binHz := float64(sampleRate) / float64(fftSizeUsed)
	threshold := maxMag * tuningPeakThreshold

	var weightedSum, weightTotal float64

	for i := 1; i < binCount-1; i++ {
		if avg[i] < threshold || avg[i] < avg[i-1] || avg[i] < avg[i+1] {
			continue
		}

		freq := float64(i) * binHz
		if freq <= 0 {
			continue
		}

		midi := refA4MIDI + binsPerOctave*math.Log2(freq/refA4Freq)
		deviation := midi - math.Round(midi)

		weightedSum += deviation * avg[i]
		weightTotal += avg[i]
	}

	if weightTotal == 0 {
		return 0
	}

	return weightedSum / weightTotal
}

func l2Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}

	return math.Sqrt(sum)
}

func normalizeL2(v []float64) {
	n := l2Norm(v)
	if n < 1e-9 {
		return
	}

	for i := range v {
		v[i] /= n
	}
}

func hannWindow(size int) []float64 {
	w := make([]float64, size)

	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}

	return w
}

// reflectPad centers frames on the signal by mirroring `pad` samples at
// each end, matching a centered STFT's edge handling.
func reflectPad(samples []float32, pad int) []float32 {
	if len(samples) == 0 {
		return samples
	}

	if pad > len(samples) {
		pad = len(samples)
	}

	out := make([]float32, 0, len(samples)+2*pad)

	for i := pad; i >= 1; i-- {
		out = append(out, samples[min(i, len(samples)-1)])
	}

	out = append(out, samples...)

	for i := 1; i <= pad; i++ {
		idx := len(samples) - 1 - i
		if idx < 0 {
			idx = 0
		}

		out = append(out, samples[idx])
	}

	return out
}
