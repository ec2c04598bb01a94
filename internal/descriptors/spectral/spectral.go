// Package spectral computes the zero-crossing rate and the three
// magnitude-spectrum descriptors (centroid, rolloff, flatness) over a
// canonical mono signal, the way farcloser/haustorium's own
// internal/audit/spectral package computes its spectral descriptors: a
// Hann-windowed STFT built on gonum.org/v1/gonum/dsp/fourier.
package spectral

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/descriptors/norm"
)

const (
	windowSize = 512
	hopSize    = 256

	rolloffFraction = 0.85
)

// Output holds the four normalized descriptor scalars, each in [-1, 1].
type Output struct {
	ZCR      float64
	Centroid float64
	Rolloff  float64
	Flatness float64
}

// Descriptor is the stateful accumulator: Push appends chunks, Finalize
// computes the windowed spectrum and the full-signal ZCR.
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

// Finalize returns the MIN sentinel (-1) for centroid, rolloff and flatness
// if fewer samples than one window were pushed; ZCR is still computed over
// whatever samples were pushed.
func (d *Descriptor) Finalize() Output {
	zcr := zeroCrossingRate(d.samples)

	if len(d.samples) < windowSize {
		return Output{
			ZCR:      norm.Normalize(zcr, 0, 1),
			Centroid: -1,
			Rolloff:  -1,
			Flatness: -1,
		}
	}

	window := hannWindow(windowSize)
	fft := fourier.NewFFT(windowSize)
	binCount := windowSize/2 + 1

	nyquist := float64(d.sampleRate) / 2
	binHz := float64(d.sampleRate) / float64(windowSize)

	var (
		centroidSum float64
		rolloffSum  float64
		flatnessSum float64
		frames      int
	)

	fftIn := make([]float64, windowSize)

	for pos := 0; pos+windowSize <= len(d.samples); pos += hopSize {
		for i := range fftIn {
			fftIn[i] = float64(d.samples[pos+i]) * window[i]
		}

		coeffs := fft.Coefficients(nil, fftIn)
		mag := make([]float64, binCount)

		for i, c := range coeffs {
			mag[i] = math.Hypot(real(c), imag(c))
		}

		centroidSum += spectralCentroid(mag, binHz)
		rolloffSum += spectralRolloff(mag, binHz)
		flatnessSum += spectralFlatness(mag)
		frames++
	}

	if frames == 0 {
		return Output{
			ZCR:      norm.Normalize(zcr, 0, 1),
			Centroid: -1,
			Rolloff:  -1,
			Flatness: -1,
		}
	}

	meanCentroid := centroidSum / float64(frames)
	meanRolloff := rolloffSum / float64(frames)
	meanFlatness := flatnessSum / float64(frames)

	return Output{
		ZCR:      norm.Normalize(zcr, 0, 1),
		Centroid: norm.Normalize(meanCentroid, 0, nyquist),
		Rolloff:  norm.Normalize(meanRolloff, 0, nyquist),
		Flatness: norm.Normalize(meanFlatness, 0, 1),
	}
}

func zeroCrossingRate(samples []float32) float64 {
	if len(samples) < 2 {
		return 0
	}

	crossings := 0

	for i := 1; i < len(samples); i++ {
		if (samples[i-1] < 0) != (samples[i] < 0) {
			crossings++
		}
	}

	return float64(crossings) / float64(len(samples)-1)
}

func spectralCentroid(mag []float64, binHz float64) float64 {
	var weighted, total float64

	for i, m := range mag {
		freq := float64(i) * binHz
		weighted += freq * m
		total += m
	}

	if total <= 0 {
		return 0
	}

	return weighted / total
}

func spectralRolloff(mag []float64, binHz float64) float64 {
	var total float64
	for _, m := range mag {
		total += m
	}

	if total <= 0 {
		return 0
	}

	threshold := total * rolloffFraction

	var cumulative float64

	for i, m := range mag {
		cumulative += m
		if cumulative >= threshold {
			return float64(i) * binHz
		}
	}

	return float64(len(mag)-1) * binHz
}

func spectralFlatness(mag []float64) float64 {
	const eps = 1e-12

	var logSum, sum float64

	n := 0

	for _, m := range mag {
		v := m + eps
		logSum += math.Log(v)
		sum += v
		n++
	}

	if n == 0 || sum <= 0 {
		return 0
	}

	geoMean := math.Exp(logSum / float64(n))
	arithMean := sum / float64(n)

	return geoMean / arithMean
}

func hannWindow(size int) []float64 {
	w := make([]float64, size)

	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}

	return w
}
