// Package bpm estimates tempo from a spectral-flux onset detection
// function, the same window/hop the other windowed descriptors use (512
// samples, 256 hop), built on gonum.org/v1/gonum/dsp/fourier since no Go
// port of aubio (the reference's SpecFlux onset tracker) exists anywhere
// in the example pack.
package bpm

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/descriptors/norm"
)

const (
	windowSize = 512
	hopSize    = 256

	minBPM = 40.0
	maxBPM = 250.0

	normMin = 0.0
	normMax = 206.0

	// noBeat is the raw sentinel reported when fewer than two onsets are
	// found; it normalizes (and saturates) to -1 like a silent track.
	noBeat = -1.0

	// peakThresholdFactor sets how far above the mean an onset-strength
	// sample must rise to count as a peak: mean + factor*stddev.
	peakThresholdFactor = 1.5
)

// Descriptor accumulates samples and estimates the median tempo at
// Finalize, in beats per minute, normalized to [-1, 1].
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

func (d *Descriptor) Finalize() float64 {
	if len(d.samples) < windowSize*2 {
		return norm.Normalize(noBeat, normMin, normMax)
	}

	flux := onsetFlux(d.samples, d.sampleRate)

	frameRate := float64(d.sampleRate) / float64(hopSize)

	onsetFrames := pickPeaks(flux)
	if len(onsetFrames) < 2 {
		return norm.Normalize(noBeat, normMin, normMax)
	}

	estimates := make([]float64, 0, len(onsetFrames)-1)

	for i := 1; i < len(onsetFrames); i++ {
		intervalFrames := float64(onsetFrames[i] - onsetFrames[i-1])
		if intervalFrames <= 0 {
			continue
		}

		seconds := intervalFrames / frameRate
		bpmEstimate := 60.0 / seconds

		for bpmEstimate < minBPM {
			bpmEstimate *= 2
		}

		for bpmEstimate > maxBPM {
			bpmEstimate /= 2
		}

		estimates = append(estimates, bpmEstimate)
	}

	if len(estimates) == 0 {
		return norm.Normalize(noBeat, normMin, normMax)
	}

	return norm.Normalize(median(estimates), normMin, normMax)
}

// onsetFlux computes the half-wave-rectified spectral flux: the sum of
// positive frame-to-frame magnitude increases per bin, one value per hop.
func onsetFlux(samples []float32, sampleRate int) []float64 {
	window := hannWindow(windowSize)
	fft := fourier.NewFFT(windowSize)
	binCount := windowSize/2 + 1

	fftIn := make([]float64, windowSize)
	prevMag := make([]float64, binCount)
	flux := make([]float64, 0, len(samples)/hopSize)

	_ = sampleRate

	for pos := 0; pos+windowSize <= len(samples); pos += hopSize {
		for i := range fftIn {
			fftIn[i] = float64(samples[pos+i]) * window[i]
		}

		coeffs := fft.Coefficients(nil, fftIn)

		var sum float64

		for i, c := range coeffs {
			mag := math.Hypot(real(c), imag(c))
			if diff := mag - prevMag[i]; diff > 0 {
				sum += diff
			}

			prevMag[i] = mag
		}

		flux = append(flux, sum)
	}

	return flux
}

// pickPeaks returns the indices of local maxima in flux that exceed
// mean+factor*stddev, the onset detection function's confirmed beats.
func pickPeaks(flux []float64) []int {
	if len(flux) < 3 {
		return nil
	}

	mean, std := meanStd(flux)
	threshold := mean + peakThresholdFactor*std

	var peaks []int

	for i := 1; i < len(flux)-1; i++ {
		if flux[i] > threshold && flux[i] >= flux[i-1] && flux[i] >= flux[i+1] {
			peaks = append(peaks, i)
		}
	}

	return peaks
}

func meanStd(xs []float64) (mean, std float64) {
	var sum float64
	for _, x := range xs {
		sum += x
	}

	mean = sum / float64(len(xs))

	var varSum float64
	for _, x := range xs {
		diff := x - mean
		varSum += diff * diff
	}

	std = math.Sqrt(varSum / float64(len(xs)))

	return mean, std
}

func median(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}

	return (sorted[mid-1] + sorted[mid]) / 2
}

func hannWindow(size int) []float64 {
	w := make([]float64, size)

	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}

	return w
}
