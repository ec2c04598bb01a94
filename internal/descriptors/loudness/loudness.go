// Package loudness computes the two-value loudness descriptor: the mean
// and standard deviation of per-window power, each expressed in dB and
// normalized against a -90..0 dB range. farcloser/haustorium hand-rolls a
// full EBU R128 meter for a similar purpose (internal/audit/loudness); this
// descriptor is the much smaller per-track summary statistic the analysis
// vector actually needs, built the same hand-rolled way.
package loudness

import (
	"math"

	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/descriptors/norm"
)

const (
	windowSize = 1024
	hopSize    = 1024

	minPower = 1e-9
	minDB    = -90.0
	maxDB    = 0.0
)

// Output is [normalized mean dB, normalized std dB].
type Output struct {
	Mean float64
	Std  float64
}

type Descriptor struct {
	buffer []float32
	powers []float64
}

func New(_ int) *Descriptor {
	return &Descriptor{}
}

func (d *Descriptor) Push(chunk []float32) {
	d.buffer = append(d.buffer, chunk...)

	for len(d.buffer) >= windowSize {
		d.powers = append(d.powers, windowPower(d.buffer[:windowSize]))
		d.buffer = d.buffer[hopSize:]
	}
}

func (d *Descriptor) Finalize() Output {
	if len(d.powers) == 0 {
		return Output{Mean: -1, Std: -1}
	}

	var sum float64
	for _, p := range d.powers {
		sum += p
	}

	mean := sum / float64(len(d.powers))

	var varSum float64
	for _, p := range d.powers {
		diff := p - mean
		varSum += diff * diff
	}

	std := math.Sqrt(varSum / float64(len(d.powers)))

	meanDB := 10 * math.Log10(math.Max(mean, minPower))
	stdDB := 10 * math.Log10(math.Max(std, minPower))

	return Output{
		Mean: norm.Normalize(meanDB, minDB, maxDB),
		Std:  norm.Normalize(stdDB, minDB, maxDB),
	}
}

func windowPower(window []float32) float64 {
	var sum float64

	for _, s := range window {
		sum += float64(s) * float64(s)
	}

	return sum / float64(len(window))
}
