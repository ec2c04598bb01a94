// Package descriptors runs every per-track descriptor accumulator
// (spectral, loudness, chroma, bpm) over one decoded signal and collects
// their normalized outputs for internal/analysis to aggregate into the
// fixed-width feature vector.
package descriptors

import (
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/descriptors/bpm"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/descriptors/chroma"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/descriptors/loudness"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/descriptors/spectral"
)

// Output is every descriptor's normalized scalar output, 19 floats wide
// before the embedding is folded in by internal/analysis.
type Output struct {
	BPM          float64
	ZCR          float64
	Centroid     float64
	Rolloff      float64
	Flatness     float64
	LoudnessMean float64
	LoudnessStd  float64
	Chroma       [12]float64
}

// Suite owns one instance of each descriptor and fans incoming chunks out
// to all of them; Finalize runs each descriptor's own finalize step.
type Suite struct {
	bpm      *bpm.Descriptor
	spectral *spectral.Descriptor
	loudness *loudness.Descriptor
	chroma   *chroma.Descriptor
}

func NewSuite(sampleRate int) *Suite {
	return &Suite{
		bpm:      bpm.New(sampleRate),
		spectral: spectral.New(sampleRate),
		loudness: loudness.New(sampleRate),
		chroma:   chroma.New(sampleRate),
	}
}

func (s *Suite) Push(chunk []float32) {
	s.bpm.Push(chunk)
	s.spectral.Push(chunk)
	s.loudness.Push(chunk)
	s.chroma.Push(chunk)
}

func (s *Suite) Finalize() Output {
	spec := s.spectral.Finalize()
	loud := s.loudness.Finalize()

	return Output{
		BPM:          s.bpm.Finalize(),
		ZCR:          spec.ZCR,
		Centroid:     spec.Centroid,
		Rolloff:      spec.Rolloff,
		Flatness:     spec.Flatness,
		LoudnessMean: loud.Mean,
		LoudnessStd:  loud.Std,
		Chroma:       s.chroma.Finalize(),
	}
}

// Run pushes the entire signal through a fresh Suite in one shot and
// returns its Finalize result -- the common case for the ingestor, which
// already has the whole decoded signal in memory.
func Run(sampleRate int, samples []float32) Output {
	suite := NewSuite(sampleRate)
	suite.Push(samples)

	return suite.Finalize()
}
