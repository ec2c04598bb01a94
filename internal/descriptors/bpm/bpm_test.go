package bpm

import (
	"math"
	"testing"
)

func TestFinalizeSilenceIsSentinel(t *testing.T) {
	d := New(22050)
	d.Push(make([]float32, 22050*2))

	got := d.Finalize()
	if !almostEqual(got, -1) {
		t.Errorf("got %v, want -1 (clamped sentinel)", got)
	}
}

func TestFinalizeTooShortIsSentinel(t *testing.T) {
	d := New(22050)
	d.Push(make([]float32, windowSize))

	got := d.Finalize()
	if !almostEqual(got, -1) {
		t.Errorf("got %v, want -1", got)
	}
}

// TestFinalizeClickTrackNearSixtyBPM builds a 1-second-period impulse train
// (60 BPM) at the canonical 22,050 Hz rate and checks the normalized output
// lands close to the documented -0.4169.
func TestFinalizeClickTrackNearSixtyBPM(t *testing.T) {
	const (
		sampleRate = 22050
		seconds    = 100
		period     = sampleRate // 1 second between clicks
	)

	samples := make([]float32, sampleRate*seconds)
	for i := 0; i < len(samples); i += period {
		samples[i] = 1.0
	}

	d := New(sampleRate)
	d.Push(samples)

	got := d.Finalize()

	const want = -0.4169

	if math.Abs(got-want) > 0.05 {
		t.Errorf("got %v, want near %v", got, want)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
