package loudness

import "testing"

func TestLoudnessAllZerosIsMinBoth(t *testing.T) {
	d := New(22050)
	d.Push(make([]float32, windowSize))

	out := d.Finalize()
	if !almostEqual(out.Mean, -1) || !almostEqual(out.Std, -1) {
		t.Errorf("got %+v, want [-1, -1]", out)
	}
}

func TestLoudnessAllOnesIsMaxMeanMinStd(t *testing.T) {
	ones := make([]float32, windowSize)
	for i := range ones {
		ones[i] = 1
	}

	d := New(22050)
	d.Push(ones)

	out := d.Finalize()
	if !almostEqual(out.Mean, 1) || !almostEqual(out.Std, -1) {
		t.Errorf("got %+v, want [1, -1]", out)
	}
}

func TestLoudnessBelowOneWindowIsSentinel(t *testing.T) {
	d := New(22050)
	d.Push(make([]float32, windowSize-1))

	out := d.Finalize()
	if out.Mean != -1 || out.Std != -1 {
		t.Errorf("got %+v, want sentinel [-1, -1]", out)
	}
}

func almostEqual(a, b float64) bool {
	const eps = 1e-6

	diff := a - b
	if diff < 0 {
		diff = -diff
	}

	return diff < eps
}
