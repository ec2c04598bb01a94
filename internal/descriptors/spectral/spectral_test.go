package spectral

import "testing"

func TestZeroCrossingRateConstantDCIsZero(t *testing.T) {
	samples := make([]float32, 4096)
	for i := range samples {
		samples[i] = 0.5
	}

	got := zeroCrossingRate(samples)
	if got != 0 {
		t.Errorf("got %v, want 0", got)
	}
}

func TestZeroCrossingRateAlternatingIsOne(t *testing.T) {
	samples := make([]float32, 100)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 1
		} else {
			samples[i] = -1
		}
	}

	got := zeroCrossingRate(samples)
	if got != 1 {
		t.Errorf("got %v, want 1", got)
	}
}

func TestFinalizeTooShortReturnsSentinels(t *testing.T) {
	d := New(44100)
	d.Push(make([]float32, windowSize-1))

	out := d.Finalize()
	if out.Centroid != -1 || out.Rolloff != -1 || out.Flatness != -1 {
		t.Errorf("got %+v, want sentinel -1 for spectral outputs", out)
	}
}
