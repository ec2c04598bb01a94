package decode

import (
	"math"
	"testing"
)

func TestDownmixMono(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}

	out := downmix(in, 1)
	if len(out) != 3 {
		t.Fatalf("expected pass-through, got len %d", len(out))
	}
}

func TestDownmixStereoAverages(t *testing.T) {
	in := []float32{1.0, -1.0, 0.5, 0.5}

	out := downmix(in, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(out))
	}

	if out[0] != 0 {
		t.Errorf("frame 0: got %v, want 0", out[0])
	}

	if out[1] != 0.5 {
		t.Errorf("frame 1: got %v, want 0.5", out[1])
	}
}

func TestResamplePassThroughAtCanonicalRate(t *testing.T) {
	in := []float32{1, 2, 3}

	out, err := resample(in, CanonicalSampleRate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != len(in) {
		t.Fatalf("expected pass-through length %d, got %d", len(in), len(out))
	}
}

func TestResampleEmptyInput(t *testing.T) {
	if _, err := resample(nil, 44100); err != ErrEmptySamples {
		t.Fatalf("expected ErrEmptySamples, got %v", err)
	}
}

func TestResamplePreservesSineFrequency(t *testing.T) {
	const (
		sourceRate = 44100
		freq       = 440.0
		duration   = 1.0
	)

	n := int(sourceRate * duration)
	in := make([]float32, n)

	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / sourceRate))
	}

	out, err := resample(in, sourceRate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Count zero crossings in the resampled signal; for a 440Hz tone over
	// 1s we expect roughly 2*freq crossings, independent of sample rate.
	crossings := 0

	for i := 1; i < len(out); i++ {
		if (out[i-1] < 0) != (out[i] < 0) {
			crossings++
		}
	}

	want := 2 * freq
	if math.Abs(float64(crossings)-want) > want*0.05 {
		t.Errorf("zero crossings = %d, want near %v", crossings, want)
	}
}

func TestResampleLengthMatchesRatio(t *testing.T) {
	in := make([]float32, 44100)

	out, err := resample(in, 44100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantLen := CanonicalSampleRate
	if diff := len(out) - wantLen; diff < -2 || diff > 2 {
		t.Errorf("resampled length = %d, want near %d", len(out), wantLen)
	}
}

func TestFindAudioStreamSkipsVideo(t *testing.T) {
	result := &ProbeResult{
		Streams: []ProbeStream{
			{Index: 0, CodecType: "video"},
			{Index: 1, CodecType: "audio", SampleRate: "44100", Channels: 2},
		},
	}

	stream, err := FindAudioStream(result, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stream.Index != 1 {
		t.Errorf("got stream index %d, want 1", stream.Index)
	}
}

func TestFindAudioStreamNotFound(t *testing.T) {
	result := &ProbeResult{Streams: []ProbeStream{{CodecType: "video"}}}

	if _, err := FindAudioStream(result, 0); err == nil {
		t.Fatal("expected error for missing audio stream")
	}
}
