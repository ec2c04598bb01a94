package decode

import (
	"context"
	"fmt"
	"strconv"
)

// Audio is the canonical decoded signal: mono, 22,050 Hz, f32 samples.
type Audio struct {
	Path       string
	Samples    []float32
	SampleRate int
}

// Decoder turns a file path into a canonical Audio stream.
type Decoder interface {
	Decode(ctx context.Context, path string) (*Audio, error)
}

// FFmpegDecoder is the only Decoder: it shells out to ffprobe to discover
// stream layout and ffmpeg to extract raw PCM, then downmixes and
// resamples in-process.
type FFmpegDecoder struct {
	// StreamIndex selects which audio stream to decode when a container has
	// more than one (0-based, default 0).
	StreamIndex int
}

func NewFFmpegDecoder() *FFmpegDecoder {
	return &FFmpegDecoder{}
}

// Decode implements Decoder. Pipeline: probe -> extract raw PCM at source
// rate/channels -> downmix to mono -> resample to 22,050 Hz.
func (d *FFmpegDecoder) Decode(ctx context.Context, path string) (*Audio, error) {
	probeResult, err := Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	stream, err := FindAudioStream(probeResult, d.StreamIndex)
	if err != nil {
		return nil, err
	}

	sourceRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sourceRate <= 0 {
		return nil, fmt.Errorf("%w: invalid sample rate %q", ErrDecode, stream.SampleRate)
	}

	if stream.Channels <= 0 {
		return nil, fmt.Errorf("%w: invalid channel count %d", ErrDecode, stream.Channels)
	}

	if isIndeterminate(probeResult.Format.Duration, stream.Duration) {
		return nil, ErrIndeterminateDuration
	}

	raw, err := extractPCM(ctx, path, d.StreamIndex)
	if err != nil {
		return nil, err
	}

	interleaved := decodeF32LE(raw)
	if len(interleaved) == 0 {
		return nil, ErrEmptySamples
	}

	mono := downmix(interleaved, stream.Channels)

	resampled, err := resample(mono, sourceRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResample, err)
	}

	if len(resampled) == 0 {
		return nil, ErrEmptySamples
	}

	return &Audio{Path: path, Samples: resampled, SampleRate: CanonicalSampleRate}, nil
}

// isIndeterminate reports a source that declares no finite duration on
// either the container or the stream -- live captures and some broken
// files report this, and the pipeline can't preallocate for them.
func isIndeterminate(formatDuration, streamDuration string) bool {
	if formatDuration != "" {
		return false
	}

	return streamDuration == ""
}
