package decode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/farcloser/primordium/fault"
)

const (
	ffprobeName  = "ffprobe"
	probeTimeout = 60 * time.Second
)

// ProbeResult is the subset of ffprobe's JSON output the decoder and
// ingestor need: stream layout for decode, format tags for metadata.
type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

type ProbeStream struct {
	Index            int    `json:"index"`
	CodecType        string `json:"codec_type"`
	CodecName        string `json:"codec_name"`
	SampleRate       string `json:"sample_rate,omitempty"`
	Channels         int    `json:"channels,omitempty"`
	Duration         string `json:"duration,omitempty"`
	BitsPerRawSample string `json:"bits_per_raw_sample,omitempty"`
	BitsPerSample    int    `json:"bits_per_sample,omitempty"`
}

type ProbeFormat struct {
	Duration string            `json:"duration,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// Probe runs ffprobe on filePath and returns parsed stream/format metadata.
// It requires ffprobe on PATH.
func Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	slog.Debug("decode.Probe", "file", filePath)

	ffprobePath, found := available(ffprobeName)
	if !found {
		return nil, fmt.Errorf("%w: %s", fault.ErrMissingRequirements, ffprobeName)
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	//nolint:gosec // filePath is the caller-provided media file to probe
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w: after %v", ErrFileOpen, fault.ErrTimeout, probeTimeout)
		}

		return nil, fmt.Errorf("%w: %w: %s: %w", ErrFileOpen, fault.ErrCommandFailure, stderr.String(), err)
	}

	var result ProbeResult
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrFileOpen, fault.ErrInvalidJSON, err)
	}

	return &result, nil
}

// FindAudioStream returns the nth (0-based) audio stream in the probe
// result.
func FindAudioStream(result *ProbeResult, streamIndex int) (*ProbeStream, error) {
	count := 0

	for i := range result.Streams {
		if result.Streams[i].CodecType == "audio" {
			if count == streamIndex {
				return &result.Streams[i], nil
			}

			count++
		}
	}

	return nil, fmt.Errorf("%w: audio stream %d not found (file has %d)", ErrDecode, streamIndex, count)
}
