package decode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"time"

	"github.com/farcloser/primordium/fault"
)

const (
	ffmpegName     = "ffmpeg"
	extractTimeout = 5 * time.Minute
)

// extractPCM decodes the given audio stream to raw interleaved f32le PCM at
// its native sample rate and channel count -- no resampling or downmixing,
// those are this package's own job (downmix.go, resample.go) so that the
// math is testable without a subprocess.
func extractPCM(ctx context.Context, filePath string, streamIndex int) ([]byte, error) {
	slog.Debug("decode.extractPCM", "file", filePath, "stream", streamIndex)

	ffmpegPath, found := available(ffmpegName)
	if !found {
		return nil, fmt.Errorf("%w: %s", fault.ErrMissingRequirements, ffmpegName)
	}

	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	//nolint:gosec // filePath is the caller-provided media file to decode
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-v", "quiet",
		"-i", filePath,
		"-map", "0:a:"+strconv.Itoa(streamIndex),
		"-f", "f32le",
		"-c:a", "pcm_f32le",
		"-",
	)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w: after %v", ErrDecode, fault.ErrTimeout, extractTimeout)
		}

		return nil, fmt.Errorf("%w: %w: %s: %w", ErrDecode, fault.ErrCommandFailure, stderr.String(), err)
	}

	if stdout.Len() == 0 {
		return nil, ErrEmptySamples
	}

	return stdout.Bytes(), nil
}

// decodeF32LE reinterprets a little-endian f32 PCM byte slice as samples.
func decodeF32LE(raw []byte) []float32 {
	samples := make([]float32, len(raw)/4)

	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		samples[i] = math.Float32frombits(bits)
	}

	return samples
}
