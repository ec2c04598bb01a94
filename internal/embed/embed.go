// Package embed wraps a frozen ONNX embedding model behind a small Model
// type, using github.com/yalue/onnxruntime_go -- the only ONNX host found
// anywhere in the example pack (manifest-only, in a project pairing it with
// gonum and an audio decoder, the closest domain analogue available).
package embed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	inputName  = "audio"
	outputName = "embedding"

	// Dimension is the embedding's fixed output width.
	Dimension = 32
)

var (
	ErrEmbedding     = errors.New("embedding failed")
	ErrShapeMismatch = errors.New("embedding output shape mismatch")

	initOnce sync.Once
	initErr  error
)

// Model owns one ONNX Runtime session. Sessions are not safe for concurrent
// use -- the ingestor's worker pool constructs one Model per worker rather
// than sharing a package-level singleton.
type Model struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// SetSharedLibraryPath must be called once, before any Model is loaded, if
// the onnxruntime shared library is not on the default search path.
func SetSharedLibraryPath(path string) {
	ort.SetSharedLibraryPath(path)
}

func ensureInitialized() error {
	initOnce.Do(func() {
		initErr = ort.InitializeEnvironment()
	})

	return initErr
}

// NewModel loads the model at modelPath into a fresh session. maxSamples is the
// longest input length this session will ever be asked to embed; shorter
// inputs are zero-padded by Embed.
func NewModel(modelPath string, maxSamples int) (*Model, error) {
	if err := ensureInitialized(); err != nil {
		return nil, fmt.Errorf("%w: initializing onnxruntime: %w", ErrEmbedding, err)
	}

	inputShape := ort.NewShape(1, int64(maxSamples))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("%w: allocating input tensor: %w", ErrEmbedding, err)
	}

	outputShape := ort.NewShape(1, Dimension)

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()

		return nil, fmt.Errorf("%w: allocating output tensor: %w", ErrEmbedding, err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{inputName},
		[]string{outputName},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()

		return nil, fmt.Errorf("%w: creating session: %w", ErrEmbedding, err)
	}

	return &Model{session: session, input: inputTensor, output: outputTensor}, nil
}

// Embed runs inference over mono, 22,050 Hz samples and returns the
// 32-dimensional embedding.
func (m *Model) Embed(ctx context.Context, samples []float32) ([Dimension]float32, error) {
	var zero [Dimension]float32

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	default:
	}

	inputData := m.input.GetData()

	n := len(samples)
	if n > len(inputData) {
		n = len(inputData)
	}

	copy(inputData, samples[:n])

	for i := n; i < len(inputData); i++ {
		inputData[i] = 0
	}

	if err := m.session.Run(); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	outputData := m.output.GetData()
	if len(outputData) != Dimension {
		return zero, fmt.Errorf("%w: got %d dims, want %d", ErrShapeMismatch, len(outputData), Dimension)
	}

	copy(zero[:], outputData)

	return zero, nil
}

// EmbedBatch maps Embed over every input, matching the reference's
// semantically-identical batch form.
func (m *Model) EmbedBatch(ctx context.Context, batches [][]float32) ([][Dimension]float32, error) {
	out := make([][Dimension]float32, len(batches))

	for i, samples := range batches {
		embedding, err := m.Embed(ctx, samples)
		if err != nil {
			return nil, fmt.Errorf("batch index %d: %w", i, err)
		}

		out[i] = embedding
	}

	return out, nil
}

// Close releases the session and its tensors.
func (m *Model) Close() error {
	if m.session != nil {
		m.session.Destroy()
	}

	if m.input != nil {
		m.input.Destroy()
	}

	if m.output != nil {
		m.output.Destroy()
	}

	return nil
}
