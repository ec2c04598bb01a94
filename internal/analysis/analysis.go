// Package analysis implements C4: folding one track's descriptor suite and
// neural embedding into the single fixed-width vector that the graph
// store's vector index and the clusterer both operate on.
package analysis

import (
	"errors"
	"fmt"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/descriptors"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/descriptors/norm"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/embed"
)

var ErrDimensionMismatch = errors.New("analysis vector width does not match declared schema dimension")

// Layout documents which slot of the 23-wide vector holds which descriptor.
// It is a stable schema constant: changing it is a dimension migration
// (internal/store/migrations), not a code refactor.
//
//	[0]     BPM
//	[1]     zero-crossing rate
//	[2]     spectral centroid
//	[3]     spectral rolloff
//	[4]     spectral flatness
//	[5]     loudness mean
//	[6]     loudness std
//	[7:19]  chroma bins 0..11
//	[19:23] embedding summary (first 4 dims of the 32-wide neural embedding)
const (
	slotBPM          = 0
	slotZCR          = 1
	slotCentroid     = 2
	slotRolloff      = 3
	slotFlatness     = 4
	slotLoudnessMean = 5
	slotLoudnessStd  = 6
	chromaStart      = 7
	chromaEnd        = chromaStart + 12
	embeddingStart   = chromaEnd
	embeddingEnd     = embeddingStart + 4
)

// Aggregate concatenates descs and the leading 4 dims of embedding into a
// mecomp.Analysis. The width is always AnalysisDimension by construction;
// the error return exists for forward compatibility with a Layout change.
func Aggregate(descs descriptors.Output, embedding [embed.Dimension]float32) (mecomp.Analysis, error) {
	a := mecomp.Analysis{Features: make([]float64, mecomp.AnalysisDimension)}

	a.Features[slotBPM] = descs.BPM
	a.Features[slotZCR] = descs.ZCR
	a.Features[slotCentroid] = descs.Centroid
	a.Features[slotRolloff] = descs.Rolloff
	a.Features[slotFlatness] = descs.Flatness
	a.Features[slotLoudnessMean] = descs.LoudnessMean
	a.Features[slotLoudnessStd] = descs.LoudnessStd

	for i := 0; i < 12; i++ {
		a.Features[chromaStart+i] = descs.Chroma[i]
	}

	// The embedding is an opaque neural output with no declared bound (§9);
	// saturate it into [-1, 1] the same way every descriptor slot already
	// is, rather than asserting it and failing the whole analysis.
	for i := 0; i < embeddingEnd-embeddingStart; i++ {
		a.Features[embeddingStart+i] = norm.Normalize(float64(embedding[i]), -1, 1)
	}

	if err := Validate(a); err != nil {
		return mecomp.Analysis{}, err
	}

	return a, nil
}

// Validate checks invariant 6: the analysis width equals the currently
// declared schema dimension.
func Validate(a mecomp.Analysis) error {
	if len(a.Features) != mecomp.AnalysisDimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(a.Features), mecomp.AnalysisDimension)
	}

	for _, v := range a.Features {
		if v < -1 || v > 1 {
			return fmt.Errorf("%w: feature value %v outside [-1, 1]", ErrDimensionMismatch, v)
		}
	}

	return nil
}
