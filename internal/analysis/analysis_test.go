package analysis

import (
	"testing"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/descriptors"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/embed"
)

func TestAggregateWidthMatchesSchemaDimension(t *testing.T) {
	var embedding [embed.Dimension]float32

	a, err := Aggregate(descriptors.Output{}, embedding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a.Features) != mecomp.AnalysisDimension {
		t.Fatalf("got width %d, want %d", len(a.Features), mecomp.AnalysisDimension)
	}
}

func TestAggregatePlacesChromaAndEmbeddingSlots(t *testing.T) {
	descs := descriptors.Output{BPM: 0.5}

	for i := range descs.Chroma {
		descs.Chroma[i] = 0.25
	}

	var embedding [embed.Dimension]float32
	embedding[0] = 0.9

	a, err := Aggregate(descs, embedding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.Features[slotBPM] != 0.5 {
		t.Errorf("BPM slot = %v, want 0.5", a.Features[slotBPM])
	}

	if a.Features[chromaStart] != 0.25 {
		t.Errorf("chroma[0] slot = %v, want 0.25", a.Features[chromaStart])
	}

	if a.Features[embeddingStart] <= 0 {
		t.Errorf("embedding slot = %v, want > 0", a.Features[embeddingStart])
	}
}

func TestAggregateSaturatesOutOfRangeEmbedding(t *testing.T) {
	var embedding [embed.Dimension]float32
	embedding[0] = 5.0
	embedding[1] = -5.0

	a, err := Aggregate(descriptors.Output{}, embedding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.Features[embeddingStart] != 1 {
		t.Errorf("embedding slot 0 = %v, want saturated to 1", a.Features[embeddingStart])
	}

	if a.Features[embeddingStart+1] != -1 {
		t.Errorf("embedding slot 1 = %v, want saturated to -1", a.Features[embeddingStart+1])
	}
}
