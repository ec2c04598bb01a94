// Package cluster implements C8: k-means/GMM clustering with gap-statistic
// k-selection over the full Analysis set, materializing the result as
// Collections (spec.md §4.8).
package cluster

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/flight"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/store"
)

// Algorithm selects which clustering method Recluster uses once k is
// chosen.
type Algorithm string

const (
	AlgorithmKMeans Algorithm = "kmeans"
	AlgorithmGMM    Algorithm = "gmm"
)

// Settings configures one recluster run (spec.md §4.8's
// {max_k, gap_reference_datasets, algorithm}). Seed pins the reference
// datasets' randomness so that two reclusters of an unchanged library
// produce the same membership up to label permutation (spec.md §8's
// idempotency scenario).
type Settings struct {
	MaxK                 int
	GapReferenceDatasets int
	Algorithm            Algorithm
	Seed                 int64
}

var ErrSmallLibrary = errors.New("cluster: fewer analyses than max_k+1")

// Clusterer is C8, holding the store dependency and the process-wide
// single-flight/cancel flags spec.md §5 requires for long operations.
type Clusterer struct {
	store  *store.Store
	flags  *flight.Flags
	cancel *flight.Cancel
}

func New(st *store.Store, flags *flight.Flags, cancel *flight.Cancel) *Clusterer {
	return &Clusterer{store: st, flags: flags, cancel: cancel}
}

// Recluster implements spec.md §4.8 end to end: gate on the
// recluster_in_progress single-flight flag, gap-statistic-select k,
// cluster at that k, and atomically replace every Collection with the new
// assignment.
func (c *Clusterer) Recluster(ctx context.Context, settings Settings) error {
	release, err := c.flags.EnterRecluster()
	if err != nil {
		return err
	}
	defer release()

	analyses, err := c.store.AllAnalyses(ctx)
	if err != nil {
		return err
	}

	if len(analyses) < settings.MaxK+1 {
		return fmt.Errorf("%w: have %d, need > %d", ErrSmallLibrary, len(analyses), settings.MaxK)
	}

	points := make([][]float64, len(analyses))
	for i, a := range analyses {
		points[i] = a.Features
	}

	rng := rand.New(rand.NewSource(settings.Seed)) //nolint:gosec

	k, err := optimalK(points, settings.MaxK, settings.GapReferenceDatasets, rng, settings.Algorithm)
	if err != nil {
		return err
	}

	var assignments []int

	switch settings.Algorithm {
	case AlgorithmGMM:
		assignments, _ = gmm(points, k, rng)
	default:
		assignments, _ = kmeans(points, k, rng)
	}

	membership, err := c.buildMembership(ctx, analyses, assignments, k)
	if err != nil {
		return err
	}

	return c.store.ReplaceCollections(ctx, membership)
}

// buildMembership groups songs by their assigned cluster and names each
// new Collection "Collection N", N in cluster-index order -- stable given
// a fixed seed, satisfying the "same membership up to label permutation"
// property by construction rather than by a post-hoc matching step.
func (c *Clusterer) buildMembership(ctx context.Context, analyses []mecomp.Analysis, assignments []int, k int) ([]store.ClusterMembership, error) {
	analysisIDs := make([]mecomp.Thing, len(analyses))
	for i, a := range analyses {
		analysisIDs[i] = a.ID
	}

	songIDs, err := c.songsForAnalyses(ctx, analysisIDs)
	if err != nil {
		return nil, err
	}

	buckets := make([][]mecomp.Thing, k)

	for i, cluster := range assignments {
		if cluster >= 0 && cluster < k {
			buckets[cluster] = append(buckets[cluster], songIDs[i])
		}
	}

	membership := make([]store.ClusterMembership, 0, k)

	for i, songs := range buckets {
		if len(songs) == 0 {
			continue
		}

		sort.Slice(songs, func(a, b int) bool { return songs[a].String() < songs[b].String() })

		membership = append(membership, store.ClusterMembership{
			Name:    fmt.Sprintf("Collection %d", i+1),
			SongIDs: songs,
		})
	}

	return membership, nil
}

// songsForAnalyses maps each Analysis id back to its owning Song id via
// the analysis->song relation the store maintains.
func (c *Clusterer) songsForAnalyses(ctx context.Context, analysisIDs []mecomp.Thing) ([]mecomp.Thing, error) {
	return c.store.SongIDsForAnalyses(ctx, analysisIDs)
}
