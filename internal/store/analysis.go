package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"gonum.org/v1/gonum/floats"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

// UpsertAnalysis replaces any existing Analysis for song and points the
// Song's analysis_id at it, inside one transaction -- invariant 2 (every
// Analysis reachable from exactly one Song) never has a window where the
// edge is missing or doubled.
func (s *Store) UpsertAnalysis(ctx context.Context, songID mecomp.Thing, features []float64) (mecomp.Thing, error) {
	if len(features) != mecomp.AnalysisDimension {
		return mecomp.Thing{}, fmt.Errorf(
			"%w: %d features, want %d", ErrConstraint, len(features), mecomp.AnalysisDimension,
		)
	}

	songRowID := thingToID(songID)

	var result mecomp.Thing

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing analysisRow

		err := tx.Where("song_id = ?", songRowID).First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			existing = analysisRow{
				ID:       thingToID(mecomp.NewThing(mecomp.TableAnalysis)),
				SongID:   songRowID,
				Features: datatypes.NewJSONSlice(features),
			}

			if err := tx.Create(&existing).Error; err != nil {
				return fmt.Errorf("%w: creating analysis for song %s: %w", ErrDatabase, songID, err)
			}
		case err != nil:
			return fmt.Errorf("%w: %w", ErrDatabase, err)
		default:
			existing.Features = datatypes.NewJSONSlice(features)
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("%w: updating analysis for song %s: %w", ErrDatabase, songID, err)
			}
		}

		if err := tx.Model(&songRow{}).Where("id = ?", songRowID).Update("analysis_id", existing.ID).Error; err != nil {
			return fmt.Errorf("%w: pointing song %s at its analysis: %w", ErrDatabase, songID, err)
		}

		id, err := idToThing(mecomp.TableAnalysis, existing.ID)
		if err != nil {
			return err
		}

		result = id

		return nil
	})
	if err != nil {
		return mecomp.Thing{}, err
	}

	return result, nil
}

// GetAnalysesBySongs fetches the Analysis rows for a set of songs, skipping
// any song with none yet (spec.md's "analysis remains absent" recovery
// policy means a caller can't assume every song has one).
func (s *Store) GetAnalysesBySongs(ctx context.Context, songIDs []mecomp.Thing) ([]mecomp.Analysis, error) {
	if len(songIDs) == 0 {
		return nil, nil
	}

	var rows []analysisRow
	if err := s.db.WithContext(ctx).Where("song_id IN ?", thingIDs(songIDs)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	return rowsToAnalyses(rows)
}

// AllAnalyses returns every Analysis in the library -- the clusterer's
// input feature matrix (spec.md §4.8).
func (s *Store) AllAnalyses(ctx context.Context) ([]mecomp.Analysis, error) {
	var rows []analysisRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	return rowsToAnalyses(rows)
}

// SongIDsForAnalyses maps each Analysis id back to its owning Song id, in
// the same order as analysisIDs, via the analysis->song relation.
func (s *Store) SongIDsForAnalyses(ctx context.Context, analysisIDs []mecomp.Thing) ([]mecomp.Thing, error) {
	ids := thingIDs(analysisIDs)

	var rows []analysisRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	bySongByAnalysis := make(map[string]string, len(rows))
	for _, row := range rows {
		bySongByAnalysis[row.ID] = row.SongID
	}

	out := make([]mecomp.Thing, len(analysisIDs))

	for i, id := range analysisIDs {
		songRowID, ok := bySongByAnalysis[thingToID(id)]
		if !ok {
			return nil, fmt.Errorf("%w: analysis %s has no owning song", ErrConstraint, id)
		}

		songID, err := idToThing(mecomp.TableSong, songRowID)
		if err != nil {
			return nil, err
		}

		out[i] = songID
	}

	return out, nil
}

func rowsToAnalyses(rows []analysisRow) ([]mecomp.Analysis, error) {
	analyses := make([]mecomp.Analysis, 0, len(rows))

	for _, row := range rows {
		analysis, err := rowToAnalysis(row)
		if err != nil {
			return nil, err
		}

		analyses = append(analyses, analysis)
	}

	return analyses, nil
}

// neighbor pairs a song id with its distance from the query centroid, used
// internally by KNearest to sort before truncating to n.
type neighbor struct {
	songID   mecomp.Thing
	distance float64
}

// KNearest implements C5's "content-addressed vector index": a linear scan
// over every analysis's features, ranked by Euclidean distance from
// centroid, excluding excludeSongs, truncated to n. Acceptable at a
// personal-library scale (spec.md's Go-shape note); a dedicated
// vector-index extension isn't available across both the sqlite and
// postgres dialects the store supports.
func (s *Store) KNearest(ctx context.Context, centroid []float64, n int, excludeSongs map[mecomp.Thing]bool) ([]mecomp.Song, error) {
	var rows []analysisRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	neighbors := make([]neighbor, 0, len(rows))

	for _, row := range rows {
		songID, err := idToThing(mecomp.TableSong, row.SongID)
		if err != nil {
			return nil, err
		}

		if excludeSongs[songID] {
			continue
		}

		neighbors = append(neighbors, neighbor{songID: songID, distance: euclideanDistance(centroid, []float64(row.Features))})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].distance != neighbors[j].distance {
			return neighbors[i].distance < neighbors[j].distance
		}
		// Ties broken by Song ID lexicographic order (spec.md §4.7).
		return neighbors[i].songID.String() < neighbors[j].songID.String()
	})

	if n < len(neighbors) {
		neighbors = neighbors[:n]
	}

	ids := make([]mecomp.Thing, len(neighbors))
	for i, nb := range neighbors {
		ids[i] = nb.songID
	}

	songs, err := s.GetSongs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return orderSongsLike(songs, ids), nil
}

func orderSongsLike(songs []mecomp.Song, order []mecomp.Thing) []mecomp.Song {
	byID := make(map[mecomp.Thing]mecomp.Song, len(songs))
	for _, s := range songs {
		byID[s.ID] = s
	}

	out := make([]mecomp.Song, 0, len(order))

	for _, id := range order {
		if song, ok := byID[id]; ok {
			out = append(out, song)
		}
	}

	return out
}

// euclideanDistance is the L2 distance gonum/floats.Distance computes;
// Analysis vectors are always AnalysisDimension-wide, but a defensive
// truncation keeps a width mismatch from panicking mid k-NN scan.
func euclideanDistance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	return floats.Distance(a[:n], b[:n], 2)
}
