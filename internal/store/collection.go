package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

// ClusterMembership is one cluster's name and the songs assigned to it --
// the clusterer's recluster output, consumed by ReplaceCollections.
type ClusterMembership struct {
	Name    string
	SongIDs []mecomp.Thing
}

// ReplaceCollections implements spec.md §4.8's materialization step:
// delete every existing Collection and collection->song edge, then create
// the new set, atomically from the caller's view -- either the old
// collections remain (on error, the transaction rolls back) or the new set
// is fully committed.
func (s *Store) ReplaceCollections(ctx context.Context, clusters []ClusterMembership) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM collection_song").Error; err != nil {
			return fmt.Errorf("%w: clearing collection membership: %w", ErrDatabase, err)
		}

		if err := tx.Exec("DELETE FROM collections").Error; err != nil {
			return fmt.Errorf("%w: clearing collections: %w", ErrDatabase, err)
		}

		for _, cluster := range clusters {
			row := collectionRow{ID: thingToID(mecomp.NewThing(mecomp.TableCollection)), Name: cluster.Name}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("%w: creating collection %q: %w", ErrDatabase, cluster.Name, err)
			}

			for _, songID := range cluster.SongIDs {
				edge := collectionSongRow{CollectionID: row.ID, SongID: thingToID(songID)}
				if err := relate(tx, &edge); err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// GetCollection resolves a Collection by Thing id with its derived Runtime
// and SongCount.
func (s *Store) GetCollection(ctx context.Context, id mecomp.Thing) (mecomp.Collection, error) {
	var row collectionRow

	err := s.db.WithContext(ctx).Where("id = ?", thingToID(id)).First(&row).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return mecomp.Collection{}, fmt.Errorf("%w: collection %s", mecomp.ErrNotFound, id)
	case err != nil:
		return mecomp.Collection{}, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	songs, err := s.collectionSongs(ctx, row.ID)
	if err != nil {
		return mecomp.Collection{}, err
	}

	runtime, _ := songAggregates(songs)

	return rowToCollection(row, runtime, len(songs))
}

// ListCollections returns every Collection with derived fields populated.
func (s *Store) ListCollections(ctx context.Context) ([]mecomp.Collection, error) {
	var rows []collectionRow
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	collections := make([]mecomp.Collection, 0, len(rows))

	for _, row := range rows {
		songs, err := s.collectionSongs(ctx, row.ID)
		if err != nil {
			return nil, err
		}

		runtime, _ := songAggregates(songs)

		collection, err := rowToCollection(row, runtime, len(songs))
		if err != nil {
			return nil, err
		}

		collections = append(collections, collection)
	}

	return collections, nil
}

// CollectionSongs returns a collection's member songs.
func (s *Store) CollectionSongs(ctx context.Context, id mecomp.Thing) ([]mecomp.Song, error) {
	rows, err := s.collectionSongs(ctx, thingToID(id))
	if err != nil {
		return nil, err
	}

	return rowsToSongs(rows)
}

func (s *Store) collectionSongs(ctx context.Context, collectionID string) ([]songRow, error) {
	var rows []songRow

	if err := s.db.WithContext(ctx).
		Joins("JOIN collection_song ON collection_song.song_id = songs.id").
		Where("collection_song.collection_id = ?", collectionID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	return rows, nil
}
