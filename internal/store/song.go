package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

// GetSongByPath looks up a Song by its canonical, unique path -- the
// ingestor's first step on every scanned file. A missing row reports
// ErrNotFound so callers can tell "no song yet" from a database failure.
func (s *Store) GetSongByPath(ctx context.Context, path string) (mecomp.Song, error) {
	var row songRow

	err := s.db.WithContext(ctx).Where("path = ?", path).First(&row).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return mecomp.Song{}, fmt.Errorf("%w: song at %q", mecomp.ErrNotFound, path)
	case err != nil:
		return mecomp.Song{}, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	return rowToSong(row)
}

// GetSong resolves a Song by Thing id.
func (s *Store) GetSong(ctx context.Context, id mecomp.Thing) (mecomp.Song, error) {
	var row songRow

	err := s.db.WithContext(ctx).Where("id = ?", thingToID(id)).First(&row).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return mecomp.Song{}, fmt.Errorf("%w: song %s", mecomp.ErrNotFound, id)
	case err != nil:
		return mecomp.Song{}, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	return rowToSong(row)
}

// GetSongs resolves a set of Song ids in one query, used by the similarity
// engine and clusterer to batch-fetch constituents.
func (s *Store) GetSongs(ctx context.Context, ids []mecomp.Thing) ([]mecomp.Song, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rowIDs := make([]string, len(ids))
	for i, id := range ids {
		rowIDs[i] = thingToID(id)
	}

	var rows []songRow
	if err := s.db.WithContext(ctx).Where("id IN ?", rowIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	return rowsToSongs(rows)
}

// ListSongs returns every Song in the library, ordered by path for a
// stable iteration order.
func (s *Store) ListSongs(ctx context.Context) ([]mecomp.Song, error) {
	var rows []songRow
	if err := s.db.WithContext(ctx).Order("path").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	return rowsToSongs(rows)
}

func rowsToSongs(rows []songRow) ([]mecomp.Song, error) {
	songs := make([]mecomp.Song, 0, len(rows))

	for _, row := range rows {
		song, err := rowToSong(row)
		if err != nil {
			return nil, err
		}

		songs = append(songs, song)
	}

	return songs, nil
}

// UpsertSong creates the Song if no row exists at its path, else saves the
// already-conflict-resolved fields the caller (the ingestor) computed. The
// ingestor owns the Merge/Overwrite/Skip policy (spec.md §4.6); the store
// only ever writes the Song it is handed, and it preserves the existing
// row's id across an update so relation edges never orphan.
func (s *Store) UpsertSong(ctx context.Context, song mecomp.Song) (mecomp.Song, error) {
	existing, err := s.GetSongByPath(ctx, song.Path)

	switch {
	case errors.Is(err, mecomp.ErrNotFound):
		row := songToRow(song)
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return mecomp.Song{}, fmt.Errorf("%w: creating song %q: %w", ErrDatabase, song.Path, err)
		}

		return rowToSong(row)
	case err != nil:
		return mecomp.Song{}, err
	default:
		song.ID = existing.ID
		row := songToRow(song)

		// Select("*") forces every column to be written, including ones
		// the ingestor's Overwrite policy cleared back to a zero value --
		// plain Updates(&row) skips zero-valued struct fields and could
		// never un-set a dropped tag (e.g. a removed album field).
		// CreatedAt is omitted so the original insert timestamp survives.
		if err := s.db.WithContext(ctx).Model(&songRow{}).Where("id = ?", row.ID).
			Select("*").Omit("CreatedAt").Updates(&row).Error; err != nil {
			return mecomp.Song{}, fmt.Errorf("%w: updating song %q: %w", ErrDatabase, song.Path, err)
		}

		return rowToSong(row)
	}
}

// DeleteSong removes a Song row. Relation rows referencing it are
// cascade-removed by the store (spec.md §3 "Ownership"); the explicit
// unrelate calls here stand in for a database-level ON DELETE CASCADE,
// since gorm's AutoMigrate does not declare foreign keys for JSON-backed
// OneOrMany columns.
func (s *Store) DeleteSong(ctx context.Context, id mecomp.Thing) error {
	songID := thingToID(id)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"album_song", "artist_song", "playlist_song", "collection_song"} {
			if err := tx.Table(table).Where("song_id = ?", songID).Delete(nil).Error; err != nil {
				return fmt.Errorf("%w: cascading delete in %s: %w", ErrDatabase, table, err)
			}
		}

		if err := tx.Where("song_id = ?", songID).Delete(&analysisRow{}).Error; err != nil {
			return fmt.Errorf("%w: cascading analysis delete: %w", ErrDatabase, err)
		}

		if err := tx.Where("id = ?", songID).Delete(&songRow{}).Error; err != nil {
			return fmt.Errorf("%w: deleting song %s: %w", ErrDatabase, id, err)
		}

		return nil
	})
}
