package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

// CreatePlaylist inserts a new, empty Playlist. Name must be unique
// (spec.md §3's Playlist invariant); a duplicate reports ErrNameTaken.
func (s *Store) CreatePlaylist(ctx context.Context, name string) (mecomp.Thing, error) {
	row := playlistRow{ID: thingToID(mecomp.NewThing(mecomp.TablePlaylist)), Name: name}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return mecomp.Thing{}, fmt.Errorf("%w: playlist %q", mecomp.ErrNameTaken, name)
		}

		return mecomp.Thing{}, fmt.Errorf("%w: creating playlist %q: %w", ErrDatabase, name, err)
	}

	return idToThing(mecomp.TablePlaylist, row.ID)
}

// RenamePlaylist changes a Playlist's name, subject to the same uniqueness
// invariant CreatePlaylist enforces.
func (s *Store) RenamePlaylist(ctx context.Context, id mecomp.Thing, name string) error {
	res := s.db.WithContext(ctx).Model(&playlistRow{}).Where("id = ?", thingToID(id)).Update("name", name)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return fmt.Errorf("%w: playlist %q", mecomp.ErrNameTaken, name)
		}

		return fmt.Errorf("%w: renaming playlist %s: %w", ErrDatabase, id, res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: playlist %s", mecomp.ErrNotFound, id)
	}

	return nil
}

// DeletePlaylist removes the Playlist and its membership edges.
func (s *Store) DeletePlaylist(ctx context.Context, id mecomp.Thing) error {
	playlistID := thingToID(id)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("playlist_song").Where("playlist_id = ?", playlistID).Delete(nil).Error; err != nil {
			return fmt.Errorf("%w: clearing playlist membership: %w", ErrDatabase, err)
		}

		if err := tx.Where("id = ?", playlistID).Delete(&playlistRow{}).Error; err != nil {
			return fmt.Errorf("%w: deleting playlist %s: %w", ErrDatabase, id, err)
		}

		return nil
	})
}

// AddToPlaylist appends songIDs to the playlist's ordered membership,
// continuing the existing position sequence. A song already present keeps
// its original position (the playlist_song primary key makes this
// idempotent).
func (s *Store) AddToPlaylist(ctx context.Context, id mecomp.Thing, songIDs []mecomp.Thing) error {
	if len(songIDs) == 0 {
		return nil
	}

	playlistID := thingToID(id)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxPos int

		if err := tx.Table("playlist_song").Where("playlist_id = ?", playlistID).
			Select("COALESCE(MAX(position), -1)").Row().Scan(&maxPos); err != nil {
			return fmt.Errorf("%w: reading playlist position: %w", ErrDatabase, err)
		}

		for i, songID := range songIDs {
			row := playlistSongRow{PlaylistID: playlistID, SongID: thingToID(songID), Position: maxPos + 1 + i}
			if err := relate(tx, &row); err != nil {
				return err
			}
		}

		return nil
	})
}

// RemoveFromPlaylist removes songIDs from the playlist's membership.
func (s *Store) RemoveFromPlaylist(ctx context.Context, id mecomp.Thing, songIDs []mecomp.Thing) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return unrelate(tx, "playlist_song", "playlist_id", "song_id", thingToID(id), thingIDs(songIDs))
	})
}

// GetPlaylist resolves a Playlist by Thing id with its derived Runtime and
// SongCount, songs ordered by their playlist position.
func (s *Store) GetPlaylist(ctx context.Context, id mecomp.Thing) (mecomp.Playlist, error) {
	var row playlistRow

	err := s.db.WithContext(ctx).Where("id = ?", thingToID(id)).First(&row).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return mecomp.Playlist{}, fmt.Errorf("%w: playlist %s", mecomp.ErrNotFound, id)
	case err != nil:
		return mecomp.Playlist{}, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	songs, err := s.playlistSongs(ctx, row.ID)
	if err != nil {
		return mecomp.Playlist{}, err
	}

	runtime, _ := songAggregates(songs)

	return rowToPlaylist(row, runtime, len(songs))
}

// ListPlaylists returns every Playlist with derived fields populated.
func (s *Store) ListPlaylists(ctx context.Context) ([]mecomp.Playlist, error) {
	var rows []playlistRow
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	playlists := make([]mecomp.Playlist, 0, len(rows))

	for _, row := range rows {
		songs, err := s.playlistSongs(ctx, row.ID)
		if err != nil {
			return nil, err
		}

		runtime, _ := songAggregates(songs)

		playlist, err := rowToPlaylist(row, runtime, len(songs))
		if err != nil {
			return nil, err
		}

		playlists = append(playlists, playlist)
	}

	return playlists, nil
}

// PlaylistSongs returns a playlist's member songs in playlist order.
func (s *Store) PlaylistSongs(ctx context.Context, id mecomp.Thing) ([]mecomp.Song, error) {
	rows, err := s.playlistSongs(ctx, thingToID(id))
	if err != nil {
		return nil, err
	}

	return rowsToSongs(rows)
}

func (s *Store) playlistSongs(ctx context.Context, playlistID string) ([]songRow, error) {
	var rows []songRow

	if err := s.db.WithContext(ctx).
		Joins("JOIN playlist_song ON playlist_song.song_id = songs.id").
		Where("playlist_song.playlist_id = ?", playlistID).
		Order("playlist_song.position").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	return rows, nil
}

func thingIDs(ids []mecomp.Thing) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = thingToID(id)
	}

	return out
}

// isUniqueViolation reports whether err looks like a unique-constraint
// failure, across both the sqlite and postgres drivers the store supports.
func isUniqueViolation(err error) bool {
	msg := err.Error()

	return strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key value")
}
