package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

// EnsureArtist looks up an Artist by canonical name -- exact match, after
// the ingestor's artist-separator splitting -- and creates it if absent.
func (s *Store) EnsureArtist(ctx context.Context, name string) (mecomp.Thing, error) {
	var row artistRow

	err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = artistRow{ID: thingToID(mecomp.NewThing(mecomp.TableArtist)), Name: name}

		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return mecomp.Thing{}, fmt.Errorf("%w: creating artist %q: %w", ErrDatabase, name, err)
		}
	case err != nil:
		return mecomp.Thing{}, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	return idToThing(mecomp.TableArtist, row.ID)
}

// GetArtist resolves an Artist by Thing id with its derived Runtime,
// AlbumCount and SongCount.
func (s *Store) GetArtist(ctx context.Context, id mecomp.Thing) (mecomp.Artist, error) {
	var row artistRow

	err := s.db.WithContext(ctx).Where("id = ?", thingToID(id)).First(&row).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return mecomp.Artist{}, fmt.Errorf("%w: artist %s", mecomp.ErrNotFound, id)
	case err != nil:
		return mecomp.Artist{}, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	return s.artistWithAggregates(ctx, row)
}

// ListArtists returns every Artist with derived fields populated.
func (s *Store) ListArtists(ctx context.Context) ([]mecomp.Artist, error) {
	var rows []artistRow
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	artists := make([]mecomp.Artist, 0, len(rows))

	for _, row := range rows {
		artist, err := s.artistWithAggregates(ctx, row)
		if err != nil {
			return nil, err
		}

		artists = append(artists, artist)
	}

	return artists, nil
}

// ArtistSongs returns an artist's constituent songs, used by the
// similarity engine to expand an artist Thing into its songs.
func (s *Store) ArtistSongs(ctx context.Context, id mecomp.Thing) ([]mecomp.Song, error) {
	var rows []songRow

	if err := s.db.WithContext(ctx).
		Joins("JOIN artist_song ON artist_song.song_id = songs.id").
		Where("artist_song.artist_id = ?", thingToID(id)).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	return rowsToSongs(rows)
}

func (s *Store) artistWithAggregates(ctx context.Context, row artistRow) (mecomp.Artist, error) {
	var songRows []songRow

	if err := s.db.WithContext(ctx).
		Joins("JOIN artist_song ON artist_song.song_id = songs.id").
		Where("artist_song.artist_id = ?", row.ID).
		Find(&songRows).Error; err != nil {
		return mecomp.Artist{}, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	runtime, _ := songAggregates(songRows)

	var albumCount int64
	if err := s.db.WithContext(ctx).Table("artist_album").
		Where("artist_id = ?", row.ID).Count(&albumCount).Error; err != nil {
		return mecomp.Artist{}, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	return rowToArtist(row, runtime, int(albumCount), len(songRows))
}
