package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

// EnsureAlbum looks up an Album by its (title, artist-set) identity
// (spec.md §3's Album invariant) and creates it if absent. Genre and
// release year are filled in from the first song that establishes the
// album; later songs don't overwrite them (the ingestor resolves any
// conflict it cares about before calling this).
func (s *Store) EnsureAlbum(ctx context.Context, title string, artists mecomp.OneOrMany[string], releaseYear *int, genres mecomp.OneOrMany[string]) (mecomp.Thing, error) {
	artistKey := artistSetKey(artists)

	var row albumRow

	err := s.db.WithContext(ctx).
		Where("title = ? AND artist = ?", title, oneOrManyToJSON(artists)).
		First(&row).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = albumRow{
			ID:          thingToID(mecomp.NewThing(mecomp.TableAlbum)),
			Title:       title,
			Artist:      oneOrManyToJSON(artists),
			ReleaseYear: releaseYear,
			Genre:       oneOrManyToJSON(genres),
		}

		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return mecomp.Thing{}, fmt.Errorf("%w: creating album %q %s: %w", ErrDatabase, title, artistKey, err)
		}
	case err != nil:
		return mecomp.Thing{}, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	return idToThing(mecomp.TableAlbum, row.ID)
}

// artistSetKey is only used in error messages; the real identity check is
// the JSON-equality comparison EnsureAlbum runs against the stored column.
func artistSetKey(artists mecomp.OneOrMany[string]) string {
	return fmt.Sprintf("%v", artists.Values())
}

// GetAlbum resolves an Album by Thing id, filling in its derived Runtime,
// SongCount and DiscCount from the album->song relation.
func (s *Store) GetAlbum(ctx context.Context, id mecomp.Thing) (mecomp.Album, error) {
	var row albumRow

	err := s.db.WithContext(ctx).Where("id = ?", thingToID(id)).First(&row).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return mecomp.Album{}, fmt.Errorf("%w: album %s", mecomp.ErrNotFound, id)
	case err != nil:
		return mecomp.Album{}, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	songs, err := s.albumSongs(ctx, row.ID)
	if err != nil {
		return mecomp.Album{}, err
	}

	runtime, discCount := songAggregates(songs)

	return rowToAlbum(row, runtime, len(songs), discCount)
}

// ListAlbums returns every Album with its derived fields populated.
func (s *Store) ListAlbums(ctx context.Context) ([]mecomp.Album, error) {
	var rows []albumRow
	if err := s.db.WithContext(ctx).Order("title").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	albums := make([]mecomp.Album, 0, len(rows))

	for _, row := range rows {
		songs, err := s.albumSongs(ctx, row.ID)
		if err != nil {
			return nil, err
		}

		runtime, discCount := songAggregates(songs)

		album, err := rowToAlbum(row, runtime, len(songs), discCount)
		if err != nil {
			return nil, err
		}

		albums = append(albums, album)
	}

	return albums, nil
}

// AlbumSongs returns an album's constituent songs, used by the similarity
// engine to expand an album Thing into its songs.
func (s *Store) AlbumSongs(ctx context.Context, id mecomp.Thing) ([]mecomp.Song, error) {
	rows, err := s.albumSongs(ctx, thingToID(id))
	if err != nil {
		return nil, err
	}

	return rowsToSongs(rows)
}

func (s *Store) albumSongs(ctx context.Context, albumID string) ([]songRow, error) {
	var rows []songRow

	if err := s.db.WithContext(ctx).
		Joins("JOIN album_song ON album_song.song_id = songs.id").
		Where("album_song.album_id = ?", albumID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	return rows, nil
}

// songAggregates sums duration and counts distinct disc numbers across a
// set of song rows -- the runtime/song_count/disc_count computation spec.md
// §9 says must be maintained transactionally when the store has no
// server-side computed fields.
func songAggregates(rows []songRow) (runtime time.Duration, discCount int) {
	discs := map[int]struct{}{}

	var total int64

	for _, r := range rows {
		total += r.DurationNS

		if r.Disc != nil {
			discs[*r.Disc] = struct{}{}
		}
	}

	if len(discs) == 0 && len(rows) > 0 {
		discs[1] = struct{}{}
	}

	return time.Duration(total), len(discs)
}
