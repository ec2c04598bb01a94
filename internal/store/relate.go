package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

var onConflictDoNothing = clause.OnConflict{DoNothing: true} //nolint:gochecknoglobals


// relate inserts an (in, out) edge row, relying on the row's composite
// primary key (both columns) to make the insert idempotent -- a second
// RELATE of the same pair is a silent no-op rather than a duplicate row or
// an error, matching spec.md §4.5's "RELATE is idempotent via unique
// indexes" note.
func relate(tx *gorm.DB, row any) error {
	if err := tx.Clauses(onConflictDoNothing).Create(row).Error; err != nil {
		return fmt.Errorf("%w: relating: %w", ErrDatabase, err)
	}

	return nil
}

// unrelate implements the canonical "DELETE $src->EDGE WHERE out IN
// $targets" form: it deletes every edge row from table whose in-column
// equals srcID and whose out-column is one of targetIDs.
func unrelate(tx *gorm.DB, table string, inCol, outCol, srcID string, targetIDs []string) error {
	if len(targetIDs) == 0 {
		return nil
	}

	if err := tx.Table(table).
		Where(inCol+" = ? AND "+outCol+" IN ?", srcID, targetIDs).
		Delete(nil).Error; err != nil {
		return fmt.Errorf("%w: unrelating %s: %w", ErrDatabase, table, err)
	}

	return nil
}

// relatedOut implements the canonical "SELECT * FROM $src->EDGE.out" form,
// returning every out-id related to srcID through table.
func relatedOut(tx *gorm.DB, table string, inCol, outCol, srcID string) ([]string, error) {
	var ids []string

	if err := tx.Table(table).Where(inCol+" = ?", srcID).Pluck(outCol, &ids).Error; err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrDatabase, table, err)
	}

	return ids, nil
}

// RelateAlbumSong records that song belongs to album -- the ingestor calls
// this once per scanned file (spec.md §4.6).
func (s *Store) RelateAlbumSong(ctx context.Context, albumID, songID mecomp.Thing) error {
	return relate(s.db.WithContext(ctx), &albumSongRow{AlbumID: thingToID(albumID), SongID: thingToID(songID)})
}

// RelateArtistSong records that song was made by artist.
func (s *Store) RelateArtistSong(ctx context.Context, artistID, songID mecomp.Thing) error {
	return relate(s.db.WithContext(ctx), &artistSongRow{ArtistID: thingToID(artistID), SongID: thingToID(songID)})
}

// RelateArtistAlbum records that artist contributed to album.
func (s *Store) RelateArtistAlbum(ctx context.Context, artistID, albumID mecomp.Thing) error {
	return relate(s.db.WithContext(ctx), &artistAlbumRow{ArtistID: thingToID(artistID), AlbumID: thingToID(albumID)})
}
