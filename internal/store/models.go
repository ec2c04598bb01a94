// Package store implements C5, the graph store: schemafull tables with
// unique-index constraints, forward/backward migrations, typed CRUD, and a
// linear-scan vector index for k-NN over Analysis features. It is built on
// gorm.io/gorm + gorm.io/driver/postgres + gorm.io/datatypes and
// github.com/rubenv/sql-migrate, grounded on Bparsons0904-waugzee/server --
// the only complete example repo with a persistence layer at all.
package store

import (
	"time"

	"gorm.io/datatypes"
)

// Row types mirror mecomp's entity types but carry gorm tags and store
// OneOrMany sets as JSON columns (datatypes.JSONSlice) since Postgres has
// no native sum-type column.

type songRow struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"index"`
	Artist      datatypes.JSONSlice[string]
	AlbumArtist datatypes.JSONSlice[string]
	Album       string `gorm:"index"`
	Genre       datatypes.JSONSlice[string]
	DurationNS  int64
	SampleRate  int
	Track       *int
	Disc        *int
	ReleaseYear *int
	Extension   string
	Path        string `gorm:"uniqueIndex"`
	AnalysisID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (songRow) TableName() string { return "songs" }

type albumRow struct {
	ID          string `gorm:"primaryKey"`
	Title       string
	Artist      datatypes.JSONSlice[string]
	ReleaseYear *int
	Genre       datatypes.JSONSlice[string]
	CreatedAt   time.Time
}

func (albumRow) TableName() string { return "albums" }

type artistRow struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex"`
	CreatedAt time.Time
}

func (artistRow) TableName() string { return "artists" }

type playlistRow struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex"`
	CreatedAt time.Time
}

func (playlistRow) TableName() string { return "playlists" }

type collectionRow struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex"`
	CreatedAt time.Time
}

func (collectionRow) TableName() string { return "collections" }

type dynamicPlaylistRow struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex"`
	QueryText string
	CreatedAt time.Time
}

func (dynamicPlaylistRow) TableName() string { return "dynamic_playlists" }

type analysisRow struct {
	ID        string `gorm:"primaryKey"`
	SongID    string `gorm:"uniqueIndex"`
	Features  datatypes.JSONSlice[float64]
	CreatedAt time.Time
}

func (analysisRow) TableName() string { return "analyses" }

// Relation tables. (in, out) is unique per table, enforced by a composite
// unique index -- RELATE is idempotent because of it.

type albumSongRow struct {
	AlbumID string `gorm:"primaryKey"`
	SongID  string `gorm:"primaryKey"`
}

func (albumSongRow) TableName() string { return "album_song" }

type artistAlbumRow struct {
	ArtistID string `gorm:"primaryKey"`
	AlbumID  string `gorm:"primaryKey"`
}

func (artistAlbumRow) TableName() string { return "artist_album" }

type artistSongRow struct {
	ArtistID string `gorm:"primaryKey"`
	SongID   string `gorm:"primaryKey"`
}

func (artistSongRow) TableName() string { return "artist_song" }

type playlistSongRow struct {
	PlaylistID string `gorm:"primaryKey"`
	SongID     string `gorm:"primaryKey"`
	Position   int
}

func (playlistSongRow) TableName() string { return "playlist_song" }

type collectionSongRow struct {
	CollectionID string `gorm:"primaryKey"`
	SongID       string `gorm:"primaryKey"`
}

func (collectionSongRow) TableName() string { return "collection_song" }

// allModels lists every row type AutoMigrate must know about, in an order
// that satisfies foreign-key dependencies.
func allModels() []any {
	return []any{
		&songRow{}, &albumRow{}, &artistRow{}, &playlistRow{}, &collectionRow{},
		&dynamicPlaylistRow{}, &analysisRow{},
		&albumSongRow{}, &artistAlbumRow{}, &artistSongRow{},
		&playlistSongRow{}, &collectionSongRow{},
	}
}
