package mecomp

import "time"

// AnalysisDimension is the width of the stored feature vector. Changing it
// is a schema migration: dependent Analysis rows are cleared and the vector
// index is redefined at the new dimension (internal/store/migrations).
const AnalysisDimension = 23

// Song is the primary library entity. Path is canonical (cleaned, absolute)
// and unique -- at most one Song per path. AnalysisID is nil until the
// ingestor's worker pool has produced an Analysis for this file.
type Song struct {
	ID          Thing
	Title       string
	Artist      OneOrMany[string]
	AlbumArtist OneOrMany[string]
	Album       string
	Genre       OneOrMany[string]
	Duration    time.Duration
	SampleRate  int
	Track       *int
	Disc        *int
	ReleaseYear *int
	Extension   string
	Path        string
	AnalysisID  *Thing
}

// Album is derived: identified by (Title, ArtistSet). Runtime and SongCount
// are computed aggregates over the album->song relation, maintained
// transactionally by the ingestor since the store has no server-side
// computed-field mechanism (see DESIGN.md).
type Album struct {
	ID          Thing
	Title       string
	Artist      OneOrMany[string]
	ReleaseYear *int
	Runtime     time.Duration
	SongCount   int
	DiscCount   int
	Genre       OneOrMany[string]
}

// Artist is derived and keyed by canonical Name; the ingestor merges by
// exact match after artist-separator splitting.
type Artist struct {
	ID         Thing
	Name       string
	Runtime    time.Duration
	AlbumCount int
	SongCount  int
}

// Playlist is a user-curated ordered set of songs. Runtime and SongCount
// are derived the same way Album's are.
type Playlist struct {
	ID        Thing
	Name      string
	Runtime   time.Duration
	SongCount int
}

// DynamicPlaylist is a saved query: Query always parses (it is stored
// already-parsed) and is re-evaluated against the current library on every
// read.
type DynamicPlaylist struct {
	ID    Thing
	Name  string
	Query QueryExpr
}

// Collection is a clustering output. Membership is set wholesale by the
// clusterer on each recluster; nothing else writes to a Collection's
// members.
type Collection struct {
	ID        Thing
	Name      string
	Runtime   time.Duration
	SongCount int
}

// Analysis is the fixed-width perceptual feature vector for one song.
// Features has exactly AnalysisDimension entries; the layout (which slot
// holds which descriptor) is internal/analysis.Layout. Every Analysis is
// reachable from exactly one Song via the analysis->song relation.
type Analysis struct {
	ID Thing
	// Features always has AnalysisDimension entries; the length is a
	// runtime-checked invariant rather than a compile-time array size
	// because the dimension itself is a migratable schema constant.
	Features []float64
}
