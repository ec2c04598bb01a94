package mecomp

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Table names every entity table a Thing can point into. The order of the
// constants below carries no meaning.
type Table string

const (
	TableSong            Table = "song"
	TableAlbum           Table = "album"
	TableArtist          Table = "artist"
	TablePlaylist        Table = "playlist"
	TableDynamicPlaylist Table = "dynamic_playlist"
	TableCollection      Table = "collection"
	TableAnalysis        Table = "analysis"
)

// Thing is a table-scoped identifier: a table name paired with a 26-char
// Crockford-base32 ULID. It is the unit of reference used across every
// relation and across the similarity/radio surface.
type Thing struct {
	Table Table
	ID    ulid.ULID
}

// NewThing mints a fresh, time-sortable id for the given table. IDs minted
// within the same millisecond still sort monotonically.
func NewThing(table Table) Thing {
	return Thing{Table: table, ID: ulid.MustNew(ulid.Now(), entropySource)}
}

func (t Thing) String() string {
	return fmt.Sprintf("%s:%s", t.Table, t.ID.String())
}

// ParseThing parses the "table:ulid" form produced by String.
func ParseThing(s string) (Thing, error) {
	table, id, ok := strings.Cut(s, ":")
	if !ok {
		return Thing{}, fmt.Errorf("%w: %q has no table separator", ErrInvalidThing, s)
	}

	parsed, err := ulid.Parse(id)
	if err != nil {
		return Thing{}, fmt.Errorf("%w: %q: %w", ErrInvalidThing, s, err)
	}

	return Thing{Table: Table(table), ID: parsed}, nil
}

func (t Thing) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Thing) UnmarshalText(data []byte) error {
	parsed, err := ParseThing(string(data))
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

// entropySource is shared so bursts of NewThing calls within the same
// millisecond still sort monotonically.
var entropySource = ulid.Monotonic(rand.Reader, 0) //nolint:gochecknoglobals
