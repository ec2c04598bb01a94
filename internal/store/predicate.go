package store

import (
	"context"
	"fmt"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

// Predicate is a parameterized WHERE fragment plus its bound arguments --
// the only shape internal/query/compile is allowed to hand the store.
// Built exclusively by walking a mecomp.QueryExpr tree (never by
// concatenating a user-supplied string), per spec.md §4.5's query-AST
// design note.
type Predicate struct {
	Where string
	Args  []any
}

// RunPredicate evaluates pred against the songs table -- the mechanism
// dynamic playlists use to re-evaluate their query on every read (spec.md
// §4.9: "playlists are live views").
func (s *Store) RunPredicate(ctx context.Context, pred Predicate) ([]mecomp.Song, error) {
	var rows []songRow

	q := s.db.WithContext(ctx)
	if pred.Where != "" {
		q = q.Where(pred.Where, pred.Args...)
	}

	if err := q.Order("path").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: running dynamic playlist query: %w", ErrDatabase, err)
	}

	return rowsToSongs(rows)
}

// CreateDynamicPlaylist saves a dynamic playlist's name and already-parsed
// query text (mecomp.QueryExpr.String() form). Name must be unique.
func (s *Store) CreateDynamicPlaylist(ctx context.Context, name, queryText string) (mecomp.Thing, error) {
	row := dynamicPlaylistRow{
		ID:        thingToID(mecomp.NewThing(mecomp.TableDynamicPlaylist)),
		Name:      name,
		QueryText: queryText,
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return mecomp.Thing{}, fmt.Errorf("%w: dynamic playlist %q", mecomp.ErrNameTaken, name)
		}

		return mecomp.Thing{}, fmt.Errorf("%w: creating dynamic playlist %q: %w", ErrDatabase, name, err)
	}

	return idToThing(mecomp.TableDynamicPlaylist, row.ID)
}

// GetDynamicPlaylistQueryText returns the stored query text for re-parsing.
func (s *Store) GetDynamicPlaylistQueryText(ctx context.Context, id mecomp.Thing) (name, queryText string, err error) {
	var row dynamicPlaylistRow

	if err := s.db.WithContext(ctx).Where("id = ?", thingToID(id)).First(&row).Error; err != nil {
		return "", "", fmt.Errorf("%w: dynamic playlist %s: %w", mecomp.ErrNotFound, id, err)
	}

	return row.Name, row.QueryText, nil
}

// ListDynamicPlaylists returns every saved dynamic playlist's id, name and
// stored query text (unparsed -- callers re-parse via
// internal/query/parser before evaluating).
func (s *Store) ListDynamicPlaylists(ctx context.Context) ([]DynamicPlaylistRecord, error) {
	var rows []dynamicPlaylistRow
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	out := make([]DynamicPlaylistRecord, 0, len(rows))

	for _, row := range rows {
		id, err := idToThing(mecomp.TableDynamicPlaylist, row.ID)
		if err != nil {
			return nil, err
		}

		out = append(out, DynamicPlaylistRecord{ID: id, Name: row.Name, QueryText: row.QueryText})
	}

	return out, nil
}

// DynamicPlaylistRecord is a saved dynamic playlist's persisted shape:
// its query is kept as text so it can be re-parsed (and therefore
// re-evaluated against the live library) on every read, never cached as a
// materialized result set.
type DynamicPlaylistRecord struct {
	ID        mecomp.Thing
	Name      string
	QueryText string
}

// DeleteDynamicPlaylist removes a saved dynamic playlist.
func (s *Store) DeleteDynamicPlaylist(ctx context.Context, id mecomp.Thing) error {
	if err := s.db.WithContext(ctx).Where("id = ?", thingToID(id)).Delete(&dynamicPlaylistRow{}).Error; err != nil {
		return fmt.Errorf("%w: deleting dynamic playlist %s: %w", ErrDatabase, id, err)
	}

	return nil
}
