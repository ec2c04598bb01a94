// Package compile turns a parsed mecomp.QueryExpr into a store.Predicate:
// a parameterized WHERE fragment plus bound args, never a concatenated
// string, per spec.md §4.5's explicit query-AST-over-strings design note.
package compile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/store"
)

var (
	ErrUnsupportedField = errors.New("dynamic playlist query: field has no store column")
	ErrUnsupportedOp    = errors.New("dynamic playlist query: operator not supported for field")
)

// column maps a grammar field to its songs-table column, and whether that
// column is a OneOrMany JSON-set column (which only supports CONTAINS and
// singleton-equality, per spec.md §4.9).
var column = map[mecomp.QueryField]struct { //nolint:gochecknoglobals
	name string
	set  bool
}{
	mecomp.FieldTitle:       {name: "title"},
	mecomp.FieldArtist:      {name: "artist", set: true},
	mecomp.FieldAlbumArtist: {name: "album_artist", set: true},
	mecomp.FieldAlbum:       {name: "album"},
	mecomp.FieldGenre:       {name: "genre", set: true},
	mecomp.FieldRelease:     {name: "release_year"},
	mecomp.FieldDuration:    {name: "duration_ns"},
	mecomp.FieldTrack:       {name: "track"},
	mecomp.FieldDisc:        {name: "disc"},
}

// Compile walks expr and produces an equivalent store.Predicate.
func Compile(expr mecomp.QueryExpr) (store.Predicate, error) {
	switch e := expr.(type) {
	case mecomp.OrExpr:
		return joinPredicates(e.Clauses, "OR")
	case mecomp.AndExpr:
		return joinPredicates(e.Clauses, "AND")
	case mecomp.NotExpr:
		inner, err := Compile(e.Inner)
		if err != nil {
			return store.Predicate{}, err
		}

		return store.Predicate{Where: "NOT (" + inner.Where + ")", Args: inner.Args}, nil
	case mecomp.Comparison:
		return compileComparison(e)
	default:
		return store.Predicate{}, fmt.Errorf("%w: unknown query node %T", ErrUnsupportedField, expr)
	}
}

func joinPredicates(clauses []mecomp.QueryExpr, joiner string) (store.Predicate, error) {
	parts := make([]string, 0, len(clauses))

	var args []any

	for _, clause := range clauses {
		pred, err := Compile(clause)
		if err != nil {
			return store.Predicate{}, err
		}

		parts = append(parts, "("+pred.Where+")")
		args = append(args, pred.Args...)
	}

	return store.Predicate{Where: strings.Join(parts, " "+joiner+" "), Args: args}, nil
}

func compileComparison(c mecomp.Comparison) (store.Predicate, error) {
	col, ok := column[c.Field]
	if !ok {
		return store.Predicate{}, fmt.Errorf("%w: %s", ErrUnsupportedField, c.Field)
	}

	if col.set {
		return compileSetComparison(col.name, c)
	}

	return compileScalarComparison(col.name, c)
}

// compileSetComparison handles artist/album_artist/genre: CONTAINS (set
// membership) and = (singleton equality), the two operators spec.md §4.9
// allows on set-valued fields. The column stores a JSON array, so both
// forms match against the JSON text: CONTAINS as a substring match on the
// quoted value, = as whole-text equality with a one-element array. Neither
// uses a native JSON operator, since that's portable across the store's
// sqlite and postgres dialects without a driver-specific JSON operator.
func compileSetComparison(col string, c mecomp.Comparison) (store.Predicate, error) {
	switch c.Op {
	case mecomp.OpContains, mecomp.OpEquals:
		if c.Value.Kind != mecomp.LiteralString {
			return store.Predicate{}, fmt.Errorf("%w: %s requires a string literal", ErrUnsupportedOp, c.Op)
		}

		if c.Op == mecomp.OpEquals {
			singleton, _ := json.Marshal([]string{c.Value.Str})

			return store.Predicate{Where: "LOWER(" + col + ") = ?", Args: []any{string(singleton)}}, nil
		}

		return store.Predicate{Where: "LOWER(" + col + ") LIKE ?", Args: []any{"%\"" + c.Value.Str + "\"%"}}, nil
	default:
		return store.Predicate{}, fmt.Errorf("%w: %s on set field %s", ErrUnsupportedOp, c.Op, col)
	}
}

func compileScalarComparison(col string, c mecomp.Comparison) (store.Predicate, error) {
	sqlOp, ok := scalarOps[c.Op]
	if !ok {
		return store.Predicate{}, fmt.Errorf("%w: %s on scalar field %s", ErrUnsupportedOp, c.Op, col)
	}

	arg, err := literalArg(c.Value)
	if err != nil {
		return store.Predicate{}, err
	}

	lhs := col
	if c.Value.Kind == mecomp.LiteralString {
		lhs = "LOWER(" + col + ")"
	}

	if c.Op == mecomp.OpIn {
		return store.Predicate{Where: col + " IN ?", Args: []any{arg}}, nil
	}

	return store.Predicate{Where: lhs + " " + sqlOp + " ?", Args: []any{arg}}, nil
}

var scalarOps = map[mecomp.QueryOp]string{ //nolint:gochecknoglobals
	mecomp.OpEquals:    "=",
	mecomp.OpNotEquals: "!=",
	mecomp.OpLess:      "<",
	mecomp.OpLessEq:    "<=",
	mecomp.OpGreater:   ">",
	mecomp.OpGreaterEq: ">=",
	mecomp.OpIn:        "IN",
}

func literalArg(lit mecomp.Literal) (any, error) {
	switch lit.Kind {
	case mecomp.LiteralString:
		return lit.Str, nil
	case mecomp.LiteralInt, mecomp.LiteralDuration:
		return lit.Num, nil
	case mecomp.LiteralList:
		vals := make([]any, len(lit.List))

		for i, v := range lit.List {
			arg, err := literalArg(v)
			if err != nil {
				return nil, err
			}

			vals[i] = arg
		}

		return vals, nil
	default:
		return nil, fmt.Errorf("%w: literal kind %d", ErrUnsupportedField, lit.Kind)
	}
}
