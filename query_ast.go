package mecomp

import (
	"fmt"
	"strconv"
	"strings"
)

// QueryOp is one of the dynamic-playlist grammar's comparison operators.
type QueryOp string

const (
	OpEquals    QueryOp = "="
	OpNotEquals QueryOp = "!="
	OpLess      QueryOp = "<"
	OpLessEq    QueryOp = "<="
	OpGreater   QueryOp = ">"
	OpGreaterEq QueryOp = ">="
	OpContains  QueryOp = "CONTAINS"
	OpIn        QueryOp = "IN"
)

// QueryField is one of the grammar's addressable Song fields.
type QueryField string

const (
	FieldTitle       QueryField = "title"
	FieldArtist      QueryField = "artist"
	FieldAlbumArtist QueryField = "album_artist"
	FieldAlbum       QueryField = "album"
	FieldGenre       QueryField = "genre"
	FieldRelease     QueryField = "release"
	FieldDuration    QueryField = "duration"
	FieldTrack       QueryField = "track"
	FieldDisc        QueryField = "disc"
)

// Literal is a parsed right-hand-side value: a string, an int64, a
// time.Duration (stored as int64 nanoseconds in Num), or a List of
// nested literals. Exactly one of the fields is meaningful, selected by
// Kind, so that the compiler never has to type-switch on `any`.
type Literal struct {
	Kind LiteralKind
	Str  string
	Num  int64
	List []Literal
}

type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralInt
	LiteralDuration
	LiteralList
)

func StringLiteral(s string) Literal { return Literal{Kind: LiteralString, Str: s} }
func IntLiteral(n int64) Literal     { return Literal{Kind: LiteralInt, Num: n} }
func DurationLiteral(ns int64) Literal {
	return Literal{Kind: LiteralDuration, Num: ns}
}
func ListLiteral(vs []Literal) Literal { return Literal{Kind: LiteralList, List: vs} }

// QueryExpr is any node of a dynamic playlist's parsed predicate tree:
// OrExpr, AndExpr, NotExpr, or Comparison. It evaluates against the Song
// table and re-evaluates on every read -- dynamic playlists are live views,
// never materialized.
type QueryExpr interface {
	isQueryExpr()
}

// OrExpr is a disjunction of one or more clauses (and_expr in the grammar).
type OrExpr struct {
	Clauses []QueryExpr
}

// AndExpr is a conjunction of one or more clauses (not_expr in the grammar).
type AndExpr struct {
	Clauses []QueryExpr
}

// NotExpr negates its inner expression.
type NotExpr struct {
	Inner QueryExpr
}

// Comparison is a leaf: field op literal.
type Comparison struct {
	Field QueryField
	Op    QueryOp
	Value Literal
}

func (OrExpr) isQueryExpr()     {}
func (AndExpr) isQueryExpr()    {}
func (NotExpr) isQueryExpr()    {}
func (Comparison) isQueryExpr() {}

// String renders a QueryExpr back into the grammar's textual form
// (spec.md §4.9). internal/query/parser.Parse is its left inverse: parsing
// the rendered text yields back an equal AST, which is what the dynamic
// playlist round-trip property (spec.md §8) asserts.
func (e OrExpr) String() string { return joinClauses(e.Clauses, "OR") }

func (e AndExpr) String() string { return joinClauses(e.Clauses, "AND") }

func (e NotExpr) String() string {
	if _, isLeaf := e.Inner.(Comparison); isLeaf {
		return fmt.Sprintf("NOT %s", e.Inner)
	}

	return fmt.Sprintf("NOT (%s)", e.Inner)
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, c.Value)
}

func joinClauses(clauses []QueryExpr, op string) string {
	parts := make([]string, len(clauses))

	for i, clause := range clauses {
		text := fmt.Sprintf("%s", clause)

		if _, isLeaf := clause.(Comparison); !isLeaf {
			if len(clauses) > 1 {
				text = "(" + text + ")"
			}
		}

		parts[i] = text
	}

	return strings.Join(parts, " "+op+" ")
}

// String renders a Literal back into its grammar-level textual spelling:
// a quoted string, a bare integer, a suffixed duration, or a
// bracket-delimited, comma-separated list.
func (l Literal) String() string {
	switch l.Kind {
	case LiteralString:
		return strconv.Quote(l.Str)
	case LiteralInt:
		return strconv.FormatInt(l.Num, 10)
	case LiteralDuration:
		return formatDuration(l.Num)
	case LiteralList:
		parts := make([]string, len(l.List))
		for i, v := range l.List {
			parts[i] = v.String()
		}

		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}

// formatDuration renders nanoseconds using the grammar's largest-fitting
// ISO-8601-ish suffix (h, m, s), matching how DurationLiteral values are
// parsed back by internal/query/lexer.
func formatDuration(ns int64) string {
	switch {
	case ns%3_600_000_000_000 == 0:
		return fmt.Sprintf("%dh", ns/3_600_000_000_000)
	case ns%60_000_000_000 == 0:
		return fmt.Sprintf("%dm", ns/60_000_000_000)
	default:
		return fmt.Sprintf("%ds", ns/1_000_000_000)
	}
}
