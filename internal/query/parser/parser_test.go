package parser

import (
	"testing"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

func TestParseSimpleComparison(t *testing.T) {
	expr, err := Parse(`genre = "rock"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmp, ok := expr.(mecomp.Comparison)
	if !ok {
		t.Fatalf("got %T, want Comparison", expr)
	}

	if cmp.Field != mecomp.FieldGenre || cmp.Op != mecomp.OpEquals {
		t.Fatalf("got field=%v op=%v, want genre/=", cmp.Field, cmp.Op)
	}

	if cmp.Value.String() != `"rock"` {
		t.Fatalf("value = %s, want \"rock\"", cmp.Value.String())
	}
}

func TestParseAndOrPrecedence(t *testing.T) {
	expr, err := Parse(`genre = "rock" AND release >= 1990 OR artist = "Bach"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	or, ok := expr.(mecomp.OrExpr)
	if !ok {
		t.Fatalf("got %T, want top-level OrExpr (AND binds tighter than OR)", expr)
	}

	if len(or.Clauses) != 2 {
		t.Fatalf("got %d OR clauses, want 2", len(or.Clauses))
	}

	if _, ok := or.Clauses[0].(mecomp.AndExpr); !ok {
		t.Fatalf("first OR clause = %T, want AndExpr", or.Clauses[0])
	}
}

func TestParseNotAndParens(t *testing.T) {
	expr, err := Parse(`NOT (genre = "rock" OR genre = "pop")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	not, ok := expr.(mecomp.NotExpr)
	if !ok {
		t.Fatalf("got %T, want NotExpr", expr)
	}

	if _, ok := not.Inner.(mecomp.OrExpr); !ok {
		t.Fatalf("inner = %T, want OrExpr", not.Inner)
	}
}

func TestParseList(t *testing.T) {
	expr, err := Parse(`genre IN ["rock", "pop", "jazz"]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmp := expr.(mecomp.Comparison) //nolint:forcetypeassert

	if cmp.Op != mecomp.OpIn {
		t.Fatalf("op = %v, want IN", cmp.Op)
	}

	if len(cmp.Value.List) != 3 {
		t.Fatalf("got %d list items, want 3", len(cmp.Value.List))
	}
}

func TestParseDurationLiteral(t *testing.T) {
	expr, err := Parse(`duration > 3m`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmp := expr.(mecomp.Comparison) //nolint:forcetypeassert

	want := int64(3 * 60 * 1_000_000_000)
	if cmp.Value.Num != want {
		t.Fatalf("got %d ns, want %d", cmp.Value.Num, want)
	}
}

func TestParseRoundTripsThroughString(t *testing.T) {
	original, err := Parse(`(genre = "rock" AND track <= 5) OR NOT artist = "Bach"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reparsed, err := Parse(original.String())
	if err != nil {
		t.Fatalf("re-parsing rendered text: %v", err)
	}

	if original.String() != reparsed.String() {
		t.Fatalf("round trip mismatch:\n  original: %s\n  reparsed: %s", original.String(), reparsed.String())
	}
}

func TestParseUnknownFieldRejected(t *testing.T) {
	if _, err := Parse(`nonsense = "x"`); err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestParseUnterminatedParenRejected(t *testing.T) {
	if _, err := Parse(`(genre = "rock"`); err == nil {
		t.Fatal("expected a syntax error for an unterminated paren")
	}
}
