package compile

import (
	"testing"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

func TestCompileScalarComparisonParameterizesLiteral(t *testing.T) {
	expr := mecomp.Comparison{Field: mecomp.FieldTrack, Op: mecomp.OpGreaterEq, Value: mecomp.IntLiteral(5)}

	pred, err := Compile(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pred.Where != "track >= ?" {
		t.Errorf("where = %q, want a parameterized fragment", pred.Where)
	}

	if len(pred.Args) != 1 || pred.Args[0] != int64(5) {
		t.Errorf("args = %v, want [5]", pred.Args)
	}
}

func TestCompileSetComparisonUsesContainsPattern(t *testing.T) {
	expr := mecomp.Comparison{Field: mecomp.FieldGenre, Op: mecomp.OpContains, Value: mecomp.StringLiteral("rock")}

	pred, err := Compile(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pred.Args) != 1 || pred.Args[0] != `%"rock"%` {
		t.Errorf("args = %v, want a %%\"rock\"%% LIKE pattern", pred.Args)
	}
}

func TestCompileSetComparisonRejectsNonContainsOps(t *testing.T) {
	expr := mecomp.Comparison{Field: mecomp.FieldGenre, Op: mecomp.OpGreater, Value: mecomp.StringLiteral("rock")}

	if _, err := Compile(expr); err == nil {
		t.Fatal("expected an error for > on a set-valued field")
	}
}

func TestCompileAndOrNeverConcatenatesLiteralsIntoWhere(t *testing.T) {
	expr := mecomp.AndExpr{Clauses: []mecomp.QueryExpr{
		mecomp.Comparison{Field: mecomp.FieldGenre, Op: mecomp.OpEquals, Value: mecomp.StringLiteral("rock")},
		mecomp.Comparison{Field: mecomp.FieldRelease, Op: mecomp.OpGreaterEq, Value: mecomp.IntLiteral(1990)},
	}}

	pred, err := Compile(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pred.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(pred.Args))
	}

	for _, r := range pred.Where {
		_ = r
	}

	if containsLiteral(pred.Where, "rock") {
		t.Errorf("where clause %q must not embed the literal value directly", pred.Where)
	}
}

func TestCompileNotWrapsInnerPredicate(t *testing.T) {
	expr := mecomp.NotExpr{Inner: mecomp.Comparison{Field: mecomp.FieldTitle, Op: mecomp.OpEquals, Value: mecomp.StringLiteral("x")}}

	pred, err := Compile(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pred.Where != "NOT (LOWER(title) = ?)" {
		t.Errorf("where = %q", pred.Where)
	}
}

func TestCompileUnknownFieldRejected(t *testing.T) {
	expr := mecomp.Comparison{Field: mecomp.QueryField("nonsense"), Op: mecomp.OpEquals, Value: mecomp.StringLiteral("x")}

	if _, err := Compile(expr); err == nil {
		t.Fatal("expected an error for an unsupported field")
	}
}

func containsLiteral(where, literal string) bool {
	for i := 0; i+len(literal) <= len(where); i++ {
		if where[i:i+len(literal)] == literal {
			return true
		}
	}

	return false
}
