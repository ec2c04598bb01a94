// Package parser implements the dynamic-playlist grammar's recursive
// descent parser (spec.md §4.9):
//
//	query    := or_expr
//	or_expr  := and_expr ( "OR" and_expr )*
//	and_expr := not_expr ( "AND" not_expr )*
//	not_expr := [ "NOT" ] atom
//	atom     := field op literal | "(" or_expr ")"
//
// Parse is the grammar's left inverse of mecomp.QueryExpr.String: parsing
// the rendered text of an AST always yields back an equal AST (spec.md §8's
// round-trip property).
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/query/lexer"
)

var (
	ErrSyntax       = errors.New("dynamic playlist query: syntax error")
	ErrUnknownOp    = errors.New("dynamic playlist query: unknown operator")
	ErrUnknownField = errors.New("dynamic playlist query: unknown field")
)

var validFields = map[string]mecomp.QueryField{ //nolint:gochecknoglobals
	"title":        mecomp.FieldTitle,
	"artist":       mecomp.FieldArtist,
	"album_artist": mecomp.FieldAlbumArtist,
	"album":        mecomp.FieldAlbum,
	"genre":        mecomp.FieldGenre,
	"release":      mecomp.FieldRelease,
	"duration":     mecomp.FieldDuration,
	"track":        mecomp.FieldTrack,
	"disc":         mecomp.FieldDisc,
}

var validOps = map[string]mecomp.QueryOp{ //nolint:gochecknoglobals
	"=":        mecomp.OpEquals,
	"!=":       mecomp.OpNotEquals,
	"<":        mecomp.OpLess,
	"<=":       mecomp.OpLessEq,
	">":        mecomp.OpGreater,
	">=":       mecomp.OpGreaterEq,
	"CONTAINS": mecomp.OpContains,
	"IN":       mecomp.OpIn,
}

// parser walks a token slice with a single lookahead position, the
// standard shape for a hand-written recursive descent parser.
type parser struct {
	tokens []lexer.Token
	pos    int
}

// Parse lexes and parses text into a mecomp.QueryExpr.
func Parse(text string) (mecomp.QueryExpr, error) {
	tokens, err := lexer.Lex(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	p := &parser{tokens: tokens}

	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.peek().Kind != lexer.EOF {
		return nil, fmt.Errorf("%w: unexpected trailing token %q", ErrSyntax, p.peek().Text)
	}

	return expr, nil
}

func (p *parser) peek() lexer.Token { return p.tokens[p.pos] }

func (p *parser) next() lexer.Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}

	return tok
}

func (p *parser) parseOr() (mecomp.QueryExpr, error) {
	clauses := []mecomp.QueryExpr{}

	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	clauses = append(clauses, first)

	for p.peek().Kind == lexer.KeywordOr {
		p.next()

		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}

		clauses = append(clauses, next)
	}

	if len(clauses) == 1 {
		return clauses[0], nil
	}

	return mecomp.OrExpr{Clauses: clauses}, nil
}

func (p *parser) parseAnd() (mecomp.QueryExpr, error) {
	clauses := []mecomp.QueryExpr{}

	first, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	clauses = append(clauses, first)

	for p.peek().Kind == lexer.KeywordAnd {
		p.next()

		next, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		clauses = append(clauses, next)
	}

	if len(clauses) == 1 {
		return clauses[0], nil
	}

	return mecomp.AndExpr{Clauses: clauses}, nil
}

func (p *parser) parseNot() (mecomp.QueryExpr, error) {
	if p.peek().Kind == lexer.KeywordNot {
		p.next()

		inner, err := p.parseAtom()
		if err != nil {
			return nil, err
		}

		return mecomp.NotExpr{Inner: inner}, nil
	}

	return p.parseAtom()
}

func (p *parser) parseAtom() (mecomp.QueryExpr, error) {
	if p.peek().Kind == lexer.LParen {
		p.next()

		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		if p.peek().Kind != lexer.RParen {
			return nil, fmt.Errorf("%w: expected ')' at position %d", ErrSyntax, p.peek().Pos)
		}

		p.next()

		return inner, nil
	}

	return p.parseComparison()
}

func (p *parser) parseComparison() (mecomp.QueryExpr, error) {
	fieldTok := p.next()
	if fieldTok.Kind != lexer.Ident {
		return nil, fmt.Errorf("%w: expected field name at position %d, got %q", ErrSyntax, fieldTok.Pos, fieldTok.Text)
	}

	field, ok := validFields[fieldTok.Text]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, fieldTok.Text)
	}

	opTok := p.next()
	if opTok.Kind != lexer.Op {
		return nil, fmt.Errorf("%w: expected operator at position %d, got %q", ErrSyntax, opTok.Pos, opTok.Text)
	}

	op, ok := validOps[opTok.Text]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, opTok.Text)
	}

	value, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}

	return mecomp.Comparison{Field: field, Op: op, Value: value}, nil
}

func (p *parser) parseLiteral() (mecomp.Literal, error) {
	tok := p.next()

	switch tok.Kind {
	case lexer.String:
		// spec.md §4.9: "Literals are lowercased for string comparisons."
		return mecomp.StringLiteral(strings.ToLower(tok.Text)), nil

	case lexer.Number:
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return mecomp.Literal{}, fmt.Errorf("%w: invalid integer %q at position %d", ErrSyntax, tok.Text, tok.Pos)
		}

		return mecomp.IntLiteral(n), nil

	case lexer.Duration:
		ns, err := parseDurationToken(tok.Text)
		if err != nil {
			return mecomp.Literal{}, err
		}

		return mecomp.DurationLiteral(ns), nil

	case lexer.LBracket:
		return p.parseList()

	default:
		return mecomp.Literal{}, fmt.Errorf("%w: expected literal at position %d, got %q", ErrSyntax, tok.Pos, tok.Text)
	}
}

func (p *parser) parseList() (mecomp.Literal, error) {
	var items []mecomp.Literal

	if p.peek().Kind == lexer.RBracket {
		p.next()

		return mecomp.ListLiteral(items), nil
	}

	for {
		item, err := p.parseLiteral()
		if err != nil {
			return mecomp.Literal{}, err
		}

		items = append(items, item)

		if p.peek().Kind == lexer.Comma {
			p.next()

			continue
		}

		break
	}

	if p.peek().Kind != lexer.RBracket {
		return mecomp.Literal{}, fmt.Errorf("%w: expected ']' at position %d", ErrSyntax, p.peek().Pos)
	}

	p.next()

	return mecomp.ListLiteral(items), nil
}

func parseDurationToken(text string) (int64, error) {
	unit := text[len(text)-1:]

	n, err := strconv.ParseInt(text[:len(text)-1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid duration %q", ErrSyntax, text)
	}

	switch unit {
	case "s":
		return n * 1_000_000_000, nil
	case "m":
		return n * 60_000_000_000, nil
	case "h":
		return n * 3_600_000_000_000, nil
	default:
		return 0, fmt.Errorf("%w: unknown duration unit %q", ErrSyntax, unit)
	}
}
