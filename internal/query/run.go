// Package query ties the dynamic-playlist grammar together: lexer ->
// parser -> compile -> store, matching spec.md §4.9's "run_query(dp) ->
// Song[]" contract. Dynamic playlists are live views -- Run always
// re-parses and re-compiles the stored query text before evaluating it.
package query

import (
	"context"
	"fmt"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/query/compile"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/query/parser"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/store"
)

// Parse validates that queryText parses without error -- the same check
// Create runs (via parser.Parse) to reject a bad query before it's ever
// saved.
func Parse(queryText string) (mecomp.QueryExpr, error) {
	return parser.Parse(queryText)
}

// Run evaluates queryText against the store's current song table.
func Run(ctx context.Context, st *store.Store, queryText string) ([]mecomp.Song, error) {
	expr, err := parser.Parse(queryText)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	pred, err := compile.Compile(expr)
	if err != nil {
		return nil, err
	}

	return st.RunPredicate(ctx, pred)
}

// RunDynamicPlaylist resolves a saved dynamic playlist by id and evaluates
// its stored query text against the current library.
func RunDynamicPlaylist(ctx context.Context, st *store.Store, id mecomp.Thing) ([]mecomp.Song, error) {
	_, queryText, err := st.GetDynamicPlaylistQueryText(ctx, id)
	if err != nil {
		return nil, err
	}

	return Run(ctx, st, queryText)
}

// Create parses queryText (returning the parser's ErrSyntax, ErrUnknownField
// or ErrUnknownOp error if it doesn't parse, per the dynamic_create
// command's contract), then saves
// the AST's canonical rendering rather than the caller's raw text so that
// two differently-whitespaced equivalent queries are stored identically.
func Create(ctx context.Context, st *store.Store, name, queryText string) (mecomp.Thing, error) {
	expr, err := parser.Parse(queryText)
	if err != nil {
		return mecomp.Thing{}, err
	}

	canonical := fmt.Sprintf("%s", expr)

	return st.CreateDynamicPlaylist(ctx, name, canonical)
}
