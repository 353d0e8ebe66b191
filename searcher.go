package searchql

import (
	"context"

	"github.com/letmevibethatforyou/searchql/boolquery"
)

// Searcher executes compiled boolean queries against a search backend.
type Searcher interface {
	// Search executes q with the given options. A nil q matches all documents.
	Search(ctx context.Context, q boolquery.Query, opts ...SearchOption) (*Results, error)
}

// SearcherFunc is a function type that implements the Searcher interface.
// This allows using a function as a Searcher, similar to http.HandlerFunc.
type SearcherFunc func(context.Context, boolquery.Query, ...SearchOption) (*Results, error)

// Search implements the Searcher interface for SearcherFunc.
func (f SearcherFunc) Search(ctx context.Context, q boolquery.Query, opts ...SearchOption) (*Results, error) {
	return f(ctx, q, opts...)
}
