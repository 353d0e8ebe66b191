// Package boolquery models the composable boolean query of a full-text search
// backend: free-text match, exact term, range, and a bool container with
// must, should and must_not slots.
//
// Values are plain carriers. Nothing here validates field names or bound
// ordering; a RangeQuery with Lower > Upper is accepted as is.
package boolquery

// Operator is the comparison applied by a TermQuery.
type Operator string

const (
	// OpValue is exact equality.
	OpValue Operator = "value"
	// OpGt represents greater-than.
	OpGt Operator = "gt"
	// OpGte represents greater-than-or-equal.
	OpGte Operator = "gte"
	// OpLt represents less-than.
	OpLt Operator = "lt"
	// OpLte represents less-than-or-equal.
	OpLte Operator = "lte"
)

// Query is any node of a boolean query.
type Query interface {
	// Source returns the Elasticsearch query DSL for the query.
	Source() map[string]any
	// query is a marker method that seals the set of query types.
	query()
}

type baseQuery struct{}

func (baseQuery) query() {}

// MatchQuery is a free-text query over the default search fields.
type MatchQuery struct {
	baseQuery
	// Text is the word or phrase to match.
	Text string
	// Boost is the relevance weight; 0 means unset.
	Boost float64
}

// Match creates a free-text query.
func Match(text string) MatchQuery {
	return MatchQuery{Text: text}
}

// WithBoost returns a copy of q carrying the given weight.
func (q MatchQuery) WithBoost(boost float64) MatchQuery {
	q.Boost = boost
	return q
}

// TermQuery is an exact-match or single-sided comparison on one field.
type TermQuery struct {
	baseQuery
	// Field is the backend field name.
	Field string
	// Operator is OpValue for equality or one of the comparison operators.
	Operator Operator
	// Value is the scalar compared against.
	Value any
	// Boost is the relevance weight; 0 means unset.
	Boost float64
}

// Term creates an equality query.
func Term(field string, value any) TermQuery {
	return TermQuery{Field: field, Operator: OpValue, Value: value}
}

// Compare creates a comparison query.
func Compare(field string, op Operator, value any) TermQuery {
	return TermQuery{Field: field, Operator: op, Value: value}
}

// WithBoost returns a copy of q carrying the given weight.
func (q TermQuery) WithBoost(boost float64) TermQuery {
	q.Boost = boost
	return q
}

// RangeQuery matches values between two inclusive bounds. A nil bound is open.
type RangeQuery struct {
	baseQuery
	// Field is the backend field name.
	Field string
	// Lower is the inclusive lower bound.
	Lower any
	// Upper is the inclusive upper bound.
	Upper any
	// Boost is the relevance weight; 0 means unset.
	Boost float64
}

// Range creates a range query.
func Range(field string, lower, upper any) RangeQuery {
	return RangeQuery{Field: field, Lower: lower, Upper: upper}
}

// WithBoost returns a copy of q carrying the given weight.
func (q RangeQuery) WithBoost(boost float64) RangeQuery {
	q.Boost = boost
	return q
}

// BoolQuery composes child queries. A document matches when it matches every
// must query, no must_not query, and, if there are no must queries, at least
// one should query. Should matches contribute to relevance either way.
//
// A BoolQuery is immutable: slots are copied in and out.
type BoolQuery struct {
	baseQuery
	must    []Query
	should  []Query
	mustNot []Query
}

// NewBool creates a bool query from fully assembled slots.
func NewBool(must, should, mustNot []Query) BoolQuery {
	return BoolQuery{
		must:    clone(must),
		should:  clone(should),
		mustNot: clone(mustNot),
	}
}

// Must creates a bool query whose children are all required.
func Must(queries ...Query) BoolQuery {
	return NewBool(queries, nil, nil)
}

// Should creates a bool query whose children are optional alternatives.
func Should(queries ...Query) BoolQuery {
	return NewBool(nil, queries, nil)
}

// MustNot creates a bool query whose children are all forbidden.
func MustNot(queries ...Query) BoolQuery {
	return NewBool(nil, nil, queries)
}

// Must returns the required children.
func (b BoolQuery) Must() []Query { return clone(b.must) }

// Should returns the optional children.
func (b BoolQuery) Should() []Query { return clone(b.should) }

// MustNot returns the forbidden children.
func (b BoolQuery) MustNot() []Query { return clone(b.mustNot) }

// Empty reports whether all three slots are empty.
func (b BoolQuery) Empty() bool {
	return len(b.must) == 0 && len(b.should) == 0 && len(b.mustNot) == 0
}

func clone(qs []Query) []Query {
	if len(qs) == 0 {
		return nil
	}
	out := make([]Query, len(qs))
	copy(out, qs)
	return out
}
