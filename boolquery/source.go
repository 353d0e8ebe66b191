package boolquery

import "encoding/json"

// Source implements Query.
func (q MatchQuery) Source() map[string]any {
	params := map[string]any{"query": q.Text}
	addBoost(params, q.Boost)
	return map[string]any{"query_string": params}
}

// Source implements Query. Equality renders as a term query, comparisons as
// a single sided range query.
func (q TermQuery) Source() map[string]any {
	op := q.Operator
	if op == "" {
		op = OpValue
	}

	params := map[string]any{string(op): q.Value}
	addBoost(params, q.Boost)

	kind := "term"
	if op != OpValue {
		kind = "range"
	}
	return map[string]any{kind: map[string]any{q.Field: params}}
}

// Source implements Query.
func (q RangeQuery) Source() map[string]any {
	params := map[string]any{}
	if q.Lower != nil {
		params["gte"] = q.Lower
	}
	if q.Upper != nil {
		params["lte"] = q.Upper
	}
	addBoost(params, q.Boost)
	return map[string]any{"range": map[string]any{q.Field: params}}
}

// Source implements Query.
func (b BoolQuery) Source() map[string]any {
	params := map[string]any{}
	addClauses(params, "must", b.must)
	addClauses(params, "should", b.should)
	addClauses(params, "must_not", b.mustNot)
	return map[string]any{"bool": params}
}

// MarshalJSON renders the query DSL.
func (q MatchQuery) MarshalJSON() ([]byte, error) { return json.Marshal(q.Source()) }

// MarshalJSON renders the query DSL.
func (q TermQuery) MarshalJSON() ([]byte, error) { return json.Marshal(q.Source()) }

// MarshalJSON renders the query DSL.
func (q RangeQuery) MarshalJSON() ([]byte, error) { return json.Marshal(q.Source()) }

// MarshalJSON renders the query DSL.
func (b BoolQuery) MarshalJSON() ([]byte, error) { return json.Marshal(b.Source()) }

// Request wraps q in a search request body. A nil query matches all documents.
func Request(q Query) map[string]any {
	if q == nil {
		return map[string]any{"query": map[string]any{"match_all": map[string]any{}}}
	}
	return map[string]any{"query": q.Source()}
}

func addBoost(params map[string]any, boost float64) {
	if boost != 0 {
		params["boost"] = boost
	}
}

func addClauses(params map[string]any, slot string, qs []Query) {
	if len(qs) == 0 {
		return
	}
	clauses := make([]map[string]any, 0, len(qs))
	for _, q := range qs {
		clauses = append(clauses, q.Source())
	}
	params[slot] = clauses
}
