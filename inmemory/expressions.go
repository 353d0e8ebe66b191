package inmemory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/letmevibethatforyou/searchql/boolquery"
)

// evaluate reports whether the document matches q, and its relevance score.
func (s *Searcher) evaluate(doc Document, q boolquery.Query) (bool, float64) {
	switch e := q.(type) {
	case nil:
		return true, 1.0
	case boolquery.BoolQuery:
		return s.evaluateBool(doc, e)
	case boolquery.MatchQuery:
		return s.evaluateMatch(doc, e)
	case boolquery.TermQuery:
		return s.evaluateTerm(doc, e)
	case boolquery.RangeQuery:
		return s.evaluateRange(doc, e)
	default:
		// Unknown query type, match without contributing to relevance
		return true, 0
	}
}

// evaluateBool applies must, must_not and should semantics.
func (s *Searcher) evaluateBool(doc Document, q boolquery.BoolQuery) (bool, float64) {
	score := 0.0

	must := q.Must()
	for _, child := range must {
		ok, sc := s.evaluate(doc, child)
		if !ok {
			return false, 0
		}
		score += sc
	}

	for _, child := range q.MustNot() {
		if ok, _ := s.evaluate(doc, child); ok {
			return false, 0
		}
	}

	should := q.Should()
	matchedShould := 0
	for _, child := range should {
		if ok, sc := s.evaluate(doc, child); ok {
			matchedShould++
			score += sc
		}
	}
	if len(must) == 0 && len(should) > 0 && matchedShould == 0 {
		return false, 0
	}

	if score == 0 {
		score = 1.0
	}
	return true, score
}

// evaluateMatch scores free text against every field of the document.
func (s *Searcher) evaluateMatch(doc Document, q boolquery.MatchQuery) (bool, float64) {
	score := s.scoreDocument(doc, q.Text)
	if score == 0 {
		return false, 0
	}
	return true, boosted(score, q.Boost)
}

// evaluateTerm evaluates an equality or single sided comparison.
func (s *Searcher) evaluateTerm(doc Document, q boolquery.TermQuery) (bool, float64) {
	docValue, exists := doc.Fields[q.Field]
	if !exists {
		return false, 0
	}

	matched := anyValue(docValue, func(v any) bool {
		switch q.Operator {
		case boolquery.OpGt:
			return s.compareValues(v, q.Value) > 0
		case boolquery.OpGte:
			return s.compareValues(v, q.Value) >= 0
		case boolquery.OpLt:
			return s.compareValues(v, q.Value) < 0
		case boolquery.OpLte:
			return s.compareValues(v, q.Value) <= 0
		default:
			return s.compareEqual(v, q.Value)
		}
	})
	if !matched {
		return false, 0
	}
	return true, boosted(1.0, q.Boost)
}

// evaluateRange evaluates an inclusive range; nil bounds are open.
func (s *Searcher) evaluateRange(doc Document, q boolquery.RangeQuery) (bool, float64) {
	docValue, exists := doc.Fields[q.Field]
	if !exists {
		return false, 0
	}

	matched := anyValue(docValue, func(v any) bool {
		if q.Lower != nil && s.compareValues(v, q.Lower) < 0 {
			return false
		}
		if q.Upper != nil && s.compareValues(v, q.Upper) > 0 {
			return false
		}
		return true
	})
	if !matched {
		return false, 0
	}
	return true, boosted(1.0, q.Boost)
}

// anyValue applies pred to a scalar, or to each element of a multi-valued field.
func anyValue(v any, pred func(any) bool) bool {
	switch vals := v.(type) {
	case []any:
		for _, item := range vals {
			if pred(item) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range vals {
			if pred(item) {
				return true
			}
		}
		return false
	default:
		return pred(v)
	}
}

func boosted(score, boost float64) float64 {
	if boost > 0 {
		return score * boost
	}
	return score
}

// scoreDocument calculates the relevance score for a document based on free text.
func (s *Searcher) scoreDocument(doc Document, text string) float64 {
	terms := strings.Fields(strings.ToLower(text))
	if len(terms) == 0 {
		return 1.0
	}

	score := 0.0
	matchedTerms := 0

	for _, term := range terms {
		termMatched := false
		for _, value := range doc.Fields {
			if s.valueContainsTerm(value, term) {
				termMatched = true
				score += 1.0
			}
		}
		if termMatched {
			matchedTerms++
		}
	}

	if matchedTerms == 0 {
		return 0
	}

	// Boost score if all terms matched
	if matchedTerms == len(terms) {
		score *= 1.5
	}

	return score
}

// valueContainsTerm checks if a value contains the search term.
func (s *Searcher) valueContainsTerm(value any, term string) bool {
	switch v := value.(type) {
	case string:
		return strings.Contains(strings.ToLower(v), term)
	case []any:
		for _, item := range v {
			if s.valueContainsTerm(item, term) {
				return true
			}
		}
	case []string:
		for _, item := range v {
			if s.valueContainsTerm(item, term) {
				return true
			}
		}
	case map[string]any:
		for _, item := range v {
			if s.valueContainsTerm(item, term) {
				return true
			}
		}
	default:
		// Convert to string and check
		str := fmt.Sprintf("%v", v)
		return strings.Contains(strings.ToLower(str), term)
	}
	return false
}

// compareEqual checks if two values are equal.
func (s *Searcher) compareEqual(v1, v2 any) bool {
	// Handle nil cases
	if v1 == nil || v2 == nil {
		return v1 == v2
	}

	// Try numeric comparison
	if f1, ok1 := toFloat64(v1); ok1 {
		if f2, ok2 := toFloat64(v2); ok2 {
			return f1 == f2
		}
	}

	// Fall back to string comparison
	return fmt.Sprintf("%v", v1) == fmt.Sprintf("%v", v2)
}

// compareValues compares two values for sorting and range checks.
func (s *Searcher) compareValues(v1, v2 any) int {
	// Handle nil values
	if v1 == nil && v2 == nil {
		return 0
	}
	if v1 == nil {
		return -1
	}
	if v2 == nil {
		return 1
	}

	// Try to compare as numbers
	if f1, ok1 := toFloat64(v1); ok1 {
		if f2, ok2 := toFloat64(v2); ok2 {
			if f1 < f2 {
				return -1
			} else if f1 > f2 {
				return 1
			}
			return 0
		}
	}

	// Compare as strings
	s1 := fmt.Sprintf("%v", v1)
	s2 := fmt.Sprintf("%v", v2)
	return strings.Compare(s1, s2)
}

// toFloat64 attempts to convert a value to float64. Query values arrive as
// tokens, so numeric strings convert too.
func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
