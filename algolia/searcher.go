package algolia

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchql"
	"github.com/letmevibethatforyou/searchql/boolquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Searcher implements the searchql.Searcher interface using Algolia.
type Searcher struct {
	client    *Client
	indexName string
}

// NewSearcher creates a new Algolia searcher for the specified index.
func NewSearcher(client *Client, indexName string) *Searcher {
	return &Searcher{
		client:    client,
		indexName: indexName,
	}
}

// Search implements the searchql.Searcher interface using Algolia search.
func (s *Searcher) Search(ctx context.Context, q boolquery.Query, opts ...searchql.SearchOption) (*searchql.Results, error) {
	startTime := time.Now()

	// Check context
	select {
	case <-ctx.Done():
		return nil, searchql.ErrCanceled
	default:
	}

	cfg := searchql.NewSearchConfig(opts...)

	ctx, span := s.client.tracer.Start(ctx, "algolia.search",
		trace.WithAttributes(
			attribute.String("algolia.index_name", s.indexName),
		),
	)
	defer span.End()

	// Build search parameters
	text, params, err := buildSearchParams(q, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query cannot be expressed in Algolia")
		return nil, err
	}
	params = append(params, ctx)

	// Get Algolia client
	algoliaClient, err := s.client.getClient()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return nil, errors.WithSecondaryError(
			searchql.ErrBackendUnavailable,
			errors.Wrapf(err, "failed to get Algolia client"),
		)
	}

	// Get index
	index := algoliaClient.InitIndex(s.indexName)

	// Execute search
	res, err := index.Search(text, params...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")

		// Check if this is a timeout or cancellation error
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, searchql.ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return nil, searchql.ErrCanceled
		}

		// For other Algolia errors, treat as backend unavailable
		return nil, errors.WithSecondaryError(
			searchql.ErrBackendUnavailable,
			errors.Wrapf(err, "Algolia search failed"),
		)
	}
	span.SetAttributes(attribute.Int("algolia.nb_hits", res.NbHits))
	span.SetStatus(codes.Ok, "search succeeded")

	// Convert results
	results := &searchql.Results{
		Items:    make([]searchql.Result, 0, len(res.Hits)),
		Total:    int64(res.NbHits),
		Query:    boolquery.Request(q),
		Took:     time.Since(startTime).Milliseconds(),
		MaxScore: 0.0,
	}

	// Convert hits to results
	for _, hit := range res.Hits {
		// Extract objectID
		objectID, ok := hit["objectID"].(string)
		if !ok {
			objectID = ""
		}

		// Calculate score (Algolia doesn't provide scores directly, use rank-based scoring)
		score := calculateScore(len(res.Hits), len(results.Items))
		if score > results.MaxScore {
			results.MaxScore = score
		}

		results.Items = append(results.Items, searchql.Result{
			ID:     objectID,
			Score:  score,
			Fields: hit,
		})
	}

	// Set next offset for pagination
	nextPage := res.Page + 1
	if nextPage < res.NbPages {
		nextOffset := nextPage * cfg.Limit
		results.NextOffset = &nextOffset
	}

	return results, nil
}

// buildSearchParams converts a compiled query and search config into Algolia
// query text and search parameters. Algolia keeps free text and filters
// apart: match queries become query words and everything else becomes the
// filter string. Queries whose boolean structure does not survive that split
// are rejected with searchql.ErrNotImplemented.
func buildSearchParams(q boolquery.Query, cfg *searchql.SearchConfig) (string, []interface{}, error) {
	if err := checkTranslatable(q, slotMust); err != nil {
		return "", nil, errors.WithSecondaryError(searchql.ErrNotImplemented, err)
	}

	var params []interface{}

	// Set pagination
	params = append(params, opt.HitsPerPage(cfg.Limit))
	if cfg.Offset > 0 {
		page := cfg.Offset / cfg.Limit
		params = append(params, opt.Page(page))
	}

	var text textParts
	text.collect(q, slotMust)

	if len(text.optional) > 0 {
		params = append(params, opt.OptionalWords(text.optional...))
	}
	if len(text.excluded) > 0 {
		params = append(params, opt.AdvancedSyntax(true))
	}

	if filter := convertQueryToFilter(q); filter != "" {
		params = append(params, opt.Filters(filter))
	}

	return text.String(), params, nil
}

type slot int

const (
	slotMust slot = iota
	slotShould
	slotMustNot
)

// textParts accumulates the free-text words of a query.
type textParts struct {
	words    []string
	optional []string
	excluded []string
}

func (t *textParts) collect(q boolquery.Query, in slot) {
	switch e := q.(type) {
	case boolquery.MatchQuery:
		word := quoteWords(e.Text)
		switch in {
		case slotMustNot:
			t.excluded = append(t.excluded, "-"+word)
		case slotShould:
			t.words = append(t.words, word)
			t.optional = append(t.optional, e.Text)
		default:
			t.words = append(t.words, word)
		}
	case boolquery.BoolQuery:
		for _, child := range e.Must() {
			t.collect(child, in)
		}
		for _, child := range e.Should() {
			if in == slotMustNot {
				t.collect(child, slotMustNot)
				continue
			}
			t.collect(child, slotShould)
		}
		for _, child := range e.MustNot() {
			if in == slotMustNot {
				// A double negation is a requirement again
				t.collect(child, slotMust)
				continue
			}
			t.collect(child, slotMustNot)
		}
	}
}

// checkTranslatable walks q with the same slot rules as collect and reports
// the shapes that would change meaning once words and filters are split.
func checkTranslatable(q boolquery.Query, in slot) error {
	b, ok := q.(boolquery.BoolQuery)
	if !ok {
		return nil
	}

	if in == slotMustNot && len(b.Must()) > 1 && anyText(b.Must()) {
		// -a -b means NOT a AND NOT b, not NOT (a AND b)
		return errors.Newf("cannot negate a conjunction of %d clauses containing free text", len(b.Must()))
	}
	if in != slotMustNot && anyText(b.Should()) && anyFilter(b.Should()) {
		// optional words cannot be OR-ed with a required filter
		return errors.New("cannot combine free text and filters in a disjunction")
	}

	for _, child := range b.Must() {
		if err := checkTranslatable(child, in); err != nil {
			return err
		}
	}
	for _, child := range b.Should() {
		next := slotShould
		if in == slotMustNot {
			next = slotMustNot
		}
		if err := checkTranslatable(child, next); err != nil {
			return err
		}
	}
	for _, child := range b.MustNot() {
		next := slotMustNot
		if in == slotMustNot {
			next = slotMust
		}
		if err := checkTranslatable(child, next); err != nil {
			return err
		}
	}
	return nil
}

func anyText(qs []boolquery.Query) bool {
	for _, q := range qs {
		if hasText(q) {
			return true
		}
	}
	return false
}

func anyFilter(qs []boolquery.Query) bool {
	for _, q := range qs {
		if convertQueryToFilter(q) != "" {
			return true
		}
	}
	return false
}

// hasText reports whether q contains a match query anywhere below it.
func hasText(q boolquery.Query) bool {
	switch e := q.(type) {
	case boolquery.MatchQuery:
		return true
	case boolquery.BoolQuery:
		return anyText(e.Must()) || anyText(e.Should()) || anyText(e.MustNot())
	default:
		return false
	}
}

// String joins the collected words into Algolia query text.
func (t *textParts) String() string {
	parts := make([]string, 0, len(t.words)+len(t.excluded))
	parts = append(parts, t.words...)
	parts = append(parts, t.excluded...)
	return strings.Join(parts, " ")
}

// quoteWords wraps multi-word phrases in quotes so Algolia treats them as a phrase.
func quoteWords(text string) string {
	if strings.ContainsAny(text, " \t") {
		return `"` + strings.ReplaceAll(text, `"`, ``) + `"`
	}
	return text
}

// calculateScore creates a rank-based score for Algolia results
// Since Algolia doesn't provide relevance scores directly, we use position-based scoring
func calculateScore(totalResults, position int) float64 {
	if totalResults == 0 {
		return 1.0
	}
	// Higher positions get higher scores (inverse rank)
	return float64(totalResults-position) / float64(totalResults)
}

// convertQueryToFilter converts a compiled query to an Algolia filter string.
// Match queries carry no filter and convert to the empty string.
func convertQueryToFilter(q boolquery.Query) string {
	switch e := q.(type) {
	case boolquery.BoolQuery:
		return convertBoolQuery(e)
	case boolquery.TermQuery:
		return convertTermQuery(e)
	case boolquery.RangeQuery:
		return convertRangeQuery(e)
	default:
		return ""
	}
}

// convertBoolQuery converts a bool query to Algolia filter syntax
func convertBoolQuery(q boolquery.BoolQuery) string {
	var clauses []string

	for _, child := range q.Must() {
		if filter := convertQueryToFilter(child); filter != "" {
			clauses = append(clauses, "("+filter+")")
		}
	}

	if should := joinFilters(q.Should(), " OR "); should != "" {
		clauses = append(clauses, "("+should+")")
	}

	for _, child := range q.MustNot() {
		if filter := convertQueryToFilter(child); filter != "" {
			clauses = append(clauses, "NOT ("+filter+")")
		}
	}

	return strings.Join(clauses, " AND ")
}

func joinFilters(qs []boolquery.Query, sep string) string {
	filters := make([]string, 0, len(qs))
	for _, child := range qs {
		if filter := convertQueryToFilter(child); filter != "" {
			filters = append(filters, "("+filter+")")
		}
	}
	return strings.Join(filters, sep)
}

// convertTermQuery converts an equality or comparison to Algolia filter syntax
func convertTermQuery(q boolquery.TermQuery) string {
	field := escapeField(q.Field)
	switch q.Operator {
	case boolquery.OpGt:
		return fmt.Sprintf("%s > %s", field, escapeNumericValue(q.Value))
	case boolquery.OpGte:
		return fmt.Sprintf("%s >= %s", field, escapeNumericValue(q.Value))
	case boolquery.OpLt:
		return fmt.Sprintf("%s < %s", field, escapeNumericValue(q.Value))
	case boolquery.OpLte:
		return fmt.Sprintf("%s <= %s", field, escapeNumericValue(q.Value))
	default:
		return fmt.Sprintf("%s:%s", field, escapeValue(q.Value))
	}
}

// convertRangeQuery converts a range query to Algolia filter syntax
func convertRangeQuery(q boolquery.RangeQuery) string {
	field := escapeField(q.Field)
	switch {
	case q.Lower != nil && q.Upper != nil:
		return fmt.Sprintf("%s:%s TO %s", field, escapeNumericValue(q.Lower), escapeNumericValue(q.Upper))
	case q.Lower != nil:
		return fmt.Sprintf("%s >= %s", field, escapeNumericValue(q.Lower))
	case q.Upper != nil:
		return fmt.Sprintf("%s <= %s", field, escapeNumericValue(q.Upper))
	default:
		return ""
	}
}

// escapeField escapes field names for Algolia filters
func escapeField(field string) string {
	// Algolia field names with special characters should be quoted
	if strings.ContainsAny(field, " :-()") {
		return fmt.Sprintf(`"%s"`, field)
	}
	return field
}

// escapeValue escapes string values for Algolia filters
func escapeValue(value interface{}) string {
	if value == nil {
		return "null"
	}

	switch v := value.(type) {
	case string:
		// Quote string values and escape internal quotes
		escaped := strings.ReplaceAll(v, `"`, `\"`)
		return fmt.Sprintf(`"%s"`, escaped)
	case bool:
		return fmt.Sprintf(`"%s"`, strconv.FormatBool(v))
	default:
		return fmt.Sprintf(`"%v"`, value)
	}
}

// escapeNumericValue escapes numeric values for Algolia filters
func escapeNumericValue(value interface{}) string {
	if value == nil {
		return "0"
	}

	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%v", v)
	case float32, float64:
		return fmt.Sprintf("%v", v)
	default:
		// Try to parse as number, otherwise treat as string
		if str := fmt.Sprintf("%v", value); str != "" {
			if _, err := strconv.ParseFloat(str, 64); err == nil {
				return str
			}
		}
		return escapeValue(value)
	}
}
