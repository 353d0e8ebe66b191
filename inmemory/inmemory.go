package inmemory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchql"
	"github.com/letmevibethatforyou/searchql/boolquery"
)

// Document represents a JSON document in the in-memory database.
type Document struct {
	// ID is the unique identifier for the document.
	ID string
	// Fields contains the document's data as key-value pairs.
	Fields map[string]any
}

// Searcher implements the searchql.Searcher interface using an in-memory store.
type Searcher struct {
	mu        sync.RWMutex
	documents []Document
	idIndex   map[string]int // maps document ID to index in documents slice
}

// New creates a new in-memory searcher.
// The searcher is ready to use and is safe for concurrent operations.
func New() *Searcher {
	return &Searcher{
		documents: make([]Document, 0),
		idIndex:   make(map[string]int),
	}
}

// AddDocument adds a document to the in-memory store.
// If a document with the same ID already exists, it will be updated.
// This method is safe for concurrent use.
func (s *Searcher) AddDocument(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, exists := s.idIndex[doc.ID]; exists {
		// Update existing document
		s.documents[idx] = doc
	} else {
		// Add new document
		s.idIndex[doc.ID] = len(s.documents)
		s.documents = append(s.documents, doc)
	}
}

// AddJSON adds a JSON document to the in-memory store by parsing the provided JSON data.
// If a document with the same ID already exists, it will be updated.
// This method is safe for concurrent use.
func (s *Searcher) AddJSON(id string, jsonData []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(jsonData, &fields); err != nil {
		return errors.Wrap(err, "failed to unmarshal JSON")
	}

	s.AddDocument(Document{
		ID:     id,
		Fields: fields,
	})
	return nil
}

// AddJSONDocuments adds every object of a JSON array. Each object must carry
// its identifier in an "id" or "objectID" string field.
func (s *Searcher) AddJSONDocuments(jsonData []byte) error {
	var objects []map[string]any
	if err := json.Unmarshal(jsonData, &objects); err != nil {
		return errors.Wrap(err, "failed to unmarshal JSON documents")
	}

	for i, fields := range objects {
		id, _ := fields["id"].(string)
		if id == "" {
			id, _ = fields["objectID"].(string)
		}
		if id == "" {
			return errors.Newf("document %d has no id", i)
		}
		s.AddDocument(Document{ID: id, Fields: fields})
	}
	return nil
}

// RemoveDocument removes a document by ID from the in-memory store.
// Returns true if the document was found and removed, false if the document was not found.
// This method is safe for concurrent use.
func (s *Searcher) RemoveDocument(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.idIndex[id]
	if !exists {
		return false
	}

	// Remove from slice
	s.documents = append(s.documents[:idx], s.documents[idx+1:]...)

	// Rebuild index
	delete(s.idIndex, id)
	for i := idx; i < len(s.documents); i++ {
		s.idIndex[s.documents[i].ID] = i
	}

	return true
}

// Clear removes all documents from the store.
// This method is safe for concurrent use.
func (s *Searcher) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents = make([]Document, 0)
	s.idIndex = make(map[string]int)
}

// Size returns the number of documents currently stored in the in-memory store.
// This method is safe for concurrent use.
func (s *Searcher) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// Search implements the searchql.Searcher interface.
func (s *Searcher) Search(ctx context.Context, q boolquery.Query, opts ...searchql.SearchOption) (*searchql.Results, error) {
	startTime := time.Now()

	// Check context
	select {
	case <-ctx.Done():
		return nil, searchql.ErrCanceled
	default:
	}

	cfg := searchql.NewSearchConfig(opts...)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []scoredDocument
	for _, doc := range s.documents {
		// Check context periodically
		select {
		case <-ctx.Done():
			return nil, searchql.ErrCanceled
		default:
		}

		ok, score := s.evaluate(doc, q)
		if !ok {
			continue
		}
		matches = append(matches, scoredDocument{
			document: doc,
			score:    score,
		})
	}

	// Sort matches
	s.sortMatches(matches, cfg.Sort)

	// Apply pagination
	total := int64(len(matches))
	start := cfg.Offset
	end := cfg.Offset + cfg.Limit
	if end > len(matches) {
		end = len(matches)
	}
	if start > len(matches) {
		start = len(matches)
	}

	// Build results
	results := &searchql.Results{
		Items: make([]searchql.Result, 0, end-start),
		Total: total,
		Query: boolquery.Request(q),
		Took:  time.Since(startTime).Milliseconds(),
	}

	// Convert matches to results
	maxScore := 0.0
	for i := start; i < end; i++ {
		match := matches[i]
		if match.score > maxScore {
			maxScore = match.score
		}
		results.Items = append(results.Items, searchql.Result{
			ID:     match.document.ID,
			Score:  match.score,
			Fields: match.document.Fields,
		})
	}
	results.MaxScore = maxScore

	// Set next offset for pagination
	if end < len(matches) {
		nextOffset := end
		results.NextOffset = &nextOffset
	}

	return results, nil
}

type scoredDocument struct {
	document Document
	score    float64
}

// sortMatches sorts the matched documents according to the sort configuration.
func (s *Searcher) sortMatches(matches []scoredDocument, sortFields []searchql.SortField) {
	if len(sortFields) == 0 {
		// Default: sort by score descending
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].score > matches[j].score
		})
		return
	}

	sort.SliceStable(matches, func(i, j int) bool {
		for _, sf := range sortFields {
			if sf.Field == "_score" {
				if matches[i].score != matches[j].score {
					if sf.Desc {
						return matches[i].score > matches[j].score
					}
					return matches[i].score < matches[j].score
				}
				continue
			}

			val1 := matches[i].document.Fields[sf.Field]
			val2 := matches[j].document.Fields[sf.Field]

			cmp := s.compareValues(val1, val2)
			if cmp != 0 {
				if sf.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return false
	})
}
