package store

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
)

// Hit is one ranked search result: the engine key, its relevance
// score, and the stored fields of the document.
type Hit struct {
	ID     string
	Score  float64
	Fields map[string]any
}

// Snapshot is a point-in-time view of the committed index.
type Snapshot struct {
	NumDocs uint64
}

// Search executes the query text against the given fields. Field
// names not present in the schema are silently dropped; with no
// resolvable field the result is empty. Malformed query syntax is a
// QueryParseError.
func (s *Store) Search(queryText string, fields []string, limit, offset int) ([]Hit, error) {
	resolved := make([]string, 0, len(fields))
	for _, name := range fields {
		if _, ok := s.schema.Field(name); ok {
			resolved = append(resolved, name)
		}
	}
	if len(resolved) == 0 || limit <= 0 {
		return nil, nil
	}

	// Surface syntax errors before building the field-scoped query.
	qsq := bleve.NewQueryStringQuery(queryText)
	if _, err := qsq.Parse(); err != nil {
		return nil, qerrors.QueryParseError(queryText, err)
	}

	disjuncts := make([]query.Query, 0, len(resolved))
	for _, field := range resolved {
		mq := bleve.NewMatchQuery(queryText)
		mq.SetField(field)
		disjuncts = append(disjuncts, mq)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(disjuncts...), limit, offset, false)
	req.Fields = []string{"*"}

	result, err := s.index.Search(req)
	if err != nil {
		return nil, qerrors.StorageError("search failed", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, Hit{ID: hit.ID, Score: hit.Score, Fields: hit.Fields})
	}
	return hits, nil
}

// DocCount returns the number of committed documents.
func (s *Store) DocCount() (uint64, error) {
	count, err := s.index.DocCount()
	if err != nil {
		return 0, qerrors.StorageError("failed to count documents", err)
	}
	return count, nil
}

// AcquireSnapshot captures a point-in-time view of the committed
// index for the facade's read path.
func (s *Store) AcquireSnapshot() (*Snapshot, error) {
	ii, err := s.index.Advanced()
	if err != nil {
		return nil, qerrors.StorageError("failed to access index internals", err)
	}
	reader, err := ii.Reader()
	if err != nil {
		return nil, qerrors.StorageError("failed to open index reader", err)
	}
	defer func() { _ = reader.Close() }()

	count, err := reader.DocCount()
	if err != nil {
		return nil, qerrors.StorageError("failed to count documents", err)
	}
	return &Snapshot{NumDocs: count}, nil
}
