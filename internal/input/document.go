package input

import (
	"fmt"
	"sort"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/schema"
)

// BuildDocuments converts normalized records into schema-typed
// documents. Any unknown field or incompatible value aborts the whole
// call; partial documents are never returned.
func BuildDocuments(records []Record, s *schema.Schema) ([]*schema.Document, error) {
	docs := make([]*schema.Document, 0, len(records))
	for i, rec := range records {
		doc, err := buildDocument(rec, s)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func buildDocument(rec Record, s *schema.Schema) (*schema.Document, error) {
	doc := &schema.Document{}

	// Sorted keys keep field order deterministic across calls.
	names := make([]string, 0, len(rec))
	for name := range rec {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field, ok := s.Field(name)
		if !ok {
			return nil, qerrors.SchemaMismatchError(name)
		}
		value := rec[name]
		if list, isList := value.([]any); isList {
			// Arrays expand to one field value per element.
			for _, item := range list {
				typed, err := field.Coerce(item)
				if err != nil {
					return nil, err
				}
				doc.Add(name, typed)
			}
			continue
		}
		typed, err := field.Coerce(value)
		if err != nil {
			return nil, err
		}
		doc.Add(name, typed)
	}
	return doc, nil
}
