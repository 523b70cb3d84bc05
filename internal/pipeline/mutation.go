// Package pipeline serializes all index mutation behind a single
// apply goroutine. Producers enqueue mutations and never touch the
// writer; the one consumer drains the queue in strict FIFO order.
package pipeline

import (
	"fmt"

	"github.com/quarrysearch/quarry/internal/schema"
)

type mutationKind int

const (
	mutationCreate mutationKind = iota
	mutationUpdate
	mutationCommit
	mutationClear
)

// Mutation is one queued request against the writer.
type Mutation struct {
	kind mutationKind
	docs []*schema.Document
}

// Create inserts every document unconditionally.
func Create(docs []*schema.Document) Mutation {
	return Mutation{kind: mutationCreate, docs: docs}
}

// Update upserts each document by its id field: documents with a
// resolvable id replace any previous document with that id, the rest
// are plain inserts.
func Update(docs []*schema.Document) Mutation {
	return Mutation{kind: mutationUpdate, docs: docs}
}

// Commit makes all pending mutations visible to readers.
func Commit() Mutation {
	return Mutation{kind: mutationCommit}
}

// Clear deletes every document; a following Commit makes the empty
// state visible.
func Clear() Mutation {
	return Mutation{kind: mutationClear}
}

// String describes the mutation for logging.
func (m Mutation) String() string {
	switch m.kind {
	case mutationCreate:
		return fmt.Sprintf("create %d docs", len(m.docs))
	case mutationUpdate:
		return fmt.Sprintf("update %d docs", len(m.docs))
	case mutationCommit:
		return "commit"
	case mutationClear:
		return "clear"
	default:
		return "unknown"
	}
}
