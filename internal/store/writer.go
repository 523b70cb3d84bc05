package store

import (
	"log/slog"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/schema"
)

// The writer side stages every mutation into a pending batch; nothing
// is visible to readers until Commit executes the batch. Only the
// pipeline's apply goroutine calls these methods, the mutex exists
// because Close may race with a late mutation.

// AddDocument stages a document insert under a fresh UUID engine key,
// so repeated inserts never collapse into one document, with or
// without an id. Documents carrying a resolvable id are additionally
// tracked so DeleteByID can reach them while they are still staged.
func (s *Store) AddDocument(doc *schema.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return qerrors.Newf(qerrors.ErrCodeIndexClosed, "index is closed")
	}
	key := uuid.NewString()
	if err := s.pending.Index(key, doc.ToMap()); err != nil {
		return qerrors.StorageError("failed to stage document", err)
	}
	if id, ok := doc.ID(); ok {
		s.pendingIDs[id] = append(s.pendingIDs[id], key)
	}
	if s.writerMemory > 0 && !s.budgetWarned && s.pending.TotalDocsSize() > s.writerMemory {
		s.budgetWarned = true
		slog.Warn("staged_batch_over_budget",
			slog.Uint64("staged_bytes", s.pending.TotalDocsSize()),
			slog.Uint64("budget_bytes", s.writerMemory))
	}
	return nil
}

// DeleteByID stages deletion of every document whose id field holds
// the given value: committed documents are found with an exact-term
// lookup, staged ones through the pending-id tracking. Deleting an id
// nothing carries is a no-op. Requires the id field to be indexed.
func (s *Store) DeleteByID(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return qerrors.Newf(qerrors.ErrCodeIndexClosed, "index is closed")
	}

	committed, err := s.committedIDsFor(id)
	if err != nil {
		return err
	}
	for _, key := range committed {
		s.pending.Delete(key)
	}
	// A staged delete on a key overrides a staged add of the same key.
	for _, key := range s.pendingIDs[id] {
		s.pending.Delete(key)
	}
	delete(s.pendingIDs, id)
	return nil
}

// committedIDsFor finds the engine keys of all committed documents
// whose id field equals the given value.
func (s *Store) committedIDsFor(id uint64) ([]string, error) {
	total, err := s.index.DocCount()
	if err != nil {
		return nil, qerrors.StorageError("failed to count documents", err)
	}
	if total == 0 {
		return nil, nil
	}

	val := float64(id)
	inclusive := true
	q := bleve.NewNumericRangeInclusiveQuery(&val, &val, &inclusive, &inclusive)
	q.SetField(schema.IDFieldName)

	req := bleve.NewSearchRequestOptions(q, int(total), 0, false)
	result, err := s.index.Search(req)
	if err != nil {
		return nil, qerrors.StorageError("failed to look up documents by id", err)
	}
	keys := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		keys = append(keys, hit.ID)
	}
	return keys, nil
}

// Commit executes the pending batch, making all staged mutations
// visible to readers, and starts a fresh batch.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return qerrors.Newf(qerrors.ErrCodeIndexClosed, "index is closed")
	}
	batch := s.pending
	s.pending = s.index.NewBatch()
	s.pendingIDs = make(map[uint64][]string)
	s.budgetWarned = false
	if batch.Size() == 0 {
		return nil
	}
	if err := s.index.Batch(batch); err != nil {
		return qerrors.StorageError("failed to commit batch", err)
	}
	return nil
}

// DeleteAll drops every staged mutation and stages deletion of every
// committed document. The empty index becomes visible at the next
// Commit.
func (s *Store) DeleteAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return qerrors.Newf(qerrors.ErrCodeIndexClosed, "index is closed")
	}

	ids, err := s.committedIDs()
	if err != nil {
		return err
	}
	s.pending.Reset()
	s.pendingIDs = make(map[uint64][]string)
	for _, id := range ids {
		s.pending.Delete(id)
	}
	return nil
}

// committedIDs enumerates the engine keys of all committed documents.
func (s *Store) committedIDs() ([]string, error) {
	ii, err := s.index.Advanced()
	if err != nil {
		return nil, qerrors.StorageError("failed to access index internals", err)
	}
	reader, err := ii.Reader()
	if err != nil {
		return nil, qerrors.StorageError("failed to open index reader", err)
	}
	defer func() { _ = reader.Close() }()

	it, err := reader.DocIDReaderAll()
	if err != nil {
		return nil, qerrors.StorageError("failed to enumerate documents", err)
	}
	defer func() { _ = it.Close() }()

	var ids []string
	for {
		internal, err := it.Next()
		if err != nil {
			return nil, qerrors.StorageError("failed to iterate documents", err)
		}
		if internal == nil {
			break
		}
		ext, err := reader.ExternalID(internal)
		if err != nil {
			return nil, qerrors.StorageError("failed to resolve document id", err)
		}
		ids = append(ids, ext)
	}
	return ids, nil
}
