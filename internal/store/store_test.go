package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/schema"
)

func storeSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New([]schema.Field{
		{Name: "id", Kind: schema.KindUint, Stored: true, Indexed: true},
		{Name: "title", Kind: schema.KindText, Stored: true, Indexed: true},
		{Name: "content", Kind: schema.KindText, Stored: true, Indexed: true},
	})
	require.NoError(t, err)
	return s
}

func memStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{Schema: storeSchema(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func doc(id uint64, title, content string) *schema.Document {
	d := &schema.Document{}
	d.Add("id", id)
	d.Add("title", title)
	d.Add("content", content)
	return d
}

func TestStore_VisibilityGatedOnCommit(t *testing.T) {
	s := memStore(t)

	require.NoError(t, s.AddDocument(doc(1, "t", "hello world")))

	count, err := s.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count, "staged document must not be visible before commit")

	require.NoError(t, s.Commit())

	count, err = s.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestStore_EmptyCommitIsNoop(t *testing.T) {
	s := memStore(t)
	require.NoError(t, s.Commit())
	require.NoError(t, s.Commit())
}

func TestStore_UpsertKeepsOneDocumentPerID(t *testing.T) {
	s := memStore(t)

	require.NoError(t, s.AddDocument(doc(1024, "v1", "first content")))
	require.NoError(t, s.Commit())

	require.NoError(t, s.DeleteByID(1024))
	require.NoError(t, s.AddDocument(doc(1024, "v2", "second content")))
	require.NoError(t, s.Commit())

	count, err := s.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	hits, err := s.Search("second", []string{"content"}, 5, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, float64(1024), hits[0].Fields["id"])
	assert.Equal(t, "v2", hits[0].Fields["title"])
}

func TestStore_RepeatedInsertsWithSameIDNeverDeduplicate(t *testing.T) {
	s := memStore(t)

	require.NoError(t, s.AddDocument(doc(42, "first", "one")))
	require.NoError(t, s.AddDocument(doc(42, "second", "two")))
	require.NoError(t, s.Commit())

	count, err := s.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count, "plain inserts must not collapse by id")

	// A later insert of the same id across commits must not collapse
	// either.
	require.NoError(t, s.AddDocument(doc(42, "third", "three")))
	require.NoError(t, s.Commit())

	count, err = s.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestStore_DeleteByIDRemovesEveryDocumentWithThatID(t *testing.T) {
	s := memStore(t)

	require.NoError(t, s.AddDocument(doc(7, "dup a", "old")))
	require.NoError(t, s.AddDocument(doc(7, "dup b", "old")))
	require.NoError(t, s.AddDocument(doc(8, "other", "kept")))
	require.NoError(t, s.Commit())

	require.NoError(t, s.DeleteByID(7))
	require.NoError(t, s.AddDocument(doc(7, "replacement", "new")))
	require.NoError(t, s.Commit())

	count, err := s.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	hits, err := s.Search("old", []string{"content"}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, hits, "both duplicates must be gone")

	hits, err = s.Search("new", []string{"content"}, 5, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestStore_DeleteByIDReachesStagedDocuments(t *testing.T) {
	s := memStore(t)

	// The first version is only staged, never committed on its own.
	require.NoError(t, s.AddDocument(doc(9, "v1", "stale text")))
	require.NoError(t, s.DeleteByID(9))
	require.NoError(t, s.AddDocument(doc(9, "v2", "fresh text")))
	require.NoError(t, s.Commit())

	count, err := s.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	hits, err := s.Search("fresh", []string{"content"}, 5, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "v2", hits[0].Fields["title"])
}

func TestStore_InsertOnlyDocumentsNeverDeduplicate(t *testing.T) {
	s := memStore(t)

	d := &schema.Document{}
	d.Add("title", "same")
	d2 := &schema.Document{}
	d2.Add("title", "same")

	require.NoError(t, s.AddDocument(d))
	require.NoError(t, s.AddDocument(d2))
	require.NoError(t, s.Commit())

	count, err := s.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestStore_DeleteAllDropsCommittedAndStaged(t *testing.T) {
	s := memStore(t)

	require.NoError(t, s.AddDocument(doc(1, "a", "committed")))
	require.NoError(t, s.Commit())
	require.NoError(t, s.AddDocument(doc(2, "b", "staged only")))

	require.NoError(t, s.DeleteAll())
	require.NoError(t, s.Commit())

	count, err := s.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestStore_SearchScopesToFields(t *testing.T) {
	s := memStore(t)

	require.NoError(t, s.AddDocument(doc(1, "alpha particle", "beta decay")))
	require.NoError(t, s.Commit())

	hits, err := s.Search("alpha", []string{"content"}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, hits, "term only occurs in title")

	hits, err = s.Search("alpha", []string{"title"}, 5, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestStore_SearchDropsUnknownFields(t *testing.T) {
	s := memStore(t)

	require.NoError(t, s.AddDocument(doc(1, "t", "findable text")))
	require.NoError(t, s.Commit())

	hits, err := s.Search("findable", []string{"bogus", "content"}, 5, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = s.Search("findable", []string{"bogus"}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStore_SearchLimitAndOffset(t *testing.T) {
	s := memStore(t)

	require.NoError(t, s.AddDocument(doc(1, "t1", "shared term one")))
	require.NoError(t, s.AddDocument(doc(2, "t2", "shared term two")))
	require.NoError(t, s.AddDocument(doc(3, "t3", "shared term three")))
	require.NoError(t, s.Commit())

	hits, err := s.Search("shared", []string{"content"}, 2, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	rest, err := s.Search("shared", []string{"content"}, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestStore_SearchMalformedQuery(t *testing.T) {
	s := memStore(t)
	require.NoError(t, s.AddDocument(doc(1, "t", "c")))
	require.NoError(t, s.Commit())

	_, err := s.Search("boost^oops", []string{"content"}, 5, 0)
	require.Error(t, err)
	assert.True(t, qerrors.IsCode(err, qerrors.ErrCodeQueryParse))
}

func TestStore_AcquireSnapshotIsPointInTime(t *testing.T) {
	s := memStore(t)

	require.NoError(t, s.AddDocument(doc(1, "t", "c")))
	require.NoError(t, s.Commit())

	snap, err := s.AcquireSnapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.NumDocs)

	require.NoError(t, s.AddDocument(doc(2, "t2", "c2")))
	require.NoError(t, s.Commit())

	// The old snapshot is unchanged; a fresh one sees the commit.
	assert.Equal(t, uint64(1), snap.NumDocs)
	snap2, err := s.AcquireSnapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap2.NumDocs)
}

func TestStore_DiskPersistenceAndLock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	opts := Options{Path: dir, Schema: storeSchema(t)}

	s, err := Open(opts)
	require.NoError(t, err)

	require.NoError(t, s.AddDocument(doc(1, "t", "durable text")))
	require.NoError(t, s.Commit())

	// A second open of the same directory must fail while locked.
	_, err = Open(opts)
	require.Error(t, err)
	assert.True(t, qerrors.IsCode(err, qerrors.ErrCodeIndexLocked))

	require.NoError(t, s.Close())

	reopened, err := Open(opts)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestStore_WriterFailsAfterClose(t *testing.T) {
	s, err := Open(Options{Schema: storeSchema(t)})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.AddDocument(doc(1, "t", "c"))
	require.Error(t, err)
	assert.True(t, qerrors.IsCode(err, qerrors.ErrCodeIndexClosed))
}
