// Package store adapts the Bleve engine to Quarry: schema-driven
// index mapping, a staged-batch writer whose mutations become visible
// only at commit, and the read path (search, snapshots, counts).
package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/gofrs/flock"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/schema"
)

// Options configures opening a store.
type Options struct {
	// Path is the index directory. Empty means an in-memory index.
	Path string
	// Schema declares the index fields.
	Schema *schema.Schema
	// ChineseAnalysis selects the CJK analyzer for text fields.
	ChineseAnalysis bool
	// WriterMemory is the staged-write budget in bytes; a pending
	// batch growing past it logs a warning. Zero disables the check.
	WriterMemory uint64
}

// Store owns one Bleve index: the staged write batch on one side and
// the search/count read path on the other.
type Store struct {
	index  bleve.Index
	schema *schema.Schema
	path   string
	lock   *flock.Flock

	writerMemory uint64

	mu      sync.Mutex
	pending *bleve.Batch
	// pendingIDs tracks the engine keys of staged documents by their
	// id value, so DeleteByID reaches documents not yet committed.
	pendingIDs   map[uint64][]string
	closed       bool
	budgetWarned bool
}

// Open opens or creates the index for the given options. A
// filesystem-backed index is guarded by a lock file next to the index
// directory so a second process fails fast instead of corrupting it.
func Open(opts Options) (*Store, error) {
	im, err := buildIndexMapping(opts.Schema, opts.ChineseAnalysis)
	if err != nil {
		return nil, err
	}

	s := &Store{
		schema:       opts.Schema,
		path:         opts.Path,
		writerMemory: opts.WriterMemory,
		pendingIDs:   make(map[uint64][]string),
	}

	if opts.Path == "" {
		idx, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, qerrors.StorageError("failed to create in-memory index", err)
		}
		s.index = idx
		s.pending = idx.NewBatch()
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, qerrors.StorageError("failed to create index parent directory", err)
	}

	s.lock = flock.New(opts.Path + ".lock")
	locked, err := s.lock.TryLock()
	if err != nil {
		return nil, qerrors.StorageError("failed to acquire index lock", err)
	}
	if !locked {
		return nil, qerrors.Newf(qerrors.ErrCodeIndexLocked, "index %s is locked by another process", opts.Path)
	}

	idx, err := openOrCreate(opts.Path, im)
	if err != nil {
		_ = s.lock.Unlock()
		return nil, err
	}
	s.index = idx
	s.pending = idx.NewBatch()
	return s, nil
}

func openOrCreate(path string, im mapping.IndexMapping) (bleve.Index, error) {
	if err := validateIntegrity(path); err != nil {
		slog.Warn("index_corrupted",
			slog.String("path", path),
			slog.String("error", err.Error()))
		if rmErr := os.RemoveAll(path); rmErr != nil {
			return nil, qerrors.StorageError("corrupt index cannot be removed", rmErr)
		}
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, im)
	} else if err != nil && isCorruptionError(err) {
		slog.Warn("index_open_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		if rmErr := os.RemoveAll(path); rmErr != nil {
			return nil, qerrors.StorageError("corrupt index cannot be removed", rmErr)
		}
		idx, err = bleve.New(path, im)
	}
	if err != nil {
		return nil, qerrors.StorageError("failed to open or create index", err)
	}
	return idx, nil
}

// validateIntegrity checks that an existing index directory looks
// sane before Bleve opens it. A missing directory is fine (the index
// will be created).
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return qerrors.Newf(qerrors.ErrCodeCorruptIndex, "index_meta.json missing")
	}
	if err != nil {
		return qerrors.StorageError("cannot stat index_meta.json", err)
	}
	if info.Size() == 0 {
		return qerrors.Newf(qerrors.ErrCodeCorruptIndex, "index_meta.json is empty")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return qerrors.StorageError("cannot read index_meta.json", err)
	}
	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return qerrors.Wrap(qerrors.ErrCodeCorruptIndex, err)
	}
	return nil
}

func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	if err == bleve.ErrorIndexMetaCorrupt {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "unexpected end of JSON") ||
		strings.Contains(msg, "error parsing mapping JSON") ||
		strings.Contains(msg, "failed to load segment") ||
		strings.Contains(msg, "error opening bolt")
}

// buildIndexMapping turns the schema into a Bleve index mapping.
func buildIndexMapping(s *schema.Schema, chinese bool) (mapping.IndexMapping, error) {
	if s == nil {
		return nil, qerrors.Newf(qerrors.ErrCodeConfigInvalid, "store requires a schema")
	}

	doc := bleve.NewDocumentMapping()
	for _, f := range s.Fields() {
		var fm *mapping.FieldMapping
		if f.Kind == schema.KindText {
			fm = bleve.NewTextFieldMapping()
			if chinese {
				fm.Analyzer = cjk.AnalyzerName
			}
		} else {
			fm = bleve.NewNumericFieldMapping()
		}
		fm.Store = f.Stored
		fm.Index = f.Indexed
		doc.AddFieldMappingsAt(f.Name, fm)
	}

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	if chinese {
		im.DefaultAnalyzer = cjk.AnalyzerName
	}
	return im, nil
}

// Path returns the index directory, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Schema returns the schema the store was opened with.
func (s *Store) Schema() *schema.Schema {
	return s.schema
}

// Close releases the index and the directory lock.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.index.Close()
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
	if err != nil {
		return qerrors.StorageError("failed to close index", err)
	}
	return nil
}
