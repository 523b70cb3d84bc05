// Package indexer is Quarry's public entry point: open an index,
// mint updater handles for concurrent ingestion, and query the
// committed state.
package indexer

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/quarrysearch/quarry/internal/config"
	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/pipeline"
	"github.com/quarrysearch/quarry/internal/schema"
	"github.com/quarrysearch/quarry/internal/store"
)

// searchCacheSize bounds the per-index result cache.
const searchCacheSize = 256

// Result is one ranked hit: relevance score plus the stored fields of
// the matching document.
type Result struct {
	Score  float64
	Fields map[string]any
}

// Stats describes the current read snapshot.
type Stats struct {
	NumDocs    uint64
	Path       string
	Generation uint64
}

// Indexer owns the index lifecycle: the engine store, the single
// mutation coordinator, and the periodically-reloaded read snapshot.
// It is safe for concurrent use.
type Indexer struct {
	store  *store.Store
	coord  *pipeline.Coordinator
	schema *schema.Schema
	cfg    config.IndexConfig
	logger *slog.Logger

	snap       atomic.Pointer[store.Snapshot]
	generation atomic.Uint64
	cache      *lru.Cache[string, []Result]
}

// OpenOrCreate opens the index described by the config, creating it
// when absent (or an ephemeral in-memory index when no path is set),
// and spawns the mutation coordinator bound to the sole writer.
func OpenOrCreate(cfg config.IndexConfig) (*Indexer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sch, err := cfg.BuildSchema()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(store.Options{
		Path:            cfg.Path,
		Schema:          sch,
		ChineseAnalysis: cfg.TextLanguage.Mode == config.LangChinese,
		WriterMemory:    cfg.WriterMemory,
	})
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With(slog.String("component", "indexer"))
	cache, err := lru.New[string, []Result](searchCacheSize)
	if err != nil {
		_ = st.Close()
		return nil, qerrors.Wrap(qerrors.ErrCodeInternal, err)
	}

	ix := &Indexer{
		store:  st,
		coord:  pipeline.NewCoordinator(st, sch, logger),
		schema: sch,
		cfg:    cfg,
		logger: logger,
		cache:  cache,
	}

	snap, err := st.AcquireSnapshot()
	if err != nil {
		ix.coord.Stop()
		_ = st.Close()
		return nil, err
	}
	ix.snap.Store(snap)
	return ix, nil
}

// GetUpdater returns a new handle bound to this index's mutation
// pipeline. Handles are cheap and safe to use from any goroutine;
// mint as many as there are producers.
func (ix *Indexer) GetUpdater() *Updater {
	return &Updater{
		coord:    ix.coord,
		schema:   ix.schema,
		simplify: ix.cfg.Simplify(),
	}
}

// Search runs the query text over the given fields against the
// engine's committed state. Unknown field names are dropped, not
// errors. Results are ordered by descending relevance score.
// Results are cached per snapshot generation: after a Commit, a query
// cached earlier keeps returning its old results until Reload
// advances the generation.
func (ix *Indexer) Search(queryText string, fields []string, limit, offset int) ([]Result, error) {
	key := ix.cacheKey(queryText, fields, limit, offset)
	if cached, ok := ix.cache.Get(key); ok {
		return cached, nil
	}

	hits, err := ix.store.Search(queryText, fields, limit, offset)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{Score: hit.Score, Fields: hit.Fields})
	}
	ix.cache.Add(key, results)
	return results, nil
}

// Reload advances the read snapshot to the latest committed state and
// drops cached results from earlier generations.
func (ix *Indexer) Reload() error {
	snap, err := ix.store.AcquireSnapshot()
	if err != nil {
		return err
	}
	ix.snap.Store(snap)
	ix.generation.Add(1)
	return nil
}

// NumDocs returns the document count of the current read snapshot.
// It only advances after a Commit followed by a Reload.
func (ix *Indexer) NumDocs() uint64 {
	return ix.snap.Load().NumDocs
}

// Stats returns a summary of the current snapshot.
func (ix *Indexer) Stats() Stats {
	return Stats{
		NumDocs:    ix.NumDocs(),
		Path:       ix.store.Path(),
		Generation: ix.generation.Load(),
	}
}

// Close stops the mutation pipeline and releases the index. Pending
// uncommitted mutations are dropped; updater handles fail afterwards.
func (ix *Indexer) Close() error {
	ix.coord.Stop()
	return ix.store.Close()
}

// cacheKey includes the snapshot generation so Reload invalidates
// earlier entries without clearing the cache.
func (ix *Indexer) cacheKey(queryText string, fields []string, limit, offset int) string {
	return fmt.Sprintf("%d|%s|%s|%d|%d",
		ix.generation.Load(), queryText, strings.Join(fields, ","), limit, offset)
}
