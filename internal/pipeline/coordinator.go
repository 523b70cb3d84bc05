package pipeline

import (
	"log/slog"
	"sync"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/schema"
)

// Writer is the mutation surface of the index engine. Exactly one
// Coordinator goroutine calls it; no locking is required inside
// implementations beyond their own invariants.
type Writer interface {
	// AddDocument stages a document for insertion.
	AddDocument(doc *schema.Document) error
	// DeleteByID stages deletion of the document keyed by the id field.
	DeleteByID(id uint64) error
	// Commit applies all staged mutations, making them visible.
	Commit() error
	// DeleteAll stages deletion of every visible document.
	DeleteAll() error
}

// Coordinator owns the sole writer handle. Producers submit from any
// goroutine; a single consumer applies mutations in submission order.
// The queue is unbounded, so Submit never blocks on writer I/O.
type Coordinator struct {
	writer Writer
	hasID  bool
	logger *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Mutation
	closed bool

	stopOnce sync.Once
	done     chan struct{}
}

// NewCoordinator starts the apply goroutine over the given writer.
// Upsert-by-id is only active when the schema declares a uint id
// field.
func NewCoordinator(w Writer, s *schema.Schema, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	_, hasID := s.IDField()
	c := &Coordinator{
		writer: w,
		hasID:  hasID,
		logger: logger,
		done:   make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	go c.run()
	return c
}

// Submit enqueues a mutation. It fails only when the coordinator has
// been stopped; once accepted, the mutation will be applied unless
// Stop drops the queue first.
func (c *Coordinator) Submit(m Mutation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return qerrors.PipelineClosedError()
	}
	c.queue = append(c.queue, m)
	c.cond.Signal()
	return nil
}

// Stop closes the queue and waits for the consumer to exit. Pending
// mutations are dropped; later Submit calls fail. Safe to call more
// than once.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.cond.Signal()
		c.mu.Unlock()
	})
	<-c.done
}

func (c *Coordinator) run() {
	defer close(c.done)
	for {
		m, ok := c.next()
		if !ok {
			return
		}
		if err := c.apply(m); err != nil {
			// Best effort: one bad request must not stall ingestion
			// for every producer.
			c.logger.Warn("mutation_failed",
				slog.String("mutation", m.String()),
				slog.String("error", err.Error()))
		}
	}
}

func (c *Coordinator) next() (Mutation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) == 0 && !c.closed {
		c.cond.Wait()
	}
	if c.closed {
		return Mutation{}, false
	}
	m := c.queue[0]
	c.queue = c.queue[1:]
	return m, true
}

func (c *Coordinator) apply(m Mutation) error {
	switch m.kind {
	case mutationCreate:
		for _, doc := range m.docs {
			if err := c.writer.AddDocument(doc); err != nil {
				return err
			}
		}
	case mutationUpdate:
		for _, doc := range m.docs {
			if c.hasID {
				if id, ok := doc.ID(); ok {
					if err := c.writer.DeleteByID(id); err != nil {
						return err
					}
				}
			}
			if err := c.writer.AddDocument(doc); err != nil {
				return err
			}
		}
	case mutationCommit:
		return c.writer.Commit()
	case mutationClear:
		return c.writer.DeleteAll()
	}
	return nil
}
