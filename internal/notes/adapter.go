// Package notes forwards edits from the rich-text note editor to the task
// view model, collapsing bursts of edits into one write per quiet period.
package notes

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"folio/internal/metrics"
	"folio/internal/models"
	"folio/internal/timer"
)

// DefaultQuietPeriod is the debounce window for editor changes.
const DefaultQuietPeriod = 500 * time.Millisecond

// KnownBlockTypes are the editor tools a document may contain.
var KnownBlockTypes = map[string]struct{}{
	"header":    {},
	"paragraph": {},
	"list":      {},
	"checklist": {},
	"code":      {},
}

// Sink receives the settled document for a task.
type Sink func(ctx context.Context, taskID string, doc models.Document, noteType models.NoteType) error

// SurfaceState is the load state of a task's editor surface.
type SurfaceState string

const (
	SurfaceLoading SurfaceState = "loading"
	SurfaceReady   SurfaceState = "ready"
	SurfaceFailed  SurfaceState = "failed"
)

type pending struct {
	debouncer *timer.Debouncer
	doc       models.Document
	noteType  models.NoteType
}

// Adapter owns one debouncer per task.
type Adapter struct {
	sink    Sink
	clock   timer.Clock
	quiet   time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	pending  map[string]*pending
	surfaces map[string]SurfaceState
	closed   bool
}

// Option configures an Adapter.
type Option func(*Adapter)

func WithClock(c timer.Clock) Option { return func(a *Adapter) { a.clock = c } }

func WithQuietPeriod(d time.Duration) Option { return func(a *Adapter) { a.quiet = d } }

func WithLogger(l *slog.Logger) Option { return func(a *Adapter) { a.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(a *Adapter) { a.metrics = m } }

// NewAdapter returns an adapter delivering settled documents to sink.
func NewAdapter(sink Sink, opts ...Option) *Adapter {
	a := &Adapter{
		sink:     sink,
		clock:    timer.RealClock{},
		quiet:    DefaultQuietPeriod,
		logger:   slog.Default(),
		pending:  map[string]*pending{},
		surfaces: map[string]SurfaceState{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Validate rejects documents containing blocks no editor tool can render.
func Validate(doc models.Document) error {
	for i, b := range doc.Blocks {
		if _, ok := KnownBlockTypes[b.Type]; !ok {
			return fmt.Errorf("block %d: unknown type %q", i, b.Type)
		}
	}
	return nil
}

// Edit records the latest document for taskID and (re)starts its quiet
// period. Only the last document of a burst reaches the sink.
func (a *Adapter) Edit(taskID string, doc models.Document, noteType models.NoteType) error {
	if err := Validate(doc); err != nil {
		return err
	}
	if noteType == "" {
		noteType = models.NoteParagraph
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("note adapter closed")
	}
	p, ok := a.pending[taskID]
	if !ok {
		p = &pending{debouncer: timer.NewDebouncer(a.clock, a.quiet)}
		a.pending[taskID] = p
	}
	p.doc, p.noteType = doc, noteType
	p.debouncer.Schedule(func() { a.deliver(taskID) })
	return nil
}

// Flush delivers a pending edit for taskID immediately.
func (a *Adapter) Flush(taskID string) bool {
	a.mu.Lock()
	p, ok := a.pending[taskID]
	a.mu.Unlock()
	if !ok {
		return false
	}
	return p.debouncer.Flush()
}

// Pending reports whether an edit for taskID is waiting to settle.
func (a *Adapter) Pending(taskID string) bool {
	a.mu.Lock()
	p, ok := a.pending[taskID]
	a.mu.Unlock()
	return ok && p.debouncer.Pending()
}

// Close flushes every pending edit and rejects further ones.
func (a *Adapter) Close() {
	a.mu.Lock()
	a.closed = true
	all := make([]*pending, 0, len(a.pending))
	for _, p := range a.pending {
		all = append(all, p)
	}
	a.mu.Unlock()

	for _, p := range all {
		p.debouncer.Flush()
	}
}

func (a *Adapter) deliver(taskID string) {
	a.mu.Lock()
	p, ok := a.pending[taskID]
	if !ok {
		a.mu.Unlock()
		return
	}
	doc, noteType := p.doc, p.noteType
	delete(a.pending, taskID)
	a.mu.Unlock()

	if err := a.sink(context.Background(), taskID, doc, noteType); err != nil {
		a.logger.Error("failed to save note", slog.String("task", taskID), slog.String("error", err.Error()))
		return
	}
	a.metrics.NotePropagated()
}

// Load initializes the editor surface for taskID with loader. A failure is
// logged and leaves the surface in the failed state; it is not retried.
func (a *Adapter) Load(taskID string, loader func() error) SurfaceState {
	a.mu.Lock()
	a.surfaces[taskID] = SurfaceLoading
	a.mu.Unlock()

	state := SurfaceReady
	if err := loader(); err != nil {
		a.logger.Error("note editor failed to load", slog.String("task", taskID), slog.String("error", err.Error()))
		state = SurfaceFailed
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.surfaces[taskID] = state
	return state
}

// Surface returns the editor surface state for taskID.
func (a *Adapter) Surface(taskID string) SurfaceState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.surfaces[taskID]; ok {
		return s
	}
	return SurfaceLoading
}

// Placeholder is the text shown in place of an editor that is not ready.
func Placeholder(s SurfaceState) string {
	if s == SurfaceReady {
		return ""
	}
	return "Loading editor..."
}
