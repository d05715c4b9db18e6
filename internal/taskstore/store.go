// Package taskstore keeps the ordered task collection and mirrors it into a
// persisted slot after every mutation.
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"folio/internal/models"
	"folio/internal/storage/sqlite"
)

// DefaultSlot is the slot key the collection is persisted under.
const DefaultSlot = "root"

var (
	ErrNotFound    = errors.New("task not found")
	ErrDuplicateID = errors.New("duplicate task id")
)

// Persister reads and writes a named blob.
type Persister interface {
	LoadSlot(ctx context.Context, key string) ([]byte, error)
	SaveSlot(ctx context.Context, key string, payload []byte) error
}

// Listener receives the collection after a mutation.
type Listener func([]models.Task)

// Store is the ordered, newest-first task collection.
type Store struct {
	mu        sync.RWMutex
	tasks     []models.Task
	persister Persister
	key       string
	logger    *slog.Logger
	now       func() time.Time
	listeners []Listener
}

// Option configures a Store.
type Option func(*Store)

// WithSlot overrides the slot key.
func WithSlot(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithNow overrides the clock used to stamp saved blobs.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open rehydrates the collection from the persister.
//
// A missing slot yields an empty store. A slot that cannot be decoded is
// copied to "<key>.corrupt" and the store starts empty.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("nil persister")
	}
	s := &Store{
		persister: p,
		key:       DefaultSlot,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := p.LoadSlot(ctx, s.key)
	if errors.Is(err, sqlite.ErrSlotNotFound) {
		s.logger.Info("no persisted tasks, starting empty", slog.String("slot", s.key))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	tasks, version, err := decode(data)
	if err != nil {
		s.logger.Warn("persisted tasks unreadable, starting empty",
			slog.String("slot", s.key), slog.Int("version", version), slog.String("error", err.Error()))
		if qerr := p.SaveSlot(ctx, s.key+".corrupt", data); qerr != nil {
			return nil, fmt.Errorf("quarantine unreadable tasks: %w", qerr)
		}
		return s, nil
	}
	if version < CurrentVersion {
		s.logger.Info("migrating persisted tasks", slog.Int("from", version), slog.Int("to", CurrentVersion))
		if err := s.persist(ctx, tasks); err != nil {
			return nil, err
		}
	}
	s.tasks = tasks
	s.logger.Info("tasks loaded", slog.Int("count", len(tasks)))
	return s, nil
}

// OnChange registers fn to receive the collection after every mutation.
func (s *Store) OnChange(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// List returns the full ordered collection.
func (s *Store) List() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.tasks)
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return models.Task{}, false
}

// Add inserts task at the front of the collection.
func (s *Store) Add(ctx context.Context, task models.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		for _, t := range tasks {
			if t.ID == task.ID {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateID, task.ID)
			}
		}
		next := make([]models.Task, 0, len(tasks)+1)
		next = append(next, task.Clone())
		return append(next, tasks...), nil
	})
}

// Update replaces the task whose id matches task.ID.
func (s *Store) Update(ctx context.Context, task models.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		for i, t := range tasks {
			if t.ID == task.ID {
				next := append([]models.Task(nil), tasks...)
				next[i] = task.Clone()
				return next, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, task.ID)
	})
}

// Modify applies fn to the task with the given id and persists the result
// under the store lock, so concurrent modifications never overwrite each
// other. fn must not change the id. It returns the record written.
func (s *Store) Modify(ctx context.Context, id string, fn func(*models.Task) error) (models.Task, error) {
	var written models.Task
	err := s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		for i, t := range tasks {
			if t.ID != id {
				continue
			}
			edited := t.Clone()
			if err := fn(&edited); err != nil {
				return nil, err
			}
			if edited.ID != id {
				return nil, fmt.Errorf("task %s: id must not change", id)
			}
			if err := edited.Validate(); err != nil {
				return nil, err
			}
			next := append([]models.Task(nil), tasks...)
			next[i] = edited
			written = edited.Clone()
			return next, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	})
	if err != nil {
		return models.Task{}, err
	}
	return written, nil
}

// Delete removes the task with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		for i, t := range tasks {
			if t.ID == id {
				next := make([]models.Task, 0, len(tasks)-1)
				next = append(next, tasks[:i]...)
				return append(next, tasks[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	})
}

// mutate applies fn and persists the result; the in-memory collection is only
// swapped once the slot write succeeds.
func (s *Store) mutate(ctx context.Context, fn func([]models.Task) ([]models.Task, error)) error {
	s.mu.Lock()
	next, err := fn(s.tasks)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.tasks = next
	listeners := append([]Listener(nil), s.listeners...)
	snapshot := cloneAll(next)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
	return nil
}

func (s *Store) persist(ctx context.Context, tasks []models.Task) error {
	data, err := encode(tasks, s.now())
	if err != nil {
		return err
	}
	if err := s.persister.SaveSlot(ctx, s.key, data); err != nil {
		return fmt.Errorf("persist tasks: %w", err)
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
