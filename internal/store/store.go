// Package store holds the in-memory view of each CMS resource. Every
// mutation goes to the server first and is followed by a full refetch; the
// local list is never patched by hand.
package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/pkg/errors"
)

// Lister is the read side a Collection drives.
type Lister[T domain.Entity] interface {
	List(ctx context.Context) ([]T, error)
}

// Resource is the CRUD surface a Store drives. The service types satisfy it.
type Resource[T domain.Entity] interface {
	Lister[T]
	Create(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, key string) error
}

// State is a snapshot handed to subscribers. Err holds the human readable
// message of the last failure and stays set until the next success.
type State[T any] struct {
	Items   []T
	Loading bool
	Saving  bool
	Err     string
}

// Collection is a server list with its request flags and subscribers. It
// has no create, update or delete of its own; writes go through Mutate.
type Collection[T domain.Entity] struct {
	name    string
	lister  Lister[T]
	logger  *zap.Logger
	refresh func(ctx context.Context) error

	mu        sync.Mutex
	state     State[T]
	listeners map[int]func(State[T])
	nextID    int
}

func NewCollection[T domain.Entity](name string, lister Lister[T], logger *zap.Logger) *Collection[T] {
	c := &Collection[T]{
		name:      name,
		lister:    lister,
		logger:    logger,
		listeners: make(map[int]func(State[T])),
	}
	c.refresh = c.FetchAll
	return c
}

// Store is a Collection whose items can be created, updated and deleted.
type Store[T domain.Entity] struct {
	*Collection[T]
	resource Resource[T]
}

func New[T domain.Entity](name string, resource Resource[T], logger *zap.Logger) *Store[T] {
	return &Store[T]{
		Collection: NewCollection[T](name, resource, logger),
		resource:   resource,
	}
}

// Subscribe calls fn with the current state and after every change until the
// returned function is called.
func (s *Collection[T]) Subscribe(fn func(State[T])) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	fn(snapshot)
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Collection[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Collection[T]) Items() []T {
	return s.State().Items
}

// Find returns the loaded item with the given key.
func (s *Collection[T]) Find(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.state.Items {
		if item.Key() == key {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (s *Collection[T]) ClearError() {
	s.update(func(st *State[T]) { st.Err = "" })
}

// FetchAll replaces the list with the server's. On failure the previous
// items stay visible and the error is recorded.
func (s *Collection[T]) FetchAll(ctx context.Context) error {
	s.update(func(st *State[T]) { st.Loading = true })

	items, err := s.lister.List(ctx)
	if err != nil {
		s.logger.Warn("Failed to load", zap.String("resource", s.name), zap.Error(err))
		s.update(func(st *State[T]) {
			st.Loading = false
			st.Err = errors.HumanMessage(err, "Failed to load "+s.name)
		})
		return errors.NewServiceError("failed to load "+s.name, s.name, "fetch", err)
	}

	s.update(func(st *State[T]) {
		st.Items = items
		st.Loading = false
		st.Err = ""
	})
	return nil
}

// Save creates item when it has no key and updates it otherwise. A failed
// refresh after a successful write does not fail the save; it only shows up
// in the state's error.
func (s *Store[T]) Save(ctx context.Context, item T) (T, error) {
	var saved T
	op := "update"
	if domain.IsNew(item) {
		op = "create"
	}

	err := s.Mutate(ctx, op, func(ctx context.Context) error {
		var err error
		if op == "create" {
			saved, err = s.resource.Create(ctx, item)
		} else {
			saved, err = s.resource.Update(ctx, item)
		}
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return saved, nil
}

func (s *Store[T]) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.NewValidationError("cannot delete an item without an id", "id", key)
	}
	return s.Mutate(ctx, "delete", func(ctx context.Context) error {
		return s.resource.Delete(ctx, key)
	})
}

// Mutate runs fn as a write: saving is set for its duration, a failure is
// recorded, and a success is followed by exactly one refresh.
func (s *Collection[T]) Mutate(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	s.update(func(st *State[T]) { st.Saving = true })

	if err := fn(ctx); err != nil {
		s.logger.Warn("Mutation failed",
			zap.String("resource", s.name),
			zap.String("operation", op),
			zap.Error(err),
		)
		s.update(func(st *State[T]) {
			st.Saving = false
			st.Err = errors.HumanMessage(err, "Failed to "+op+" "+s.name)
		})
		return errors.NewServiceError("failed to "+op+" "+s.name, s.name, op, err)
	}

	refreshErr := s.Refresh(ctx)
	s.update(func(st *State[T]) { st.Saving = false })
	if refreshErr != nil {
		s.logger.Warn("Refresh after write failed",
			zap.String("resource", s.name),
			zap.String("operation", op),
			zap.Error(refreshErr),
		)
	}
	return nil
}

// Refresh reloads whatever this store shows. It is FetchAll unless a
// wrapping store installed its own.
func (s *Collection[T]) Refresh(ctx context.Context) error {
	return s.refresh(ctx)
}

func (s *Collection[T]) setRefresher(fn func(ctx context.Context) error) {
	s.refresh = fn
}

// fail records err for the banner without touching the other flags.
func (s *Collection[T]) fail(err error, fallback string) {
	s.update(func(st *State[T]) { st.Err = errors.HumanMessage(err, fallback) })
}

func (s *Collection[T]) update(fn func(st *State[T])) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.snapshotLocked()
	listeners := make([]func(State[T]), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

func (s *Collection[T]) snapshotLocked() State[T] {
	snapshot := s.state
	snapshot.Items = append([]T(nil), s.state.Items...)
	return snapshot
}
