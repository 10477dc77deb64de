package store

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/pkg/errors"
)

type EventAPI interface {
	Resource[domain.Event]
	Upcoming(ctx context.Context) ([]domain.Event, error)
	Past(ctx context.Context) ([]domain.Event, error)
	Get(ctx context.Context, key string) (domain.Event, error)
}

// EventStore keeps the full list in the embedded Store plus the upcoming and
// past views. Every write refreshes all three.
type EventStore struct {
	*Store[domain.Event]
	api    EventAPI
	logger *zap.Logger

	mu       sync.Mutex
	upcoming []domain.Event
	past     []domain.Event
	selected *domain.Event
}

func NewEventStore(api EventAPI, logger *zap.Logger) *EventStore {
	s := &EventStore{
		Store:  New[domain.Event]("events", api, logger),
		api:    api,
		logger: logger,
	}
	s.setRefresher(s.RefreshAll)
	return s
}

// RefreshAll loads the full, upcoming and past lists concurrently. Each list
// that fails keeps its previous contents.
func (s *EventStore) RefreshAll(ctx context.Context) error {
	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(s.Store.FetchAll)
	p.Go(s.FetchUpcoming)
	p.Go(s.FetchPast)
	if err := p.Wait(); err != nil {
		// the full list may have finished last and cleared the error
		s.fail(err, "Failed to refresh events")
		return err
	}
	return nil
}

func (s *EventStore) FetchUpcoming(ctx context.Context) error {
	events, err := s.api.Upcoming(ctx)
	if err != nil {
		s.fail(err, "Failed to load upcoming events")
		return errors.NewServiceError("failed to load upcoming events", "events", "fetch_upcoming", err)
	}
	s.mu.Lock()
	s.upcoming = events
	s.mu.Unlock()
	return nil
}

func (s *EventStore) FetchPast(ctx context.Context) error {
	events, err := s.api.Past(ctx)
	if err != nil {
		s.fail(err, "Failed to load past events")
		return errors.NewServiceError("failed to load past events", "events", "fetch_past", err)
	}
	s.mu.Lock()
	s.past = events
	s.mu.Unlock()
	return nil
}

// FetchByID loads one event and makes it the selected one.
func (s *EventStore) FetchByID(ctx context.Context, key string) (domain.Event, error) {
	event, err := s.api.Get(ctx, key)
	if err != nil {
		s.fail(err, "Failed to load event")
		return domain.Event{}, errors.NewServiceError("failed to load event", "events", "get", err)
	}
	s.mu.Lock()
	s.selected = &event
	s.mu.Unlock()
	return event, nil
}

func (s *EventStore) Upcoming() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.upcoming...)
}

func (s *EventStore) Past() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.past...)
}

func (s *EventStore) Selected() (domain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return domain.Event{}, false
	}
	return *s.selected, true
}

func (s *EventStore) ClearSelected() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}
