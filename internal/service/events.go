package service

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/pkg/errors"
)

type EventService struct {
	imageEndpoints
	requester Requester
	logger    *zap.Logger
}

func NewEventService(requester Requester, logger *zap.Logger) *EventService {
	return &EventService{
		imageEndpoints: imageEndpoints{requester: requester, base: "/events/admin", resource: "events", logger: logger},
		requester:      requester,
		logger:         logger,
	}
}

func (s *EventService) List(ctx context.Context) ([]domain.Event, error) {
	return s.list(ctx, "/events")
}

func (s *EventService) Upcoming(ctx context.Context) ([]domain.Event, error) {
	return s.list(ctx, "/events/upcoming")
}

func (s *EventService) Past(ctx context.Context) ([]domain.Event, error) {
	return s.list(ctx, "/events/past")
}

func (s *EventService) list(ctx context.Context, path string) ([]domain.Event, error) {
	var wires []eventWire
	if err := s.requester.Do(ctx, http.MethodGet, path, nil, nil, &wires); err != nil {
		return nil, err
	}
	return convertAll(wires, eventFromWire)
}

func (s *EventService) Get(ctx context.Context, key string) (domain.Event, error) {
	var wire eventWire
	if err := s.requester.Do(ctx, http.MethodGet, "/events/"+url.PathEscape(key), nil, nil, &wire); err != nil {
		return domain.Event{}, err
	}
	return wire.toDomain()
}

func (s *EventService) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	var wire eventWire
	if err := s.requester.Do(ctx, http.MethodPost, "/events/admin", nil, newEventPayload(event, false), &wire); err != nil {
		return domain.Event{}, err
	}
	return s.saved(wire, event)
}

func (s *EventService) Update(ctx context.Context, event domain.Event) (domain.Event, error) {
	if event.ID == 0 {
		return domain.Event{}, errors.NewValidationError("event id is required for update", "id", event.ID)
	}
	var wire eventWire
	path := "/events/admin/" + event.Key()
	if err := s.requester.Do(ctx, http.MethodPut, path, nil, newEventPayload(event, true), &wire); err != nil {
		return domain.Event{}, err
	}
	return s.saved(wire, event)
}

func (s *EventService) saved(wire eventWire, submitted domain.Event) (domain.Event, error) {
	if wire.ID == "" && wire.Title == "" {
		return submitted, nil
	}
	return wire.toDomain()
}

func (s *EventService) Delete(ctx context.Context, key string) error {
	return s.requester.Do(ctx, http.MethodDelete, "/events/admin/"+url.PathEscape(key), nil, nil, nil)
}
