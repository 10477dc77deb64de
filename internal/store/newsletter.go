package store

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/pkg/errors"
)

type NewsletterAPI interface {
	List(ctx context.Context) ([]domain.Subscriber, error)
	ToggleSubscriber(ctx context.Context, key string) error
	Send(ctx context.Context, articleID string) error
}

// NewsletterStore lists subscribers. They sign up through the public form
// and are never created, edited or deleted by an admin, so only Toggle writes.
type NewsletterStore struct {
	*Collection[domain.Subscriber]
	api NewsletterAPI
}

func NewNewsletterStore(api NewsletterAPI, logger *zap.Logger) *NewsletterStore {
	return &NewsletterStore{
		Collection: NewCollection[domain.Subscriber]("subscribers", api, logger),
		api:        api,
	}
}

// Toggle flips a subscriber between active and inactive.
func (s *NewsletterStore) Toggle(ctx context.Context, key string) error {
	if key == "" {
		return errors.NewValidationError("subscriber id is required", "id", key)
	}
	return s.Mutate(ctx, "toggle", func(ctx context.Context) error {
		return s.api.ToggleSubscriber(ctx, key)
	})
}

// Send mails an article to all active subscribers. It does not change the
// subscriber list, so no refresh follows.
func (s *NewsletterStore) Send(ctx context.Context, articleID string) error {
	if err := s.api.Send(ctx, articleID); err != nil {
		s.fail(err, "Failed to send newsletter")
		return errors.NewServiceError("failed to send newsletter", "newsletter", "send", err)
	}
	return nil
}

// ActiveCount counts subscribers that are both verified and active.
func (s *NewsletterStore) ActiveCount() int {
	n := 0
	for _, sub := range s.Items() {
		if sub.Active && sub.Verified {
			n++
		}
	}
	return n
}

// FindByEmail matches case-insensitively.
func (s *NewsletterStore) FindByEmail(email string) (domain.Subscriber, bool) {
	email = strings.TrimSpace(email)
	for _, sub := range s.Items() {
		if strings.EqualFold(sub.Email, email) {
			return sub, true
		}
	}
	return domain.Subscriber{}, false
}
