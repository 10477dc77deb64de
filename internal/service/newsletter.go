package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/pkg/errors"
)

type NewsletterService struct {
	requester Requester
	logger    *zap.Logger
}

func NewNewsletterService(requester Requester, logger *zap.Logger) *NewsletterService {
	return &NewsletterService{requester: requester, logger: logger}
}

type subscribeRequest struct {
	Email string `json:"email"`
}

func (s *NewsletterService) Subscribe(ctx context.Context, email string) error {
	email, err := requireEmail(email)
	if err != nil {
		return err
	}
	return s.requester.Do(ctx, http.MethodPost, "/newsletter/subscribe", nil, subscribeRequest{Email: email}, nil)
}

func (s *NewsletterService) Unsubscribe(ctx context.Context, email string) error {
	email, err := requireEmail(email)
	if err != nil {
		return err
	}
	query := url.Values{"email": []string{email}}
	return s.requester.Do(ctx, http.MethodDelete, "/newsletter/unsubscribe", query, nil, nil)
}

// Verify confirms a subscription token. A non-success status is reported in
// the result, not as an error.
func (s *NewsletterService) Verify(ctx context.Context, token string) (domain.VerificationResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.VerificationResult{}, errors.NewValidationError("verification token is required", "token", token)
	}
	var result domain.VerificationResult
	query := url.Values{"token": []string{token}}
	if err := s.requester.Do(ctx, http.MethodGet, "/newsletter/verify", query, nil, &result); err != nil {
		return domain.VerificationResult{}, err
	}
	return result, nil
}

func (s *NewsletterService) List(ctx context.Context) ([]domain.Subscriber, error) {
	var wires []subscriberWire
	if err := s.requester.Do(ctx, http.MethodGet, "/newsletter/admin/subscribers", nil, nil, &wires); err != nil {
		return nil, err
	}
	return convertAll(wires, subscriberFromWire)
}

func (s *NewsletterService) ToggleSubscriber(ctx context.Context, key string) error {
	path := "/newsletter/admin/subscribers/" + url.PathEscape(key) + "/toggle"
	return s.requester.Do(ctx, http.MethodPatch, path, nil, nil, nil)
}

// Send mails the given article to every active subscriber.
func (s *NewsletterService) Send(ctx context.Context, articleID string) error {
	if articleID == "" {
		return errors.NewValidationError("article id is required", "articleId", articleID)
	}
	if err := s.requester.Do(ctx, http.MethodPost, "/newsletter/admin/send/"+url.PathEscape(articleID), nil, nil, nil); err != nil {
		return err
	}
	s.logger.Info("Newsletter sent", zap.String("article_id", articleID))
	return nil
}

func requireEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", errors.NewValidationError("a valid email address is required", "email", email)
	}
	return email, nil
}
