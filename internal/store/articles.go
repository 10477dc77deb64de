package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/pkg/errors"
)

type ArticleAPI interface {
	Resource[domain.Article]
	Get(ctx context.Context, id string) (domain.Article, error)
	Publish(ctx context.Context, id string) error
	Unpublish(ctx context.Context, id string) error
	SetFeatured(ctx context.Context, id string, featured bool) error
}

// NewsletterSender mails a published article to subscribers.
type NewsletterSender interface {
	Send(ctx context.Context, articleID string) error
}

type ArticleStore struct {
	*Store[domain.Article]
	api        ArticleAPI
	newsletter NewsletterSender
	logger     *zap.Logger

	mu      sync.Mutex
	current *domain.Article
}

// NewArticleStore builds the admin article store. newsletter may be nil, in
// which case publishing sends nothing.
func NewArticleStore(api ArticleAPI, newsletter NewsletterSender, logger *zap.Logger) *ArticleStore {
	return &ArticleStore{
		Store:      New[domain.Article]("articles", api, logger),
		api:        api,
		newsletter: newsletter,
		logger:     logger,
	}
}

// LoadByID fetches one article into Current.
func (s *ArticleStore) LoadByID(ctx context.Context, id string) (domain.Article, error) {
	article, err := s.api.Get(ctx, id)
	if err != nil {
		s.fail(err, "Failed to load article")
		return domain.Article{}, errors.NewServiceError("failed to load article", "articles", "get", err)
	}

	s.mu.Lock()
	s.current = &article
	s.mu.Unlock()
	return article, nil
}

func (s *ArticleStore) Current() (domain.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.Article{}, false
	}
	return *s.current, true
}

func (s *ArticleStore) ClearCurrent() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Patch applies flag changes to article id as one write followed by one
// refresh. Publishing also sends the newsletter unless it already went out.
func (s *ArticleStore) Patch(ctx context.Context, id string, patch domain.ArticlePatch) error {
	if id == "" {
		return errors.NewValidationError("article id is required", "id", id)
	}
	if patch.IsEmpty() {
		return nil
	}

	alreadySent := false
	if existing, ok := s.Find(id); ok {
		alreadySent = existing.NewsletterSent
	}

	return s.Mutate(ctx, "patch", func(ctx context.Context) error {
		if patch.Published != nil {
			if *patch.Published {
				if err := s.api.Publish(ctx, id); err != nil {
					return err
				}
				s.sendNewsletter(ctx, id, alreadySent)
			} else if err := s.api.Unpublish(ctx, id); err != nil {
				return err
			}
		}
		if patch.Featured != nil {
			if err := s.api.SetFeatured(ctx, id, *patch.Featured); err != nil {
				return err
			}
		}
		return nil
	})
}

// TogglePublish flips the published flag of a loaded article.
func (s *ArticleStore) TogglePublish(ctx context.Context, id string) error {
	article, err := s.loaded(id)
	if err != nil {
		return err
	}
	published := !article.Published
	return s.Patch(ctx, id, domain.ArticlePatch{Published: &published})
}

func (s *ArticleStore) ToggleFeature(ctx context.Context, id string) error {
	article, err := s.loaded(id)
	if err != nil {
		return err
	}
	featured := !article.Featured
	return s.Patch(ctx, id, domain.ArticlePatch{Featured: &featured})
}

func (s *ArticleStore) loaded(id string) (domain.Article, error) {
	article, ok := s.Find(id)
	if !ok {
		return domain.Article{}, errors.NewValidationError("article is not loaded", "id", id)
	}
	return article, nil
}

// sendNewsletter never fails the publish; a send failure is only logged.
func (s *ArticleStore) sendNewsletter(ctx context.Context, id string, alreadySent bool) {
	if s.newsletter == nil || alreadySent {
		return
	}
	if err := s.newsletter.Send(ctx, id); err != nil {
		s.logger.Warn("Newsletter send failed after publish",
			zap.String("article_id", id),
			zap.Error(err),
		)
	}
}
