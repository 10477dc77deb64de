package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/pkg/errors"
)

type ArticleService struct {
	imageEndpoints
	requester Requester
	logger    *zap.Logger
}

func NewArticleService(requester Requester, logger *zap.Logger) *ArticleService {
	return &ArticleService{
		imageEndpoints: imageEndpoints{requester: requester, base: "/articles/admin", resource: "articles", logger: logger},
		requester:      requester,
		logger:         logger,
	}
}

// List returns every article including drafts. Admin only.
func (s *ArticleService) List(ctx context.Context) ([]domain.Article, error) {
	return s.list(ctx, "/articles/admin")
}

func (s *ArticleService) ListPublished(ctx context.Context) ([]domain.Article, error) {
	return s.list(ctx, "/articles/published")
}

func (s *ArticleService) ListFeatured(ctx context.Context) ([]domain.Article, error) {
	return s.list(ctx, "/articles/featured")
}

func (s *ArticleService) list(ctx context.Context, path string) ([]domain.Article, error) {
	var wires []articleWire
	if err := s.requester.Do(ctx, http.MethodGet, path, nil, nil, &wires); err != nil {
		return nil, err
	}
	return convertAll(wires, articleFromWire)
}

func (s *ArticleService) Get(ctx context.Context, id string) (domain.Article, error) {
	var wire articleWire
	if err := s.requester.Do(ctx, http.MethodGet, "/articles/"+url.PathEscape(id), nil, nil, &wire); err != nil {
		return domain.Article{}, err
	}
	return wire.toDomain(), nil
}

func (s *ArticleService) Create(ctx context.Context, article domain.Article) (domain.Article, error) {
	var wire articleWire
	if err := s.requester.Do(ctx, http.MethodPost, "/articles/admin", nil, newArticlePayload(article, false), &wire); err != nil {
		return domain.Article{}, err
	}
	return s.saved(wire, article)
}

func (s *ArticleService) Update(ctx context.Context, article domain.Article) (domain.Article, error) {
	if article.ID == "" {
		return domain.Article{}, errors.NewValidationError("article id is required for update", "id", article.ID)
	}
	var wire articleWire
	path := "/articles/admin/" + url.PathEscape(article.ID)
	if err := s.requester.Do(ctx, http.MethodPut, path, nil, newArticlePayload(article, true), &wire); err != nil {
		return domain.Article{}, err
	}
	return s.saved(wire, article)
}

// saved falls back to the submitted draft when the server answered without a
// body, so the caller still learns the id it sent.
func (s *ArticleService) saved(wire articleWire, submitted domain.Article) (domain.Article, error) {
	out := wire.toDomain()
	if out.ID == "" && out.Title == "" {
		return submitted, nil
	}
	return out, nil
}

func (s *ArticleService) Delete(ctx context.Context, id string) error {
	return s.requester.Do(ctx, http.MethodDelete, "/articles/admin/"+url.PathEscape(id), nil, nil, nil)
}

func (s *ArticleService) Publish(ctx context.Context, id string) error {
	return s.requester.Do(ctx, http.MethodPost, "/articles/admin/publish/"+url.PathEscape(id), nil, nil, nil)
}

func (s *ArticleService) Unpublish(ctx context.Context, id string) error {
	return s.requester.Do(ctx, http.MethodPut, "/articles/admin/"+url.PathEscape(id)+"/unpublish", nil, nil, nil)
}

func (s *ArticleService) SetFeatured(ctx context.Context, id string, featured bool) error {
	query := url.Values{"featured": []string{strconv.FormatBool(featured)}}
	return s.requester.Do(ctx, http.MethodPut, "/articles/admin/"+url.PathEscape(id)+"/feature", query, nil, nil)
}
