package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/domain"
)

type fakeArticles struct {
	items      map[string]domain.Article
	listCalls  int
	calls      []string
	publishErr error
}

func newFakeArticles(items ...domain.Article) *fakeArticles {
	f := &fakeArticles{items: map[string]domain.Article{}}
	for _, a := range items {
		f.items[a.ID] = a
	}
	return f
}

func (f *fakeArticles) List(ctx context.Context) ([]domain.Article, error) {
	f.listCalls++
	out := make([]domain.Article, 0, len(f.items))
	for _, a := range f.items {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeArticles) Get(ctx context.Context, id string) (domain.Article, error) {
	a, ok := f.items[id]
	if !ok {
		return domain.Article{}, fmt.Errorf("not found")
	}
	return a, nil
}

func (f *fakeArticles) Create(ctx context.Context, a domain.Article) (domain.Article, error) {
	a.ID = "42"
	f.items[a.ID] = a
	f.calls = append(f.calls, "create")
	return a, nil
}

func (f *fakeArticles) Update(ctx context.Context, a domain.Article) (domain.Article, error) {
	f.items[a.ID] = a
	f.calls = append(f.calls, "update:"+a.ID)
	return a, nil
}

func (f *fakeArticles) Delete(ctx context.Context, id string) error {
	delete(f.items, id)
	f.calls = append(f.calls, "delete:"+id)
	return nil
}

func (f *fakeArticles) Publish(ctx context.Context, id string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	a := f.items[id]
	a.Published = true
	f.items[id] = a
	f.calls = append(f.calls, "publish:"+id)
	return nil
}

func (f *fakeArticles) Unpublish(ctx context.Context, id string) error {
	a := f.items[id]
	a.Published = false
	f.items[id] = a
	f.calls = append(f.calls, "unpublish:"+id)
	return nil
}

func (f *fakeArticles) SetFeatured(ctx context.Context, id string, featured bool) error {
	a := f.items[id]
	a.Featured = featured
	f.items[id] = a
	f.calls = append(f.calls, fmt.Sprintf("feature:%s:%t", id, featured))
	return nil
}

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(ctx context.Context, articleID string) error {
	f.sent = append(f.sent, articleID)
	return f.err
}

func TestArticleCreateReturnsServerID(t *testing.T) {
	api := newFakeArticles()
	s := NewArticleStore(api, nil, zap.NewNop())

	saved, err := s.Save(context.Background(), domain.Article{Title: "A", Description: "B", Content: "<p>C</p>"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.ID != "42" {
		t.Fatalf("expected id 42, got %q", saved.ID)
	}
	items := s.Items()
	if len(items) != 1 || items[0].Title != "A" || items[0].Content != "<p>C</p>" {
		t.Fatalf("expected refreshed list with the new article, got %+v", items)
	}
	if api.listCalls != 1 {
		t.Fatalf("expected one refetch, got %d", api.listCalls)
	}
}

func TestTogglePublishSendsNewsletterOnce(t *testing.T) {
	api := newFakeArticles(domain.Article{ID: "7", Title: "T"})
	sender := &fakeSender{}
	s := NewArticleStore(api, sender, zap.NewNop())
	ctx := context.Background()

	if err := s.FetchAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.TogglePublish(ctx, "7"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "7" {
		t.Fatalf("expected newsletter for article 7, got %v", sender.sent)
	}

	if err := s.TogglePublish(ctx, "7"); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if last := api.calls[len(api.calls)-1]; last != "unpublish:7" {
		t.Fatalf("expected unpublish, got %s", last)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("unpublish must not send a newsletter")
	}
}

func TestPublishSkipsNewsletterAlreadySent(t *testing.T) {
	api := newFakeArticles(domain.Article{ID: "7", NewsletterSent: true})
	sender := &fakeSender{}
	s := NewArticleStore(api, sender, zap.NewNop())
	ctx := context.Background()
	_ = s.FetchAll(ctx)

	if err := s.TogglePublish(ctx, "7"); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("newsletter already sent, got %v", sender.sent)
	}
}

func TestNewsletterFailureDoesNotFailPublish(t *testing.T) {
	api := newFakeArticles(domain.Article{ID: "7"})
	s := NewArticleStore(api, &fakeSender{err: fmt.Errorf("smtp down")}, zap.NewNop())
	ctx := context.Background()
	_ = s.FetchAll(ctx)

	if err := s.TogglePublish(ctx, "7"); err != nil {
		t.Fatalf("publish should succeed, got %v", err)
	}
	if a, _ := s.Find("7"); !a.Published {
		t.Fatalf("expected refreshed article to be published")
	}
}

func TestPatchAppliesBothFlagsWithOneRefresh(t *testing.T) {
	api := newFakeArticles(domain.Article{ID: "3"})
	s := NewArticleStore(api, nil, zap.NewNop())
	yes := true

	if err := s.Patch(context.Background(), "3", domain.ArticlePatch{Published: &yes, Featured: &yes}); err != nil {
		t.Fatal(err)
	}
	if len(api.calls) != 2 || api.calls[0] != "publish:3" || api.calls[1] != "feature:3:true" {
		t.Fatalf("unexpected calls %v", api.calls)
	}
	if api.listCalls != 1 {
		t.Fatalf("expected one refresh, got %d", api.listCalls)
	}
}

func TestToggleUnknownArticleIsValidationError(t *testing.T) {
	s := NewArticleStore(newFakeArticles(), nil, zap.NewNop())
	if err := s.ToggleFeature(context.Background(), "nope"); err == nil {
		t.Fatalf("expected error for an article that is not loaded")
	}
}

func TestLoadByIDSetsCurrent(t *testing.T) {
	api := newFakeArticles(domain.Article{ID: "5", Title: "Five"})
	s := NewArticleStore(api, nil, zap.NewNop())

	if _, err := s.LoadByID(context.Background(), "5"); err != nil {
		t.Fatal(err)
	}
	if a, ok := s.Current(); !ok || a.Title != "Five" {
		t.Fatalf("expected current article")
	}
	s.ClearCurrent()
	if _, ok := s.Current(); ok {
		t.Fatalf("expected current cleared")
	}

	if _, err := s.LoadByID(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error")
	}
	if s.State().Err == "" {
		t.Fatalf("expected error recorded in state")
	}
}

type fakeEvents struct {
	allCalls, upcomingCalls, pastCalls atomic.Int32
	pastErr                            error
}

func (f *fakeEvents) List(ctx context.Context) ([]domain.Event, error) {
	f.allCalls.Add(1)
	return []domain.Event{{ID: 1}, {ID: 2}}, nil
}

func (f *fakeEvents) Upcoming(ctx context.Context) ([]domain.Event, error) {
	f.upcomingCalls.Add(1)
	return []domain.Event{{ID: 2, EventDate: time.Now().Add(time.Hour)}}, nil
}

func (f *fakeEvents) Past(ctx context.Context) ([]domain.Event, error) {
	f.pastCalls.Add(1)
	if f.pastErr != nil {
		return nil, f.pastErr
	}
	return []domain.Event{{ID: 1}}, nil
}

func (f *fakeEvents) Get(ctx context.Context, key string) (domain.Event, error) {
	return domain.Event{ID: 2, Title: "Gala"}, nil
}

func (f *fakeEvents) Create(ctx context.Context, e domain.Event) (domain.Event, error) {
	e.ID = 3
	return e, nil
}

func (f *fakeEvents) Update(ctx context.Context, e domain.Event) (domain.Event, error) {
	return e, nil
}

func (f *fakeEvents) Delete(ctx context.Context, key string) error {
	return nil
}

func TestEventMutationRefreshesAllThreeLists(t *testing.T) {
	api := &fakeEvents{}
	s := NewEventStore(api, zap.NewNop())

	if _, err := s.Save(context.Background(), domain.Event{Title: "New"}); err != nil {
		t.Fatal(err)
	}
	if api.allCalls.Load() != 1 || api.upcomingCalls.Load() != 1 || api.pastCalls.Load() != 1 {
		t.Fatalf("expected one call per list, got %d/%d/%d",
			api.allCalls.Load(), api.upcomingCalls.Load(), api.pastCalls.Load())
	}
	if len(s.Items()) != 2 || len(s.Upcoming()) != 1 || len(s.Past()) != 1 {
		t.Fatalf("lists not populated")
	}
}

func TestEventRefreshKeepsListsThatSucceeded(t *testing.T) {
	api := &fakeEvents{pastErr: fmt.Errorf("past down")}
	s := NewEventStore(api, zap.NewNop())

	if err := s.RefreshAll(context.Background()); err == nil {
		t.Fatalf("expected error from past list")
	}
	if len(s.Items()) != 2 || len(s.Upcoming()) != 1 {
		t.Fatalf("successful lists should still be loaded")
	}
	if s.State().Err == "" {
		t.Fatalf("expected error recorded")
	}

	if e, err := s.FetchByID(context.Background(), "2"); err != nil || e.Title != "Gala" {
		t.Fatalf("unexpected FetchByID result %+v %v", e, err)
	}
	if e, ok := s.Selected(); !ok || e.ID != 2 {
		t.Fatalf("expected selected event")
	}
}
