package editor

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/internal/imageflow"
	"github.com/kapu/society-cms-go/pkg/errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func pngFile(name string, size int) domain.ImageFile {
	data := make([]byte, size)
	copy(data, pngHeader)
	return domain.ImageFile{Name: name, Data: data}
}

type fakeSaver struct {
	saves     []domain.Article
	refreshes int
	saveErr   error
	noID      bool
	block     chan struct{}
	started   chan struct{}
}

func (f *fakeSaver) Save(ctx context.Context, a domain.Article) (domain.Article, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	f.saves = append(f.saves, a)
	if f.saveErr != nil {
		return domain.Article{}, f.saveErr
	}
	if a.ID == "" && !f.noID {
		a.ID = "42"
	}
	return a, nil
}

func (f *fakeSaver) Refresh(ctx context.Context) error {
	f.refreshes++
	return nil
}

type fakeImageAPI struct {
	uploads     int
	finalizes   []string
	finalizeErr error
}

func (f *fakeImageAPI) UploadTemp(ctx context.Context, file domain.ImageFile) (string, error) {
	f.uploads++
	return "/uploads/articles/temp-" + file.Name, nil
}

func (f *fakeImageAPI) FinalizeImage(ctx context.Context, id, tempPath string) (string, error) {
	f.finalizes = append(f.finalizes, id+"|"+tempPath)
	if f.finalizeErr != nil {
		return "", f.finalizeErr
	}
	return "/uploads/articles/" + id + ".png", nil
}

func newArticleEditor(saver *fakeSaver, api *fakeImageAPI) (*Editor[domain.Article], *imageflow.Uploader) {
	uploader := imageflow.NewUploader("articles", api, imageflow.NewPreviewRegistry(), imageflow.NewLedger(), 5<<20, zap.NewNop())
	display := Display{BaseURL: "https://api.example.org/", Placeholder: "/default-avatar.png"}
	return New[domain.Article](saver, uploader, ValidateArticle, display, zap.NewNop()), uploader
}

func TestOversizedImageIsRejectedBeforeUpload(t *testing.T) {
	saver := &fakeSaver{}
	api := &fakeImageAPI{}
	ed, _ := newArticleEditor(saver, api)
	ed.Load(domain.Article{Title: "T", Content: "<p>x</p>"})

	err := ed.SelectImage(context.Background(), pngFile("huge.png", 6<<20))
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if api.uploads != 0 {
		t.Fatalf("no upload should be attempted")
	}
	if ed.Submitting() {
		t.Fatalf("saving must stay false")
	}
	if ed.Draft().ImageURL != "" {
		t.Fatalf("draft image must be untouched")
	}
}

func TestSubmitFinalizesTempImageWithSavedID(t *testing.T) {
	saver := &fakeSaver{}
	api := &fakeImageAPI{}
	ed, uploader := newArticleEditor(saver, api)
	ctx := context.Background()

	ed.Load(domain.Article{})
	ed.Edit(func(a domain.Article) domain.Article {
		a.Title, a.Description, a.Content = "A", "B", "<p>C</p>"
		return a
	})
	if err := ed.SelectImage(ctx, pngFile("cover.png", 128)); err != nil {
		t.Fatalf("select image: %v", err)
	}
	if !strings.HasPrefix(ed.DisplayImage(), "blob:") {
		t.Fatalf("preview should win while staged, got %q", ed.DisplayImage())
	}

	saved, err := ed.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if saved.ID != "42" || saved.ImageURL != "/uploads/articles/42.png" {
		t.Fatalf("unexpected saved article %+v", saved)
	}
	if len(saver.saves) != 1 || saver.saves[0].ImageURL != "/uploads/articles/temp-cover.png" {
		t.Fatalf("expected the temp path to be saved first, got %+v", saver.saves)
	}
	if len(api.finalizes) != 1 || api.finalizes[0] != "42|/uploads/articles/temp-cover.png" {
		t.Fatalf("expected finalize with saved id and exact temp path, got %v", api.finalizes)
	}
	if saver.refreshes != 1 {
		t.Fatalf("expected one refresh after finalize, got %d", saver.refreshes)
	}
	if uploader.Previews().Len() != 0 {
		t.Fatalf("preview should be revoked")
	}
	if got := ed.DisplayImage(); got != "https://api.example.org/uploads/articles/42.png" {
		t.Fatalf("unexpected display image %q", got)
	}
}

func TestSubmitWithoutTempImageSkipsFinalize(t *testing.T) {
	saver := &fakeSaver{}
	api := &fakeImageAPI{}
	ed, _ := newArticleEditor(saver, api)

	ed.Load(domain.Article{ID: "3", Title: "T", Content: "<p>x</p>", ImageURL: "/uploads/articles/3.png"})
	if _, err := ed.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(api.finalizes) != 0 || saver.refreshes != 0 {
		t.Fatalf("no finalize expected, got %v (refreshes %d)", api.finalizes, saver.refreshes)
	}
}

func TestFinalizeFailureStillReportsSave(t *testing.T) {
	saver := &fakeSaver{}
	api := &fakeImageAPI{finalizeErr: fmt.Errorf("bucket unavailable")}
	ed, uploader := newArticleEditor(saver, api)
	ctx := context.Background()

	ed.Load(domain.Article{Title: "T", Content: "<p>x</p>"})
	if err := ed.SelectImage(ctx, pngFile("p.png", 64)); err != nil {
		t.Fatal(err)
	}
	saved, err := ed.Submit(ctx)
	if err != nil {
		t.Fatalf("save should succeed, got %v", err)
	}
	if saved.ImageURL != "/uploads/articles/temp-p.png" {
		t.Fatalf("entity keeps the temp path, got %q", saved.ImageURL)
	}
	up, ok := ed.LastUpload()
	if !ok || up.Status != imageflow.StatusOrphaned {
		t.Fatalf("expected orphaned upload, got %+v", up)
	}
	if len(uploader.Ledger().Orphaned()) != 1 {
		t.Fatalf("orphan should be in the ledger")
	}
	if saver.refreshes != 0 {
		t.Fatalf("no refresh after a failed finalize")
	}
}

func TestLoadedTempPathIsFinalizedOnSave(t *testing.T) {
	saver := &fakeSaver{}
	api := &fakeImageAPI{}
	ed, _ := newArticleEditor(saver, api)

	ed.Load(domain.Article{ID: "9", Title: "T", Content: "<p>x</p>", ImageURL: "/uploads/articles/temp-old.png"})
	if _, err := ed.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(api.finalizes) != 1 || api.finalizes[0] != "9|/uploads/articles/temp-old.png" {
		t.Fatalf("expected leftover temp path to be finalized, got %v", api.finalizes)
	}
}

func TestValidationFailureSkipsSave(t *testing.T) {
	saver := &fakeSaver{}
	ed, _ := newArticleEditor(saver, &fakeImageAPI{})
	ed.Load(domain.Article{Title: "T", Content: "<p><br></p>"})

	if _, err := ed.Submit(context.Background()); !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(saver.saves) != 0 {
		t.Fatalf("save must not be called")
	}
	if ed.Submitting() {
		t.Fatalf("submitting must be cleared")
	}
}

func TestSubmitIsSingleFlight(t *testing.T) {
	saver := &fakeSaver{block: make(chan struct{}), started: make(chan struct{})}
	ed, _ := newArticleEditor(saver, &fakeImageAPI{})
	ed.Load(domain.Article{Title: "T", Content: "<p>x</p>"})

	done := make(chan error, 1)
	go func() {
		_, err := ed.Submit(context.Background())
		done <- err
	}()
	<-saver.started

	if _, err := ed.Submit(context.Background()); !stderrors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}
	close(saver.block)
	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if len(saver.saves) != 1 {
		t.Fatalf("expected exactly one save, got %d", len(saver.saves))
	}
}

func TestCancelDropsPreview(t *testing.T) {
	ed, uploader := newArticleEditor(&fakeSaver{}, &fakeImageAPI{})
	ed.Load(domain.Article{Title: "T"})
	if err := ed.SelectImage(context.Background(), pngFile("x.png", 64)); err != nil {
		t.Fatal(err)
	}

	ed.Cancel()
	if uploader.Previews().Len() != 0 {
		t.Fatalf("preview should be revoked on cancel")
	}
	if ed.Draft().Title != "" {
		t.Fatalf("draft should be reset")
	}
	if got := ed.DisplayImage(); got != "/default-avatar.png" {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestSaveWithoutIDOrphansStagedImage(t *testing.T) {
	saver := &fakeSaver{noID: true}
	api := &fakeImageAPI{}
	ed, uploader := newArticleEditor(saver, api)
	ctx := context.Background()

	ed.Load(domain.Article{Title: "T", Content: "<p>x</p>"})
	if err := ed.SelectImage(ctx, pngFile("a.png", 64)); err != nil {
		t.Fatalf("select image: %v", err)
	}

	saved, err := ed.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if saved.ImageURL != "/uploads/articles/temp-a.png" {
		t.Fatalf("expected the temp path to remain, got %q", saved.ImageURL)
	}
	if len(api.finalizes) != 0 {
		t.Fatalf("finalize needs an id, got calls %v", api.finalizes)
	}

	up, ok := ed.LastUpload()
	if !ok || up.Status != imageflow.StatusOrphaned || up.TempPath != "/uploads/articles/temp-a.png" {
		t.Fatalf("expected an orphaned upload to be reported, got %+v %v", up, ok)
	}
	if orphans := uploader.Ledger().Orphaned(); len(orphans) != 1 || orphans[0].ID != up.ID {
		t.Fatalf("expected the staged upload in the ledger as orphaned, got %+v", orphans)
	}
	if uploader.Previews().Len() != 0 {
		t.Fatalf("preview should be revoked")
	}
}
