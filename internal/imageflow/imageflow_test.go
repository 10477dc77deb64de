package imageflow

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/pkg/errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func pngFile(name string, size int) domain.ImageFile {
	data := make([]byte, size)
	copy(data, pngHeader)
	return domain.ImageFile{Name: name, Data: data}
}

type fakeImageAPI struct {
	uploads     int
	finalizes   []string
	uploadErr   error
	finalizeErr error
}

func (f *fakeImageAPI) UploadTemp(ctx context.Context, file domain.ImageFile) (string, error) {
	f.uploads++
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "/uploads/articles/temp-" + file.Name, nil
}

func (f *fakeImageAPI) FinalizeImage(ctx context.Context, id, tempPath string) (string, error) {
	f.finalizes = append(f.finalizes, id+"|"+tempPath)
	if f.finalizeErr != nil {
		return "", f.finalizeErr
	}
	return strings.Replace(tempPath, "temp-", id+"-", 1), nil
}

func newTestUploader(api API) *Uploader {
	return NewUploader("articles", api, NewPreviewRegistry(), NewLedger(), 5<<20, zap.NewNop())
}

func TestValidateRejectsOversizedImage(t *testing.T) {
	_, err := Validate(pngFile("big.png", 6<<20), 5<<20)
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "5 MB") {
		t.Fatalf("expected limit in message, got %q", err.Error())
	}
}

func TestValidateSniffsContent(t *testing.T) {
	got, err := Validate(pngFile("photo.png", 64), 5<<20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "image/png" {
		t.Fatalf("expected image/png, got %q", got)
	}

	text := domain.ImageFile{Name: "fake.png", ContentType: "image/png", Data: []byte("just some text")}
	if _, err := Validate(text, 5<<20); !errors.IsValidation(err) {
		t.Fatalf("expected text disguised as png to be rejected, got %v", err)
	}
	if _, err := Validate(domain.ImageFile{Name: "empty.png"}, 5<<20); !errors.IsValidation(err) {
		t.Fatalf("expected empty file to be rejected")
	}
}

func TestStageRejectsInvalidFileWithoutNetwork(t *testing.T) {
	api := &fakeImageAPI{}
	u := newTestUploader(api)

	if _, err := u.Stage(context.Background(), pngFile("big.png", 6<<20)); err == nil {
		t.Fatalf("expected error")
	}
	if api.uploads != 0 {
		t.Fatalf("validation failure must not upload")
	}
	if u.Previews().Len() != 0 {
		t.Fatalf("no preview should be created")
	}
}

func TestStageThenFinalize(t *testing.T) {
	api := &fakeImageAPI{}
	u := newTestUploader(api)
	ctx := context.Background()

	up, err := u.Stage(ctx, pngFile("a.png", 64))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if up.Status != StatusUploaded || up.TempPath != "/uploads/articles/temp-a.png" {
		t.Fatalf("unexpected staged upload %+v", up)
	}
	if !domain.IsPreviewRef(up.Preview) {
		t.Fatalf("expected blob preview, got %q", up.Preview)
	}
	if _, ok := u.Previews().Resolve(up.Preview); !ok {
		t.Fatalf("preview should resolve before finalize")
	}

	done, err := u.Finalize(ctx, up.ID, "42")
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if done.Status != StatusFinalized || done.FinalPath != "/uploads/articles/42-a.png" {
		t.Fatalf("unexpected finalized upload %+v", done)
	}
	if len(api.finalizes) != 1 || api.finalizes[0] != "42|/uploads/articles/temp-a.png" {
		t.Fatalf("expected finalize with exact id and path, got %v", api.finalizes)
	}
	if u.Previews().Len() != 0 {
		t.Fatalf("preview must be revoked after finalize")
	}
}

func TestFinalizeFailureOrphansAndRetrySucceeds(t *testing.T) {
	api := &fakeImageAPI{finalizeErr: fmt.Errorf("storage unavailable")}
	u := newTestUploader(api)
	ctx := context.Background()

	up, err := u.Stage(ctx, pngFile("b.png", 64))
	if err != nil {
		t.Fatal(err)
	}
	failed, err := u.Finalize(ctx, up.ID, "7")
	if err == nil {
		t.Fatalf("expected finalize error")
	}
	if failed.Status != StatusOrphaned || failed.Err == "" {
		t.Fatalf("expected orphaned upload, got %+v", failed)
	}
	if u.Previews().Len() != 0 {
		t.Fatalf("preview must be revoked even on failure")
	}
	if orphans := u.Ledger().Orphaned(); len(orphans) != 1 || orphans[0].ID != up.ID {
		t.Fatalf("expected orphan in ledger, got %+v", orphans)
	}

	api.finalizeErr = nil
	retried, err := u.Retry(ctx, up.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if retried.Status != StatusFinalized || retried.EntityID != "7" {
		t.Fatalf("unexpected retried upload %+v", retried)
	}
	if len(u.Ledger().Orphaned()) != 0 {
		t.Fatalf("ledger should have no orphans after retry")
	}

	if _, err := u.Retry(ctx, up.ID); !stderrors.Is(err, ErrNotOrphaned) {
		t.Fatalf("expected ErrNotOrphaned, got %v", err)
	}
}

func TestFinalizeSkipsNonTempPath(t *testing.T) {
	api := &fakeImageAPI{}
	u := newTestUploader(api)
	ledger := u.Ledger()
	ledger.put(Upload{ID: "u1", TempPath: "/uploads/articles/final.png", Status: StatusUploaded})

	up, err := u.Finalize(context.Background(), "u1", "3")
	if err != nil {
		t.Fatal(err)
	}
	if len(api.finalizes) != 0 {
		t.Fatalf("non-temp path must not be finalized")
	}
	if up.Status != StatusFinalized || up.FinalPath != "/uploads/articles/final.png" {
		t.Fatalf("unexpected upload %+v", up)
	}
}

func TestStageFailureRevokesPreview(t *testing.T) {
	api := &fakeImageAPI{uploadErr: fmt.Errorf("413")}
	u := newTestUploader(api)

	if _, err := u.Stage(context.Background(), pngFile("c.png", 64)); err == nil {
		t.Fatalf("expected error")
	}
	if u.Previews().Len() != 0 || len(u.Ledger().All()) != 0 {
		t.Fatalf("failed upload must leave nothing behind")
	}
}

func TestTrackAndRetryManualOrphan(t *testing.T) {
	api := &fakeImageAPI{}
	u := newTestUploader(api)

	if _, err := u.Track("9", "/uploads/articles/final.png"); !errors.IsValidation(err) {
		t.Fatalf("expected non-temp path to be refused, got %v", err)
	}
	up, err := u.Track("9", "/uploads/articles/temp-x.png")
	if err != nil {
		t.Fatal(err)
	}
	done, err := u.Retry(context.Background(), up.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.FinalPath != "/uploads/articles/9-x.png" {
		t.Fatalf("unexpected final path %q", done.FinalPath)
	}
}

func TestDiscardRevokesPreviewOnly(t *testing.T) {
	api := &fakeImageAPI{}
	u := newTestUploader(api)
	up, err := u.Stage(context.Background(), pngFile("d.png", 64))
	if err != nil {
		t.Fatal(err)
	}

	u.Discard(up.ID)
	if u.Previews().Len() != 0 {
		t.Fatalf("preview should be revoked")
	}
	if got, _ := u.Ledger().Get(up.ID); got.Status != StatusUploaded {
		t.Fatalf("discarded upload keeps its status, got %s", got.Status)
	}
}

func TestOrphanRecordsPathWithoutStagedUpload(t *testing.T) {
	u := newTestUploader(&fakeImageAPI{})

	up := u.Orphan("", "/uploads/events/temp-z.png", "no id")
	if up.Status != StatusOrphaned || up.EntityID != "" || up.Err != "no id" {
		t.Fatalf("unexpected orphan %+v", up)
	}
	if orphans := u.Ledger().Orphaned(); len(orphans) != 1 || orphans[0].TempPath != "/uploads/events/temp-z.png" {
		t.Fatalf("expected one orphan in the ledger, got %+v", orphans)
	}
}
