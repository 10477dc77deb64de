// Package editor is the form controller shared by the article, member and
// event forms: it owns the draft, the selected image and the submit
// sequence of validate, save, finalize image, refresh.
package editor

import (
	"context"
	stderrors "errors"
	"sync"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/internal/imageflow"
)

// ErrSubmitInFlight is returned when Submit is called while a previous
// submit of the same form has not finished.
var ErrSubmitInFlight = stderrors.New("a save is already in progress")

// Imageable is an entity whose image reference can be replaced.
type Imageable[T any] interface {
	domain.ImageBearer
	WithImage(ref string) T
}

// Saver is the store side of a form.
type Saver[T any] interface {
	Save(ctx context.Context, item T) (T, error)
	Refresh(ctx context.Context) error
}

// Display resolves stored image references for showing.
type Display struct {
	BaseURL     string
	Placeholder string
}

type Editor[T Imageable[T]] struct {
	saver    Saver[T]
	uploader *imageflow.Uploader
	validate Validator[T]
	display  Display
	logger   *zap.Logger

	mu         sync.Mutex
	draft      T
	upload     *imageflow.Upload
	last       *imageflow.Upload
	submitting bool
}

func New[T Imageable[T]](saver Saver[T], uploader *imageflow.Uploader, validate Validator[T], display Display, logger *zap.Logger) *Editor[T] {
	return &Editor[T]{
		saver:    saver,
		uploader: uploader,
		validate: validate,
		display:  display,
		logger:   logger,
	}
}

// Load opens item in the form. A zero value starts a new entity.
func (e *Editor[T]) Load(item T) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.discardLocked()
	e.draft = item
}

func (e *Editor[T]) Draft() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// Edit applies fn to the draft.
func (e *Editor[T]) Edit(fn func(T) T) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = fn(e.draft)
}

// SelectImage validates and uploads file to the temp location and points
// the draft at it. An invalid file leaves the draft untouched and never
// reaches the network.
func (e *Editor[T]) SelectImage(ctx context.Context, file domain.ImageFile) error {
	up, err := e.uploader.Stage(ctx, file)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.discardLocked()
	e.upload = &up
	e.draft = e.draft.WithImage(up.TempPath)
	return nil
}

// DisplayImage is what the form shows: the local preview while one exists,
// otherwise the resolved stored reference or the placeholder.
func (e *Editor[T]) DisplayImage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.upload != nil && e.upload.Preview != "" {
		return e.upload.Preview
	}
	return domain.ResolveImageURL(e.draft.ImageRef(), e.display.BaseURL, e.display.Placeholder)
}

func (e *Editor[T]) Submitting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitting
}

// LastUpload reports the image upload handled by the most recent submit.
func (e *Editor[T]) LastUpload() (imageflow.Upload, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return imageflow.Upload{}, false
	}
	return *e.last, true
}

// Submit validates and saves the draft. When the saved entity has an id and
// its image is still a temp upload, the image is finalized with exactly that
// id and path; a successful finalize is followed by one refresh. A failed
// finalize, or a save that returns no id, orphans the upload but the save is
// still reported as successful.
func (e *Editor[T]) Submit(ctx context.Context) (T, error) {
	var zero T

	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return zero, ErrSubmitInFlight
	}
	e.submitting = true
	draft := e.draft
	upload := e.upload
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.submitting = false
		e.mu.Unlock()
	}()

	if e.validate != nil {
		if err := e.validate(draft); err != nil {
			return zero, err
		}
	}

	saved, err := e.saver.Save(ctx, draft)
	if err != nil {
		return zero, err
	}

	result := saved
	var handled *imageflow.Upload
	tempPath := draft.ImageRef()
	switch {
	case saved.Key() != "" && domain.IsTempImage(tempPath):
		up, finalizeErr := e.finalize(ctx, upload, saved.Key(), tempPath)
		handled = &up
		if finalizeErr == nil {
			result = saved.WithImage(up.FinalPath)
			if err := e.saver.Refresh(ctx); err != nil {
				e.logger.Warn("Refresh after finalize failed", zap.Error(err))
			}
		}
	case domain.IsTempImage(tempPath):
		uploadID := ""
		if upload != nil {
			uploadID = upload.ID
		}
		up := e.uploader.Orphan(uploadID, tempPath, "the server returned no id to finalize the image with")
		handled = &up
	case upload != nil:
		e.uploader.Discard(upload.ID)
	}

	e.mu.Lock()
	e.draft = result
	e.upload = nil
	e.last = handled
	e.mu.Unlock()
	return result, nil
}

// finalize prefers the upload staged in this form. A temp path that came
// with a loaded entity is tracked and retried as an orphan.
func (e *Editor[T]) finalize(ctx context.Context, upload *imageflow.Upload, key, tempPath string) (imageflow.Upload, error) {
	if upload != nil && upload.TempPath == tempPath {
		return e.uploader.Finalize(ctx, upload.ID, key)
	}
	if upload != nil {
		e.uploader.Discard(upload.ID)
	}
	tracked, err := e.uploader.Track(key, tempPath)
	if err != nil {
		return tracked, err
	}
	return e.uploader.Retry(ctx, tracked.ID)
}

// Cancel abandons the form. A temp file already uploaded stays on the
// server unreferenced.
func (e *Editor[T]) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.discardLocked()
	var zero T
	e.draft = zero
}

func (e *Editor[T]) discardLocked() {
	if e.upload != nil {
		e.uploader.Discard(e.upload.ID)
		e.upload = nil
	}
}
