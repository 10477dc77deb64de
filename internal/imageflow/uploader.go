package imageflow

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/pkg/errors"
)

var (
	// ErrNotOrphaned is returned by Retry for an upload that is not waiting
	// for a retry.
	ErrNotOrphaned   = stderrors.New("upload is not orphaned")
	ErrUnknownUpload = stderrors.New("unknown upload")
)

// API is the pair of image endpoints each resource service exposes.
type API interface {
	UploadTemp(ctx context.Context, file domain.ImageFile) (string, error)
	FinalizeImage(ctx context.Context, id, tempPath string) (string, error)
}

type Uploader struct {
	resource string
	api      API
	previews *PreviewRegistry
	ledger   *Ledger
	maxBytes int64
	logger   *zap.Logger
	now      func() time.Time
}

func NewUploader(resource string, api API, previews *PreviewRegistry, ledger *Ledger, maxBytes int64, logger *zap.Logger) *Uploader {
	return &Uploader{
		resource: resource,
		api:      api,
		previews: previews,
		ledger:   ledger,
		maxBytes: maxBytes,
		logger:   logger,
		now:      time.Now,
	}
}

func (u *Uploader) Previews() *PreviewRegistry {
	return u.previews
}

func (u *Uploader) Ledger() *Ledger {
	return u.ledger
}

// Stage validates file, creates its local preview and uploads it to the temp
// location. Validation failures never reach the network. If the upload
// fails the preview is revoked again.
func (u *Uploader) Stage(ctx context.Context, file domain.ImageFile) (Upload, error) {
	contentType, err := Validate(file, u.maxBytes)
	if err != nil {
		return Upload{}, err
	}
	file.ContentType = contentType

	now := u.now()
	up := Upload{
		ID:        uuid.NewString(),
		Resource:  u.resource,
		Filename:  file.Name,
		Preview:   u.previews.Create(file),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	u.ledger.put(up)

	tempPath, err := u.api.UploadTemp(ctx, file)
	if err != nil {
		u.previews.Revoke(up.Preview)
		u.ledger.remove(up.ID)
		u.logger.Warn("Temp upload failed",
			zap.String("resource", u.resource),
			zap.String("filename", file.Name),
			zap.Error(err),
		)
		return Upload{}, err
	}

	up.TempPath = tempPath
	up.Status = StatusUploaded
	up.UpdatedAt = u.now()
	u.ledger.put(up)
	return up, nil
}

// Finalize moves an uploaded file to its permanent path for entityID. The
// preview is revoked whatever the outcome. A failure leaves the upload
// orphaned and is returned so the caller can report it; it never undoes the
// entity save that preceded it.
func (u *Uploader) Finalize(ctx context.Context, uploadID, entityID string) (Upload, error) {
	up, ok := u.ledger.Get(uploadID)
	if !ok {
		return Upload{}, ErrUnknownUpload
	}
	u.previews.Revoke(up.Preview)
	up.Preview = ""
	up.EntityID = entityID

	if !domain.IsTempImage(up.TempPath) {
		up.FinalPath = up.TempPath
		up.Status = StatusFinalized
		up.UpdatedAt = u.now()
		u.ledger.put(up)
		return up, nil
	}

	return u.finalize(ctx, up)
}

// Track records a temp path that was left behind outside this process as an
// orphan, so it can be retried.
func (u *Uploader) Track(entityID, tempPath string) (Upload, error) {
	if entityID == "" {
		return Upload{}, errors.NewValidationError("entity id is required", "id", entityID)
	}
	if !domain.IsTempImage(tempPath) {
		return Upload{}, errors.NewValidationError("path is not a temporary upload", "tempPath", tempPath)
	}
	now := u.now()
	up := Upload{
		ID:        uuid.NewString(),
		Resource:  u.resource,
		TempPath:  tempPath,
		EntityID:  entityID,
		Status:    StatusOrphaned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	u.ledger.put(up)
	return up, nil
}

// Orphan records tempPath as orphaned without an entity id, for a save that
// came back without one. The upload staged under uploadID is reused when it
// holds the same path. Once the id is known it can be finalized with Track.
func (u *Uploader) Orphan(uploadID, tempPath, reason string) Upload {
	up, ok := u.ledger.Get(uploadID)
	if ok && up.TempPath != tempPath {
		u.Discard(uploadID)
		ok = false
	}
	if !ok {
		up = Upload{
			ID:        uuid.NewString(),
			Resource:  u.resource,
			TempPath:  tempPath,
			CreatedAt: u.now(),
		}
	}
	u.previews.Revoke(up.Preview)
	up.Preview = ""
	up.Status = StatusOrphaned
	up.Err = reason
	up.UpdatedAt = u.now()
	u.ledger.put(up)

	u.logger.Warn("Temp image left without an owner id",
		zap.String("resource", u.resource),
		zap.String("temp_path", tempPath),
		zap.String("upload_id", up.ID),
	)
	return up
}

// Retry finalizes an orphaned upload again.
func (u *Uploader) Retry(ctx context.Context, uploadID string) (Upload, error) {
	up, ok := u.ledger.Get(uploadID)
	if !ok {
		return Upload{}, ErrUnknownUpload
	}
	if up.Status != StatusOrphaned {
		return up, ErrNotOrphaned
	}
	return u.finalize(ctx, up)
}

// Discard drops the local preview of an upload whose form was cancelled.
// The temp file stays on the server.
func (u *Uploader) Discard(uploadID string) {
	up, ok := u.ledger.Get(uploadID)
	if !ok {
		return
	}
	u.previews.Revoke(up.Preview)
	up.Preview = ""
	up.UpdatedAt = u.now()
	u.ledger.put(up)

	u.logger.Debug("Upload abandoned",
		zap.String("resource", u.resource),
		zap.String("temp_path", up.TempPath),
	)
}

func (u *Uploader) finalize(ctx context.Context, up Upload) (Upload, error) {
	finalPath, err := u.api.FinalizeImage(ctx, up.EntityID, up.TempPath)
	up.UpdatedAt = u.now()
	if err != nil {
		up.Status = StatusOrphaned
		up.Err = errors.HumanMessage(err, "finalize failed")
		u.ledger.put(up)
		u.logger.Error("Image finalize failed, upload orphaned",
			zap.String("resource", u.resource),
			zap.String("entity_id", up.EntityID),
			zap.String("temp_path", up.TempPath),
			zap.String("upload_id", up.ID),
			zap.Error(err),
		)
		return up, err
	}

	up.Status = StatusFinalized
	up.FinalPath = finalPath
	up.Err = ""
	u.ledger.put(up)
	return up, nil
}
