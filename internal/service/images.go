package service

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/constants"
	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/pkg/errors"
)

// imageEndpoints implements the two-step upload shared by every resource
// with an image: POST <base>/upload-temp and POST <base>/finalize-image/:id.
type imageEndpoints struct {
	requester Requester
	base      string
	resource  string
	logger    *zap.Logger
}

type finalizeRequest struct {
	TempPath string `json:"tempPath"`
}

// UploadTemp stores file under a provisional path and returns that path.
func (e imageEndpoints) UploadTemp(ctx context.Context, file domain.ImageFile) (string, error) {
	var path string
	err := e.requester.Upload(ctx, e.base+"/upload-temp", constants.APIConfig.UploadField,
		file.Name, file.ContentType, file.Data, &path)
	if err != nil {
		return "", err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.NewAPIError("upload returned no path", http.StatusBadGateway, map[string]any{
			"resource": e.resource,
			"filename": file.Name,
		})
	}

	e.logger.Debug("Uploaded temp image",
		zap.String("resource", e.resource),
		zap.String("path", path),
		zap.Int64("bytes", file.Size()),
	)
	return path, nil
}

// FinalizeImage moves tempPath to its permanent location for entity id and
// returns the new path. An empty answer keeps tempPath.
func (e imageEndpoints) FinalizeImage(ctx context.Context, id, tempPath string) (string, error) {
	if id == "" {
		return "", errors.NewValidationError("cannot finalize an image without an entity id", "id", id)
	}

	var finalPath string
	err := e.requester.Do(ctx, http.MethodPost, e.base+"/finalize-image/"+id, nil,
		finalizeRequest{TempPath: tempPath}, &finalPath)
	if err != nil {
		return "", err
	}
	finalPath = strings.TrimSpace(finalPath)
	if finalPath == "" {
		finalPath = tempPath
	}

	e.logger.Info("Finalized image",
		zap.String("resource", e.resource),
		zap.String("id", id),
		zap.String("path", finalPath),
	)
	return finalPath, nil
}
