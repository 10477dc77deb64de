// Package imageflow runs the two-step image upload: a file is validated,
// previewed locally and stored under a provisional server path, then
// finalized once its owning entity has an id. Uploads whose finalize fails
// are kept as orphaned so they can be retried.
package imageflow

import (
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/pkg/errors"
)

// Validate checks file before anything is sent. It sniffs the content rather
// than trusting the declared type and returns the detected MIME type.
func Validate(file domain.ImageFile, maxBytes int64) (string, error) {
	if file.Size() == 0 {
		return "", errors.NewValidationError("image file is empty", "image", file.Name)
	}
	if maxBytes > 0 && file.Size() > maxBytes {
		return "", errors.NewValidationError(
			"image is larger than "+humanBytes(maxBytes),
			"image",
			file.Size(),
		)
	}

	detected := mimetype.Detect(file.Data)
	for m := detected; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return m.String(), nil
		}
	}
	return "", errors.NewValidationError("file is not an image ("+detected.String()+")", "image", file.Name)
}

func humanBytes(n int64) string {
	const mib = 1 << 20
	const kib = 1 << 10
	switch {
	case n >= mib && n%mib == 0:
		return strconv.FormatInt(n/mib, 10) + " MB"
	case n >= kib && n%kib == 0:
		return strconv.FormatInt(n/kib, 10) + " KB"
	}
	return strconv.FormatInt(n, 10) + " bytes"
}
