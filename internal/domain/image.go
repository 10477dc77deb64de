package domain

import (
	"strings"

	"github.com/kapu/society-cms-go/internal/constants"
)

// ResolveImageURL turns a stored image reference into something displayable.
// A local preview reference wins, absolute URLs pass through, anything else is
// a server-relative path joined to baseURL. An empty ref yields placeholder.
func ResolveImageURL(ref, baseURL, placeholder string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return placeholder
	case IsPreviewRef(ref):
		return ref
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(ref, "/")
}

// IsPreviewRef reports whether ref is a local, not-yet-confirmed preview.
func IsPreviewRef(ref string) bool {
	return strings.HasPrefix(ref, constants.ImageConfig.PreviewScheme)
}

// IsTempImage reports whether ref still points at a provisional upload that
// needs finalizing once its owner has an id.
func IsTempImage(ref string) bool {
	return ref != "" && !IsPreviewRef(ref) && strings.Contains(ref, constants.ImageConfig.TempMarker)
}

// ImageFile is a user-selected image before it is sent anywhere.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f ImageFile) Size() int64 {
	return int64(len(f.Data))
}
