package imageflow

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kapu/society-cms-go/internal/constants"
	"github.com/kapu/society-cms-go/internal/domain"
)

// PreviewRegistry holds selected files under blob:<uuid> references until
// they are revoked.
type PreviewRegistry struct {
	mu    sync.Mutex
	files map[string]domain.ImageFile
}

func NewPreviewRegistry() *PreviewRegistry {
	return &PreviewRegistry{files: make(map[string]domain.ImageFile)}
}

func (r *PreviewRegistry) Create(file domain.ImageFile) string {
	ref := constants.ImageConfig.PreviewScheme + uuid.NewString()
	r.mu.Lock()
	r.files[ref] = file
	r.mu.Unlock()
	return ref
}

func (r *PreviewRegistry) Resolve(ref string) (domain.ImageFile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[ref]
	return file, ok
}

// Revoke releases ref. Revoking an unknown or empty ref is a no-op.
func (r *PreviewRegistry) Revoke(ref string) {
	if ref == "" {
		return
	}
	r.mu.Lock()
	delete(r.files, ref)
	r.mu.Unlock()
}

// Len is the number of live previews.
func (r *PreviewRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.files)
}
