package imageflow

import (
	"sort"
	"sync"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusUploaded  Status = "uploaded"
	StatusFinalized Status = "finalized"
	StatusOrphaned  Status = "orphaned"
)

// Upload is one pass through the two-step protocol.
type Upload struct {
	ID        string
	Resource  string
	Filename  string
	Preview   string
	TempPath  string
	FinalPath string
	EntityID  string
	Status    Status
	Err       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ledger remembers every upload of the process so orphans can be listed and
// retried.
type Ledger struct {
	mu      sync.Mutex
	uploads map[string]Upload
}

func NewLedger() *Ledger {
	return &Ledger{uploads: make(map[string]Upload)}
}

func (l *Ledger) put(up Upload) {
	l.mu.Lock()
	l.uploads[up.ID] = up
	l.mu.Unlock()
}

func (l *Ledger) Get(id string) (Upload, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	up, ok := l.uploads[id]
	return up, ok
}

// Orphaned lists uploads whose finalize failed, oldest first.
func (l *Ledger) Orphaned() []Upload {
	return l.filter(func(up Upload) bool { return up.Status == StatusOrphaned })
}

func (l *Ledger) All() []Upload {
	return l.filter(func(Upload) bool { return true })
}

func (l *Ledger) filter(keep func(Upload) bool) []Upload {
	l.mu.Lock()
	out := make([]Upload, 0, len(l.uploads))
	for _, up := range l.uploads {
		if keep(up) {
			out = append(out, up)
		}
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (l *Ledger) remove(id string) {
	l.mu.Lock()
	delete(l.uploads, id)
	l.mu.Unlock()
}
