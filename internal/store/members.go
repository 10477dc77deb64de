package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/pkg/errors"
)

type MemberAPI interface {
	Resource[domain.Member]
	ListActive(ctx context.Context) ([]domain.Member, error)
}

// MemberStore adds the committee page state on top of the admin list: the
// public active list, the rotating highlight, the member opened in the
// detail view and the member being edited.
type MemberStore struct {
	*Store[domain.Member]
	api    MemberAPI
	logger *zap.Logger

	mu           sync.Mutex
	active       []domain.Member
	currentIndex int
	selected     *domain.Member
	editing      *domain.Member
}

func NewMemberStore(api MemberAPI, logger *zap.Logger) *MemberStore {
	return &MemberStore{
		Store:  New[domain.Member]("members", api, logger),
		api:    api,
		logger: logger,
	}
}

func (s *MemberStore) FetchActive(ctx context.Context) error {
	members, err := s.api.ListActive(ctx)
	if err != nil {
		s.fail(err, "Failed to load members")
		return errors.NewServiceError("failed to load active members", "members", "fetch_active", err)
	}

	s.mu.Lock()
	s.active = members
	if s.currentIndex >= len(members) {
		s.currentIndex = 0
	}
	s.mu.Unlock()
	return nil
}

func (s *MemberStore) Active() []domain.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Member(nil), s.active...)
}

// Rotate advances the highlighted member and returns its index. It wraps
// around and stays at 0 while nothing is loaded.
func (s *MemberStore) Rotate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.active); n > 0 {
		s.currentIndex = (s.currentIndex + 1) % n
	} else {
		s.currentIndex = 0
	}
	return s.currentIndex
}

func (s *MemberStore) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

func (s *MemberStore) Select(member domain.Member) {
	s.mu.Lock()
	s.selected = &member
	s.mu.Unlock()
}

func (s *MemberStore) Selected() (domain.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return domain.Member{}, false
	}
	return *s.selected, true
}

func (s *MemberStore) CloseModal() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}

// Edit marks member as the one open in the form. A zero Member starts a new
// one.
func (s *MemberStore) Edit(member domain.Member) {
	s.mu.Lock()
	s.editing = &member
	s.mu.Unlock()
}

func (s *MemberStore) Editing() (domain.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing == nil {
		return domain.Member{}, false
	}
	return *s.editing, true
}

func (s *MemberStore) StopEditing() {
	s.mu.Lock()
	s.editing = nil
	s.mu.Unlock()
}
