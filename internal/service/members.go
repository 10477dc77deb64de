package service

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/pkg/errors"
)

type MemberService struct {
	imageEndpoints
	requester Requester
	logger    *zap.Logger
}

func NewMemberService(requester Requester, logger *zap.Logger) *MemberService {
	return &MemberService{
		imageEndpoints: imageEndpoints{requester: requester, base: "/members/admin", resource: "members", logger: logger},
		requester:      requester,
		logger:         logger,
	}
}

// List returns every committee member, active or not. Admin only.
func (s *MemberService) List(ctx context.Context) ([]domain.Member, error) {
	return s.list(ctx, "/members/admin")
}

func (s *MemberService) ListActive(ctx context.Context) ([]domain.Member, error) {
	return s.list(ctx, "/members/active")
}

func (s *MemberService) list(ctx context.Context, path string) ([]domain.Member, error) {
	var wires []memberWire
	if err := s.requester.Do(ctx, http.MethodGet, path, nil, nil, &wires); err != nil {
		return nil, err
	}
	return convertAll(wires, memberFromWire)
}

func (s *MemberService) Create(ctx context.Context, member domain.Member) (domain.Member, error) {
	var wire memberWire
	if err := s.requester.Do(ctx, http.MethodPost, "/members/admin", nil, newMemberPayload(member, false), &wire); err != nil {
		return domain.Member{}, err
	}
	return s.saved(wire, member)
}

func (s *MemberService) Update(ctx context.Context, member domain.Member) (domain.Member, error) {
	if member.ID == 0 {
		return domain.Member{}, errors.NewValidationError("member id is required for update", "id", member.ID)
	}
	var wire memberWire
	path := "/members/admin/" + member.Key()
	if err := s.requester.Do(ctx, http.MethodPut, path, nil, newMemberPayload(member, true), &wire); err != nil {
		return domain.Member{}, err
	}
	return s.saved(wire, member)
}

func (s *MemberService) saved(wire memberWire, submitted domain.Member) (domain.Member, error) {
	if wire.ID == "" && wire.Name == "" {
		return submitted, nil
	}
	return wire.toDomain()
}

func (s *MemberService) Delete(ctx context.Context, key string) error {
	return s.requester.Do(ctx, http.MethodDelete, "/members/admin/"+url.PathEscape(key), nil, nil, nil)
}
