package service

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/pkg/errors"
)

type AuthService struct {
	requester Requester
	logger    *zap.Logger
}

func NewAuthService(requester Requester, logger *zap.Logger) *AuthService {
	return &AuthService{requester: requester, logger: logger}
}

type loginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Login exchanges credentials for a bearer token. It does not store the
// token; that is the session's job.
func (s *AuthService) Login(ctx context.Context, usernameOrEmail, password string) (string, error) {
	usernameOrEmail = strings.TrimSpace(usernameOrEmail)
	if usernameOrEmail == "" {
		return "", errors.NewValidationError("username or email is required", "usernameOrEmail", usernameOrEmail)
	}
	if password == "" {
		return "", errors.NewValidationError("password is required", "password", "")
	}

	var resp loginResponse
	req := loginRequest{UsernameOrEmail: usernameOrEmail, Password: password}
	if err := s.requester.Do(ctx, http.MethodPost, "/admin/login", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.NewAuthError("login response did not include a token", map[string]any{
			"user": usernameOrEmail,
		})
	}

	s.logger.Info("Logged in", zap.String("user", usernameOrEmail))
	return resp.Token, nil
}

// Verify asks the server whether the current token is still valid. A 401
// surfaces as an *errors.AuthError.
func (s *AuthService) Verify(ctx context.Context) error {
	return s.requester.Do(ctx, http.MethodGet, "/admin/verify", nil, nil, nil)
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.requester.Do(ctx, http.MethodPost, "/admin/logout", nil, nil, nil)
}
