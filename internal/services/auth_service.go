package services

import (
	"time"

	"github.com/ajharbinger/scoring-api/internal/auth"
	apperrors "github.com/ajharbinger/scoring-api/internal/errors"
)

// AuthService issues bearer tokens for the API account
type AuthService interface {
	Login(username, password string) (*LoginResponse, error)
}

// LoginResponse is returned by a successful Login
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// authServiceImpl implements AuthService
type authServiceImpl struct {
	creds      auth.Credentials
	jwtService *auth.JWTService
}

// NewAuthService creates a new auth service implementation
func NewAuthService(creds auth.Credentials, jwtService *auth.JWTService) AuthService {
	return &authServiceImpl{
		creds:      creds,
		jwtService: jwtService,
	}
}

// Login verifies the account credentials and returns a signed token
func (s *authServiceImpl) Login(username, password string) (*LoginResponse, error) {
	if s.jwtService == nil {
		return nil, apperrors.ValidationError("bearer tokens are not enabled", nil).WithOperation("Login")
	}
	if !s.creds.Verify(username, password) {
		return nil, apperrors.Unauthorized("invalid credentials", nil).WithOperation("Login")
	}

	token, expiresAt, err := s.jwtService.GenerateToken(username)
	if err != nil {
		return nil, apperrors.InternalError("failed to generate token", err).WithOperation("Login")
	}

	return &LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	}, nil
}
