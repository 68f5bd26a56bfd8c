package services

import (
	"testing"
	"time"

	"github.com/ajharbinger/scoring-api/internal/auth"
	apperrors "github.com/ajharbinger/scoring-api/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Login(t *testing.T) {
	jwtService := auth.NewJWTService("secret", time.Hour)
	svc := NewAuthService(auth.Credentials{Username: "api", Password: "pw"}, jwtService)

	resp, err := svc.Login("api", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)

	claims, err := jwtService.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "api", claims.Username)

	_, err = svc.Login("api", "wrong")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeUnauthorized))
}

func TestAuthService_LoginWithoutJWT(t *testing.T) {
	svc := NewAuthService(auth.Credentials{Username: "api", Password: "pw"}, nil)

	_, err := svc.Login("api", "pw")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
}
