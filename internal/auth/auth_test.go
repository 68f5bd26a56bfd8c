package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	token, expiresAt, err := svc.GenerateToken("api")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "api", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_RejectsExpiredAndForeignTokens(t *testing.T) {
	svc := NewJWTService("secret", time.Minute)
	token, _, err := svc.GenerateToken("api")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	other := NewJWTService("other-secret", time.Minute)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	_, err = other.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}

func TestCredentials_Verify(t *testing.T) {
	plain := Credentials{Username: "api", Password: "pw"}
	assert.True(t, plain.Verify("api", "pw"))
	assert.False(t, plain.Verify("api", "wrong"))
	assert.False(t, plain.Verify("other", "pw"))

	hash, err := HashPassword("pw")
	require.NoError(t, err)
	assert.True(t, IsBcryptHash(hash))

	hashed := Credentials{Username: "api", Password: hash}
	assert.True(t, hashed.Verify("api", "pw"))
	assert.False(t, hashed.Verify("api", hash))

	assert.False(t, Credentials{}.Verify("", ""))
}

func newAuthRouter(jwtService *JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAuth(Credentials{Username: "api", Password: "pw"}, jwtService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString(UsernameKey), "method": c.GetString(MethodKey)})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	jwtService := NewJWTService("secret", time.Hour)
	token, _, err := jwtService.GenerateToken("api")
	require.NoError(t, err)

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		jwt        *JWTService
		wantStatus int
		wantMethod string
	}{
		{"no credentials", func(r *http.Request) {}, jwtService, http.StatusUnauthorized, ""},
		{"valid basic", func(r *http.Request) { r.SetBasicAuth("api", "pw") }, jwtService, http.StatusOK, "basic"},
		{"wrong basic", func(r *http.Request) { r.SetBasicAuth("api", "nope") }, jwtService, http.StatusUnauthorized, ""},
		{"valid bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, jwtService, http.StatusOK, "bearer"},
		{"bad bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer junk") }, jwtService, http.StatusUnauthorized, ""},
		{"bearer disabled", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, nil, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			newAuthRouter(tt.jwt).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="Scoring API"`, w.Header().Get("WWW-Authenticate"))
				assert.JSONEq(t, `{"error":"Unauthorized","message":"Please provide valid credentials"}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), tt.wantMethod)
			}
		})
	}
}
