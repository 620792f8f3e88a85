package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeJWKSClient validates nothing and returns canned claims.
type fakeJWKSClient struct {
	claims *Claims
	err    error
}

func (f *fakeJWKSClient) ValidateToken(token string) (*Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func (f *fakeJWKSClient) Close() {}

func TestValidateRequest(t *testing.T) {
	t.Run("valid bearer token", func(t *testing.T) {
		svc := NewAuthService(&fakeJWKSClient{claims: &Claims{ProjectID: "p-1"}}, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Authorization", "Bearer some-token")

		claims, token, err := svc.ValidateRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "p-1", claims.ProjectID)
		assert.Equal(t, "some-token", token)
	})

	t.Run("missing header", func(t *testing.T) {
		svc := NewAuthService(&fakeJWKSClient{}, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		_, _, err := svc.ValidateRequest(req)
		assert.ErrorIs(t, err, ErrMissingAuthorization)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		svc := NewAuthService(&fakeJWKSClient{}, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		_, _, err := svc.ValidateRequest(req)
		assert.ErrorIs(t, err, ErrInvalidAuthFormat)
	})

	t.Run("bare token without scheme", func(t *testing.T) {
		svc := NewAuthService(&fakeJWKSClient{}, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Authorization", "some-token")
		_, _, err := svc.ValidateRequest(req)
		assert.ErrorIs(t, err, ErrInvalidAuthFormat)
	})

	t.Run("token rejected by jwks client", func(t *testing.T) {
		wantErr := errors.New("token has invalid claims")
		svc := NewAuthService(&fakeJWKSClient{err: wantErr}, zap.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Authorization", "Bearer expired-token")
		_, _, err := svc.ValidateRequest(req)
		assert.ErrorIs(t, err, wantErr)
	})
}

func TestRequireProjectID(t *testing.T) {
	svc := NewAuthService(&fakeJWKSClient{}, zap.NewNop())

	assert.NoError(t, svc.RequireProjectID(&Claims{ProjectID: "p-1"}))
	assert.ErrorIs(t, svc.RequireProjectID(&Claims{}), ErrMissingProjectID)
}

func TestValidateProjectIDMatch(t *testing.T) {
	svc := NewAuthService(&fakeJWKSClient{}, zap.NewNop())

	claims := &Claims{ProjectID: "p-1"}
	assert.NoError(t, svc.ValidateProjectIDMatch(claims, "p-1"))
	assert.ErrorIs(t, svc.ValidateProjectIDMatch(claims, "p-2"), ErrProjectIDMismatch)
	// An empty URL project ID skips the check.
	assert.NoError(t, svc.ValidateProjectIDMatch(claims, ""))
}
