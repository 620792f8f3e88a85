package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chatforge-ai/chatforge-engine/pkg/apperrors"
	"github.com/chatforge-ai/chatforge-engine/pkg/auth"
	"github.com/chatforge-ai/chatforge-engine/pkg/models"
)

func newUsersServer(svc *mockUserService, claims *auth.Claims) *http.ServeMux {
	mux := http.NewServeMux()
	h := NewUsersHandler(svc, zap.NewNop())
	h.RegisterRoutes(mux, authMiddlewareFor(claims), passthroughScope)
	return mux
}

func adminClaims() *auth.Claims {
	return &auth.Claims{ProjectID: uuid.NewString(), Roles: []string{"admin"}}
}

const validUserBody = `{
	"profile": {"first_name": "Ada", "last_name": "Lovelace"},
	"emails": [{"address": "ada@example.com"}],
	"roles": [{"roles": ["editor"], "project": "GLOBAL"}]
}`

func TestUsersCreate(t *testing.T) {
	userID := uuid.New()
	svc := &mockUserService{createID: userID}
	mux := newUsersServer(svc, adminClaims())

	rec := doRequest(t, mux, http.MethodPost, "/api/users", validUserBody)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, userID.String(), body["id"])
	require.NotNil(t, svc.lastUser)
	assert.Equal(t, "Ada", svc.lastUser.Profile.FirstName)
}

func TestUsersCreate_DuplicateEmail(t *testing.T) {
	svc := &mockUserService{err: apperrors.ErrConflict}
	mux := newUsersServer(svc, adminClaims())

	rec := doRequest(t, mux, http.MethodPost, "/api/users", validUserBody)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "email_exists", body["error"])
}

func TestUsersUpdate(t *testing.T) {
	userID := uuid.New()
	svc := &mockUserService{updated: 1}
	mux := newUsersServer(svc, adminClaims())

	rec := doRequest(t, mux, http.MethodPut, "/api/users/"+userID.String(), validUserBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastUser)
	// The path parameter wins over any id in the body.
	assert.Equal(t, userID, svc.lastUser.ID)
}

func TestUsersUpdate_UnknownUser(t *testing.T) {
	svc := &mockUserService{updated: 0}
	mux := newUsersServer(svc, adminClaims())

	rec := doRequest(t, mux, http.MethodPut, "/api/users/"+uuid.NewString(), validUserBody)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsersDelete(t *testing.T) {
	t.Run("existing user", func(t *testing.T) {
		svc := &mockUserService{removed: 1}
		mux := newUsersServer(svc, adminClaims())

		rec := doRequest(t, mux, http.MethodDelete, "/api/users/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := &mockUserService{removed: 0}
		mux := newUsersServer(svc, adminClaims())

		rec := doRequest(t, mux, http.MethodDelete, "/api/users/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed user id", func(t *testing.T) {
		mux := newUsersServer(&mockUserService{}, adminClaims())

		rec := doRequest(t, mux, http.MethodDelete, "/api/users/not-a-uuid", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUsersGet(t *testing.T) {
	t.Run("existing user", func(t *testing.T) {
		user := &models.User{
			ID:      uuid.New(),
			Profile: models.UserProfile{FirstName: "Ada", LastName: "Lovelace"},
		}
		svc := &mockUserService{user: user}
		mux := newUsersServer(svc, adminClaims())

		rec := doRequest(t, mux, http.MethodGet, "/api/users/"+user.ID.String(), "")

		assert.Equal(t, http.StatusOK, rec.Code)
		var got models.User
		decodeBody(t, rec, &got)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := &mockUserService{err: apperrors.ErrNotFound}
		mux := newUsersServer(svc, adminClaims())

		rec := doRequest(t, mux, http.MethodGet, "/api/users/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUsersList_EmptyIsJSONArray(t *testing.T) {
	mux := newUsersServer(&mockUserService{}, adminClaims())

	rec := doRequest(t, mux, http.MethodGet, "/api/users", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestUsersPermissions(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		roles  []string
		want   int
	}{
		{name: "admin can list", method: http.MethodGet, path: "/api/users", roles: []string{"admin"}, want: http.StatusOK},
		{name: "editor cannot list", method: http.MethodGet, path: "/api/users", roles: []string{"editor"}, want: http.StatusForbidden},
		{name: "viewer cannot create", method: http.MethodPost, path: "/api/users", body: validUserBody, roles: []string{"viewer"}, want: http.StatusForbidden},
		{name: "users write role can create", method: http.MethodPost, path: "/api/users", body: validUserBody, roles: []string{"users:w"}, want: http.StatusCreated},
		{name: "users read role cannot create", method: http.MethodPost, path: "/api/users", body: validUserBody, roles: []string{"users:r"}, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := &auth.Claims{ProjectID: uuid.NewString(), Roles: tt.roles}
			mux := newUsersServer(&mockUserService{}, claims)

			rec := doRequest(t, mux, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestUsers_MissingTokenIsUnauthorized(t *testing.T) {
	mux := http.NewServeMux()
	h := NewUsersHandler(&mockUserService{}, zap.NewNop())
	m := auth.NewMiddleware(&stubAuthService{err: auth.ErrMissingAuthorization}, zap.NewNop())
	h.RegisterRoutes(mux, m, passthroughScope)

	rec := doRequest(t, mux, http.MethodGet, "/api/users", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
