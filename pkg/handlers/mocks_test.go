package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatforge-ai/chatforge-engine/pkg/auth"
	"github.com/chatforge-ai/chatforge-engine/pkg/models"
)

// stubAuthService issues fixed claims without token validation, so handler
// tests can exercise routing and permission checks in isolation.
type stubAuthService struct {
	claims *auth.Claims
	err    error
}

func (s *stubAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return s.claims, "stub-token", nil
}

func (s *stubAuthService) RequireProjectID(claims *auth.Claims) error {
	if claims.ProjectID == "" {
		return auth.ErrMissingProjectID
	}
	return nil
}

func (s *stubAuthService) ValidateProjectIDMatch(claims *auth.Claims, urlProjectID string) error {
	if urlProjectID != "" && claims.ProjectID != urlProjectID {
		return auth.ErrProjectIDMismatch
	}
	return nil
}

// passthroughScope skips database scope acquisition.
func passthroughScope(next http.HandlerFunc) http.HandlerFunc {
	return next
}

func authMiddlewareFor(claims *auth.Claims) *auth.Middleware {
	return auth.NewMiddleware(&stubAuthService{claims: claims}, zap.NewNop())
}

// mockSlotService returns canned results and records the last slot it saw.
type mockSlotService struct {
	insertID uuid.UUID
	updated  int64
	removed  int64
	slots    []*models.Slot
	err      error
	lastSlot *models.Slot
}

func (m *mockSlotService) Insert(ctx context.Context, projectID uuid.UUID, slot *models.Slot) (uuid.UUID, error) {
	m.lastSlot = slot
	return m.insertID, m.err
}

func (m *mockSlotService) Update(ctx context.Context, projectID uuid.UUID, slot *models.Slot) (int64, error) {
	m.lastSlot = slot
	return m.updated, m.err
}

func (m *mockSlotService) Delete(ctx context.Context, projectID uuid.UUID, slot *models.Slot) (int64, error) {
	m.lastSlot = slot
	return m.removed, m.err
}

func (m *mockSlotService) GetSlots(ctx context.Context, projectID uuid.UUID) ([]*models.Slot, error) {
	return m.slots, m.err
}

// mockTemplateService returns canned results and records call arguments.
type mockTemplateService struct {
	template  *models.Template
	templates []models.Template
	updated   int64
	removed   int64
	exists    bool
	err       error

	lastKey     string
	lastLang    string
	lastKeys    []string
	lastPayload json.RawMessage
	lastItem    *models.Template
}

func (m *mockTemplateService) UpdateTemplate(ctx context.Context, projectID uuid.UUID, key string, item *models.Template) (int64, error) {
	m.lastKey, m.lastItem = key, item
	return m.updated, m.err
}

func (m *mockTemplateService) DeleteTemplate(ctx context.Context, projectID uuid.UUID, key, lang string) (int64, error) {
	m.lastKey, m.lastLang = key, lang
	return m.removed, m.err
}

func (m *mockTemplateService) FindTemplate(ctx context.Context, projectID uuid.UUID, key, lang string) (*models.Template, error) {
	m.lastKey, m.lastLang = key, lang
	return m.template, m.err
}

func (m *mockTemplateService) InsertTemplate(ctx context.Context, projectID uuid.UUID, item *models.Template) error {
	m.lastItem = item
	return m.err
}

func (m *mockTemplateService) Download(ctx context.Context, projectID uuid.UUID) ([]models.Template, error) {
	return m.templates, m.err
}

func (m *mockTemplateService) Import(ctx context.Context, projectID uuid.UUID, payload json.RawMessage) error {
	m.lastPayload = payload
	return m.err
}

func (m *mockTemplateService) RemoveByKey(ctx context.Context, projectID uuid.UUID, keys []string) (int64, error) {
	m.lastKeys = keys
	return m.removed, m.err
}

func (m *mockTemplateService) CountWithIntent(ctx context.Context, projectID uuid.UUID, intent string) (bool, error) {
	m.lastKey = intent
	return m.exists, m.err
}

// mockUserService returns canned results and records the last user it saw.
type mockUserService struct {
	createID uuid.UUID
	updated  int64
	removed  int64
	user     *models.User
	users    []*models.User
	err      error
	lastUser *models.User
}

func (m *mockUserService) Create(ctx context.Context, user *models.User) (uuid.UUID, error) {
	m.lastUser = user
	return m.createID, m.err
}

func (m *mockUserService) Update(ctx context.Context, user *models.User) (int64, error) {
	m.lastUser = user
	return m.updated, m.err
}

func (m *mockUserService) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return m.removed, m.err
}

func (m *mockUserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.user, m.err
}

func (m *mockUserService) List(ctx context.Context) ([]*models.User, error) {
	return m.users, m.err
}
