package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatforge-ai/chatforge-engine/pkg/apperrors"
	"github.com/chatforge-ai/chatforge-engine/pkg/auth"
	"github.com/chatforge-ai/chatforge-engine/pkg/models"
	"github.com/chatforge-ai/chatforge-engine/pkg/services"
)

// UsersHandler handles user account HTTP requests. User administration spans
// projects, so routes run under the global database scope.
type UsersHandler struct {
	userService services.UserService
	logger      *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(userService services.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/users",
		authMiddleware.RequireAuth(
			auth.RequirePermission(auth.PermUsersRead)(
				scope(h.List))))

	mux.HandleFunc("POST /api/users",
		authMiddleware.RequireAuth(
			auth.RequirePermission(auth.PermUsersWrite)(
				scope(h.Create))))

	mux.HandleFunc("GET /api/users/{uid}",
		authMiddleware.RequireAuth(
			auth.RequirePermission(auth.PermUsersRead)(
				scope(h.Get))))

	mux.HandleFunc("PUT /api/users/{uid}",
		authMiddleware.RequireAuth(
			auth.RequirePermission(auth.PermUsersWrite)(
				scope(h.Update))))

	mux.HandleFunc("DELETE /api/users/{uid}",
		authMiddleware.RequireAuth(
			auth.RequirePermission(auth.PermUsersWrite)(
				scope(h.Delete))))
}

// Create handles POST /api/users
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	id, err := h.userService.Create(r.Context(), &user)
	if err != nil {
		h.userError(w, "create", err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, map[string]string{"id": id.String()}); err != nil {
		h.logger.Error("Failed to write create response", zap.Error(err))
	}
}

// Update handles PUT /api/users/{uid}
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	user.ID = userID

	updated, err := h.userService.Update(r.Context(), &user)
	if err != nil {
		h.userError(w, "update", err)
		return
	}
	if updated == 0 {
		h.writeError(w, http.StatusNotFound, "not_found", "User not found")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Delete handles DELETE /api/users/{uid}
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	removed, err := h.userService.Delete(r.Context(), userID)
	if err != nil {
		h.userError(w, "delete", err)
		return
	}
	if removed == 0 {
		h.writeError(w, http.StatusNotFound, "not_found", "User not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /api/users/{uid}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		h.userError(w, "get", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to write user response", zap.Error(err))
	}
}

// List handles GET /api/users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		h.userError(w, "list", err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	if err := WriteJSON(w, http.StatusOK, users); err != nil {
		h.logger.Error("Failed to write users response", zap.Error(err))
	}
}

func (h *UsersHandler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(r.PathValue("uid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_user_id", "Invalid user ID format")
		return uuid.Nil, false
	}
	return userID, true
}

func (h *UsersHandler) userError(w http.ResponseWriter, op string, err error) {
	if msg, ok := validationMessage(err); ok {
		h.writeError(w, http.StatusBadRequest, "validation_failed", msg)
		return
	}
	if errors.Is(err, apperrors.ErrConflict) {
		h.writeError(w, http.StatusBadRequest, "email_exists", "Email address already in use")
		return
	}

	h.logger.Error("User operation failed",
		zap.String("operation", op),
		zap.Error(err))
	h.writeError(w, http.StatusInternalServerError, op+"_failed", "User operation failed")
}

func (h *UsersHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
