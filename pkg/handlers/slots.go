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

// SlotsHandler handles slot-related HTTP requests.
type SlotsHandler struct {
	slotService services.SlotService
	logger      *zap.Logger
}

// NewSlotsHandler creates a new slots handler.
func NewSlotsHandler(slotService services.SlotService, logger *zap.Logger) *SlotsHandler {
	return &SlotsHandler{
		slotService: slotService,
		logger:      logger,
	}
}

// RegisterRoutes registers the slots handler's routes on the given mux.
// Listing requires authentication only; mutations require write access on
// the stories scope.
func (h *SlotsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/projects/{pid}/slots",
		authMiddleware.RequireAuthWithPathValidation("pid")(
			scope(h.List)))

	mux.HandleFunc("POST /api/projects/{pid}/slots",
		authMiddleware.RequireAuthWithPathValidation("pid")(
			auth.RequirePermission(auth.PermStoriesWrite)(
				scope(h.Insert))))

	mux.HandleFunc("PUT /api/projects/{pid}/slots",
		authMiddleware.RequireAuthWithPathValidation("pid")(
			auth.RequirePermission(auth.PermStoriesWrite)(
				scope(h.Update))))

	mux.HandleFunc("DELETE /api/projects/{pid}/slots",
		authMiddleware.RequireAuthWithPathValidation("pid")(
			auth.RequirePermission(auth.PermStoriesWrite)(
				scope(h.Delete))))
}

// List handles GET /api/projects/{pid}/slots
func (h *SlotsHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}

	slots, err := h.slotService.GetSlots(r.Context(), projectID)
	if err != nil {
		h.logger.Error("Failed to list slots",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "list_failed", "Failed to list slots")
		return
	}
	if slots == nil {
		slots = []*models.Slot{}
	}

	if err := WriteJSON(w, http.StatusOK, slots); err != nil {
		h.logger.Error("Failed to write slots response", zap.Error(err))
	}
}

// Insert handles POST /api/projects/{pid}/slots
func (h *SlotsHandler) Insert(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}

	slot, ok := h.decodeSlot(w, r)
	if !ok {
		return
	}

	id, err := h.slotService.Insert(r.Context(), projectID, slot)
	if err != nil {
		h.slotError(w, projectID, "insert", err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, map[string]string{"id": id.String()}); err != nil {
		h.logger.Error("Failed to write insert response", zap.Error(err))
	}
}

// Update handles PUT /api/projects/{pid}/slots
func (h *SlotsHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}

	slot, ok := h.decodeSlot(w, r)
	if !ok {
		return
	}

	updated, err := h.slotService.Update(r.Context(), projectID, slot)
	if err != nil {
		h.slotError(w, projectID, "update", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated}); err != nil {
		h.logger.Error("Failed to write update response", zap.Error(err))
	}
}

// Delete handles DELETE /api/projects/{pid}/slots
func (h *SlotsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}

	slot, ok := h.decodeSlot(w, r)
	if !ok {
		return
	}

	removed, err := h.slotService.Delete(r.Context(), projectID, slot)
	if err != nil {
		h.slotError(w, projectID, "delete", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]int64{"removed": removed}); err != nil {
		h.logger.Error("Failed to write delete response", zap.Error(err))
	}
}

func (h *SlotsHandler) projectID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	projectID, err := uuid.Parse(r.PathValue("pid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_project_id", "Invalid project ID format")
		return uuid.Nil, false
	}
	return projectID, true
}

func (h *SlotsHandler) decodeSlot(w http.ResponseWriter, r *http.Request) (*models.Slot, bool) {
	var slot models.Slot
	if err := json.NewDecoder(r.Body).Decode(&slot); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return nil, false
	}
	return &slot, true
}

// slotError maps service errors to the wire: schema failures and duplicates
// are client errors, everything else is a generic server failure.
func (h *SlotsHandler) slotError(w http.ResponseWriter, projectID uuid.UUID, op string, err error) {
	if msg, ok := validationMessage(err); ok {
		h.writeError(w, http.StatusBadRequest, "validation_failed", msg)
		return
	}
	if errors.Is(err, apperrors.ErrConflict) {
		h.writeError(w, http.StatusBadRequest, "slot_exists", "Slot already exists")
		return
	}

	h.logger.Error("Slot operation failed",
		zap.String("project_id", projectID.String()),
		zap.String("operation", op),
		zap.Error(err))
	h.writeError(w, http.StatusInternalServerError, op+"_failed", "Slot operation failed")
}

func (h *SlotsHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
