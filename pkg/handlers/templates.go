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

// ImportRequest is the request body for importing templates. Templates is
// either a JSON list or a serialized string payload.
type ImportRequest struct {
	Templates json.RawMessage `json:"templates"`
}

// RemoveByKeyRequest is the request body for bulk template removal. Key
// accepts either a single string or a list of strings.
type RemoveByKeyRequest struct {
	Key json.RawMessage `json:"key"`
}

// TemplatesHandler handles bot response template HTTP requests.
type TemplatesHandler struct {
	templateService services.TemplateService
	logger          *zap.Logger
}

// NewTemplatesHandler creates a new templates handler.
func NewTemplatesHandler(templateService services.TemplateService, logger *zap.Logger) *TemplatesHandler {
	return &TemplatesHandler{
		templateService: templateService,
		logger:          logger,
	}
}

// RegisterRoutes registers the templates handler's routes on the given mux.
// Reads require responses:r, mutations responses:w; the intent existence
// check additionally needs read access on NLU data and conversations.
func (h *TemplatesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	requireWrite := auth.RequirePermission(auth.PermResponsesWrite)
	requireRead := auth.RequirePermission(auth.PermResponsesRead)

	mux.HandleFunc("POST /api/projects/{pid}/templates",
		authMiddleware.RequireAuthWithPathValidation("pid")(
			requireWrite(scope(h.Insert))))

	mux.HandleFunc("DELETE /api/projects/{pid}/templates",
		authMiddleware.RequireAuthWithPathValidation("pid")(
			requireWrite(scope(h.RemoveByKey))))

	mux.HandleFunc("GET /api/projects/{pid}/templates/export",
		authMiddleware.RequireAuthWithPathValidation("pid")(
			requireRead(scope(h.Download))))

	mux.HandleFunc("POST /api/projects/{pid}/templates/import",
		authMiddleware.RequireAuthWithPathValidation("pid")(
			requireWrite(scope(h.Import))))

	mux.HandleFunc("GET /api/projects/{pid}/templates/with-intent/{intent}",
		authMiddleware.RequireAuthWithPathValidation("pid")(
			auth.RequirePermission(auth.PermNLUDataRead, auth.PermResponsesRead, auth.PermConversationsRead)(
				scope(h.WithIntent))))

	mux.HandleFunc("GET /api/projects/{pid}/templates/{key}",
		authMiddleware.RequireAuthWithPathValidation("pid")(
			requireRead(scope(h.Find))))

	mux.HandleFunc("PUT /api/projects/{pid}/templates/{key}",
		authMiddleware.RequireAuthWithPathValidation("pid")(
			requireWrite(scope(h.Update))))

	mux.HandleFunc("DELETE /api/projects/{pid}/templates/{key}",
		authMiddleware.RequireAuthWithPathValidation("pid")(
			requireWrite(scope(h.Delete))))
}

// Update handles PUT /api/projects/{pid}/templates/{key}
func (h *TemplatesHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	key := r.PathValue("key")

	var item models.Template
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	updated, err := h.templateService.UpdateTemplate(r.Context(), projectID, key, &item)
	if err != nil {
		h.templateError(w, projectID, "update", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated}); err != nil {
		h.logger.Error("Failed to write update response", zap.Error(err))
	}
}

// Delete handles DELETE /api/projects/{pid}/templates/{key}
func (h *TemplatesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	key := r.PathValue("key")
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = models.DefaultLang
	}

	updated, err := h.templateService.DeleteTemplate(r.Context(), projectID, key, lang)
	if err != nil {
		h.templateError(w, projectID, "delete", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated}); err != nil {
		h.logger.Error("Failed to write delete response", zap.Error(err))
	}
}

// Find handles GET /api/projects/{pid}/templates/{key}
// Missing templates and missing languages are created with default content.
func (h *TemplatesHandler) Find(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	key := r.PathValue("key")
	lang := r.URL.Query().Get("lang")

	template, err := h.templateService.FindTemplate(r.Context(), projectID, key, lang)
	if err != nil {
		h.templateError(w, projectID, "find", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, template); err != nil {
		h.logger.Error("Failed to write find response", zap.Error(err))
	}
}

// Insert handles POST /api/projects/{pid}/templates
func (h *TemplatesHandler) Insert(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}

	var item models.Template
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if err := h.templateService.InsertTemplate(r.Context(), projectID, &item); err != nil {
		h.templateError(w, projectID, "insert", err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Download handles GET /api/projects/{pid}/templates/export
func (h *TemplatesHandler) Download(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}

	templates, err := h.templateService.Download(r.Context(), projectID)
	if err != nil {
		h.templateError(w, projectID, "download", err)
		return
	}
	if templates == nil {
		templates = []models.Template{}
	}

	if err := WriteJSON(w, http.StatusOK, templates); err != nil {
		h.logger.Error("Failed to write download response", zap.Error(err))
	}
}

// Import handles POST /api/projects/{pid}/templates/import
func (h *TemplatesHandler) Import(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if len(req.Templates) == 0 {
		h.writeError(w, http.StatusBadRequest, "missing_templates", "Templates payload is required")
		return
	}

	if err := h.templateService.Import(r.Context(), projectID, req.Templates); err != nil {
		h.templateError(w, projectID, "import", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveByKey handles DELETE /api/projects/{pid}/templates
func (h *TemplatesHandler) RemoveByKey(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}

	var req RemoveByKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	keys, ok := decodeKeyArg(req.Key)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid_key", "Key must be a string or a list of strings")
		return
	}

	updated, err := h.templateService.RemoveByKey(r.Context(), projectID, keys)
	if err != nil {
		h.templateError(w, projectID, "remove", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated}); err != nil {
		h.logger.Error("Failed to write remove response", zap.Error(err))
	}
}

// WithIntent handles GET /api/projects/{pid}/templates/with-intent/{intent}
func (h *TemplatesHandler) WithIntent(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	intent := r.PathValue("intent")

	exists, err := h.templateService.CountWithIntent(r.Context(), projectID, intent)
	if err != nil {
		h.templateError(w, projectID, "with_intent", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]bool{"exists": exists}); err != nil {
		h.logger.Error("Failed to write with-intent response", zap.Error(err))
	}
}

func (h *TemplatesHandler) projectID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	projectID, err := uuid.Parse(r.PathValue("pid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_project_id", "Invalid project ID format")
		return uuid.Nil, false
	}
	return projectID, true
}

// decodeKeyArg accepts a single key or a list of keys.
func decodeKeyArg(raw json.RawMessage) ([]string, bool) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, true
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list, true
	}
	return nil, false
}

func (h *TemplatesHandler) templateError(w http.ResponseWriter, projectID uuid.UUID, op string, err error) {
	if msg, ok := validationMessage(err); ok {
		h.writeError(w, http.StatusBadRequest, "validation_failed", msg)
		return
	}
	switch {
	case errors.Is(err, apperrors.ErrTemplateCollision):
		h.writeError(w, http.StatusBadRequest, "template_collision", "Template key already in use")
	case errors.Is(err, apperrors.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "Project or template not found")
	case errors.Is(err, apperrors.ErrInvalidArgument):
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		h.logger.Error("Template operation failed",
			zap.String("project_id", projectID.String()),
			zap.String("operation", op),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, op+"_failed", "Template operation failed")
	}
}

func (h *TemplatesHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
