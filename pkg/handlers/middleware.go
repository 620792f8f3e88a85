package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatforge-ai/chatforge-engine/pkg/database"
)

// ScopeMiddleware wraps a handler with a database scope in context.
type ScopeMiddleware func(http.HandlerFunc) http.HandlerFunc

// NewProjectScopeMiddleware returns middleware that acquires a
// project-scoped database connection for the {pid} path parameter and stores
// it in the request context. The scope is released when the handler returns.
func NewProjectScopeMiddleware(provider *database.ProjectScopeProvider, logger *zap.Logger) ScopeMiddleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			projectID, err := uuid.Parse(r.PathValue("pid"))
			if err != nil {
				if err := ErrorResponse(w, http.StatusBadRequest, "invalid_project_id", "Invalid project ID format"); err != nil {
					logger.Error("Failed to write error response", zap.Error(err))
				}
				return
			}

			ctx, cleanup, err := provider.WithProjectScope(r.Context(), projectID)
			if err != nil {
				logger.Error("Failed to acquire project scope",
					zap.String("project_id", projectID.String()),
					zap.Error(err))
				if err := ErrorResponse(w, http.StatusInternalServerError, "database_unavailable", "Failed to acquire database connection"); err != nil {
					logger.Error("Failed to write error response", zap.Error(err))
				}
				return
			}
			defer cleanup()

			next(w, r.WithContext(ctx))
		}
	}
}

// NewGlobalScopeMiddleware returns middleware that acquires an unscoped
// database connection, for endpoints that span projects (user admin).
func NewGlobalScopeMiddleware(provider *database.ProjectScopeProvider, logger *zap.Logger) ScopeMiddleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx, cleanup, err := provider.WithGlobalScope(r.Context())
			if err != nil {
				logger.Error("Failed to acquire database connection", zap.Error(err))
				if err := ErrorResponse(w, http.StatusInternalServerError, "database_unavailable", "Failed to acquire database connection"); err != nil {
					logger.Error("Failed to write error response", zap.Error(err))
				}
				return
			}
			defer cleanup()

			next(w, r.WithContext(ctx))
		}
	}
}
