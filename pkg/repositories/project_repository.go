package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chatforge-ai/chatforge-engine/pkg/apperrors"
	"github.com/chatforge-ai/chatforge-engine/pkg/database"
	"github.com/chatforge-ai/chatforge-engine/pkg/models"
)

// ProjectRepository defines the interface for project data access, including
// the nested template document operations.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	// GetTemplates returns the project's template list.
	GetTemplates(ctx context.Context, id uuid.UUID) ([]models.Template, error)
	// ReplaceTemplates writes the full template list in one atomic document
	// update and bumps responses_updated_at. Returns the update count.
	ReplaceTemplates(ctx context.Context, id uuid.UUID, templates []models.Template) (int64, error)
}

// projectRepository implements ProjectRepository using PostgreSQL.
type projectRepository struct{}

// NewProjectRepository creates a new project repository.
func NewProjectRepository() ProjectRepository {
	return &projectRepository{}
}

// Create inserts a new project, or updates it if it already exists so that
// provisioning retries stay idempotent.
func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	scope, ok := database.GetProjectScope(ctx)
	if !ok {
		return fmt.Errorf("no project scope in context")
	}

	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if project.DefaultLanguage == "" {
		project.DefaultLanguage = models.DefaultLang
	}
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	templates, err := marshalTemplates(project.Templates)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bot_projects (id, name, default_language, templates, responses_updated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    default_language = EXCLUDED.default_language,
		    updated_at = EXCLUDED.updated_at`

	_, err = scope.Conn.Exec(ctx, query,
		project.ID,
		project.Name,
		project.DefaultLanguage,
		templates,
		project.ResponsesUpdatedAt,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID.
func (r *projectRepository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	scope, ok := database.GetProjectScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no project scope in context")
	}

	query := `
		SELECT id, name, default_language, templates, responses_updated_at, created_at, updated_at
		FROM bot_projects
		WHERE id = $1`

	var project models.Project
	var templates []byte

	err := scope.Conn.QueryRow(ctx, query, id).Scan(
		&project.ID,
		&project.Name,
		&project.DefaultLanguage,
		&templates,
		&project.ResponsesUpdatedAt,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if err := json.Unmarshal(templates, &project.Templates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal templates: %w", err)
	}

	return &project, nil
}

// ListIDs returns the identifiers of all projects. Used to build the user
// validation context snapshot.
func (r *projectRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	scope, ok := database.GetProjectScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no project scope in context")
	}

	rows, err := scope.Conn.Query(ctx, `SELECT id FROM bot_projects ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list project ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate project ids: %w", err)
	}

	return ids, nil
}

// GetTemplates returns the template list nested in the project document.
func (r *projectRepository) GetTemplates(ctx context.Context, id uuid.UUID) ([]models.Template, error) {
	scope, ok := database.GetProjectScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no project scope in context")
	}

	var payload []byte
	err := scope.Conn.QueryRow(ctx,
		`SELECT templates FROM bot_projects WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get templates: %w", err)
	}

	var templates []models.Template
	if err := json.Unmarshal(payload, &templates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal templates: %w", err)
	}
	return templates, nil
}

// ReplaceTemplates writes the whole template list back in a single UPDATE,
// touching responses_updated_at. Concurrent writers are last-write-wins at
// the document level, matching the store's single-document atomicity.
func (r *projectRepository) ReplaceTemplates(ctx context.Context, id uuid.UUID, templates []models.Template) (int64, error) {
	scope, ok := database.GetProjectScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no project scope in context")
	}

	payload, err := marshalTemplates(templates)
	if err != nil {
		return 0, err
	}

	query := `
		UPDATE bot_projects
		SET templates = $2, responses_updated_at = $3, updated_at = $3
		WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query, id, payload, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to replace templates: %w", err)
	}
	if result.RowsAffected() == 0 {
		return 0, apperrors.ErrNotFound
	}

	return result.RowsAffected(), nil
}

func marshalTemplates(templates []models.Template) ([]byte, error) {
	if templates == nil {
		templates = []models.Template{}
	}
	payload, err := json.Marshal(templates)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal templates: %w", err)
	}
	return payload, nil
}

// Ensure projectRepository implements ProjectRepository at compile time.
var _ ProjectRepository = (*projectRepository)(nil)
