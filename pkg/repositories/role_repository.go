package repositories

import (
	"context"
	"fmt"

	"github.com/chatforge-ai/chatforge-engine/pkg/database"
	"github.com/chatforge-ai/chatforge-engine/pkg/models"
)

// RoleRepository defines the interface for role definition access.
type RoleRepository interface {
	List(ctx context.Context) ([]*models.Role, error)
}

type roleRepository struct{}

// NewRoleRepository creates a new role repository.
func NewRoleRepository() RoleRepository {
	return &roleRepository{}
}

// List returns all currently defined roles, including permission-shaped
// names; callers filter assignability.
func (r *roleRepository) List(ctx context.Context) ([]*models.Role, error) {
	scope, ok := database.GetProjectScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no project scope in context")
	}

	rows, err := scope.Conn.Query(ctx, `SELECT name, description FROM bot_roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.Name, &role.Description); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, &role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}

	return roles, nil
}

var _ RoleRepository = (*roleRepository)(nil)
