package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chatforge-ai/chatforge-engine/pkg/apperrors"
	"github.com/chatforge-ai/chatforge-engine/pkg/database"
	"github.com/chatforge-ai/chatforge-engine/pkg/models"
)

// UserRepository defines the interface for user account data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// userRepository implements UserRepository using PostgreSQL.
type userRepository struct{}

// NewUserRepository creates a new user repository.
func NewUserRepository() UserRepository {
	return &userRepository{}
}

const userColumns = `id, profile, emails, roles, created_at, updated_at`

// Create inserts a new user record. A duplicate primary email maps to
// ErrConflict via the unique index on the first address.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	scope, ok := database.GetProjectScope(ctx)
	if !ok {
		return fmt.Errorf("no project scope in context")
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	profile, emails, roles, err := marshalUserDocs(user)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bot_users (id, profile, emails, roles, primary_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = scope.Conn.Exec(ctx, query,
		user.ID,
		profile,
		emails,
		roles,
		primaryEmail(user),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Update replaces the profile, emails and roles of an existing user.
func (r *userRepository) Update(ctx context.Context, user *models.User) (int64, error) {
	scope, ok := database.GetProjectScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no project scope in context")
	}

	user.UpdatedAt = time.Now()

	profile, emails, roles, err := marshalUserDocs(user)
	if err != nil {
		return 0, err
	}

	query := `
		UPDATE bot_users
		SET profile = $2, emails = $3, roles = $4, primary_email = $5, updated_at = $6
		WHERE id = $1`

	result, err := scope.Conn.Exec(ctx, query,
		user.ID,
		profile,
		emails,
		roles,
		primaryEmail(user),
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, apperrors.ErrConflict
		}
		return 0, fmt.Errorf("failed to update user: %w", err)
	}

	return result.RowsAffected(), nil
}

// Delete removes a user record by id.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	scope, ok := database.GetProjectScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no project scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM bot_users WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}

	return result.RowsAffected(), nil
}

// GetByID retrieves a user by id.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	scope, ok := database.GetProjectScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no project scope in context")
	}

	query := `SELECT ` + userColumns + ` FROM bot_users WHERE id = $1`

	user, err := scanUser(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// List returns all user records.
func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	scope, ok := database.GetProjectScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no project scope in context")
	}

	query := `SELECT ` + userColumns + ` FROM bot_users ORDER BY created_at`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

func marshalUserDocs(user *models.User) (profile, emails, roles []byte, err error) {
	if profile, err = json.Marshal(user.Profile); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal profile: %w", err)
	}
	if emails, err = json.Marshal(user.Emails); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal emails: %w", err)
	}
	if roles, err = json.Marshal(user.Roles); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal roles: %w", err)
	}
	return profile, emails, roles, nil
}

func primaryEmail(user *models.User) string {
	if len(user.Emails) == 0 {
		return ""
	}
	return user.Emails[0].Address
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var profile, emails, roles []byte

	if err := row.Scan(
		&user.ID,
		&profile,
		&emails,
		&roles,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(profile, &user.Profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	if err := json.Unmarshal(emails, &user.Emails); err != nil {
		return nil, fmt.Errorf("failed to unmarshal emails: %w", err)
	}
	if err := json.Unmarshal(roles, &user.Roles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal roles: %w", err)
	}

	return &user, nil
}

// Ensure userRepository implements UserRepository at compile time.
var _ UserRepository = (*userRepository)(nil)
