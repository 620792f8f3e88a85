package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatforge-ai/chatforge-engine/pkg/models"
	"github.com/chatforge-ai/chatforge-engine/pkg/repositories"
)

// UserService provides validated CRUD on user account records. The create
// and edit validators check role names and project scopes against a snapshot
// of live system state taken at validation time.
type UserService interface {
	Create(ctx context.Context, user *models.User) (uuid.UUID, error)
	Update(ctx context.Context, user *models.User) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

type userService struct {
	users    repositories.UserRepository
	roles    repositories.RoleRepository
	projects repositories.ProjectRepository
	logger   *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	users repositories.UserRepository,
	roles repositories.RoleRepository,
	projects repositories.ProjectRepository,
	logger *zap.Logger,
) UserService {
	return &userService{
		users:    users,
		roles:    roles,
		projects: projects,
		logger:   logger.Named("user-service"),
	}
}

var _ UserService = (*userService)(nil)

// validationContext snapshots the current role names and project ids so the
// declarative validators never query global state themselves.
func (s *userService) validationContext(ctx context.Context) (*models.UserValidationContext, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.Name
	}

	ids, err := s.projects.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = id.String()
	}

	return &models.UserValidationContext{
		RoleNames:  names,
		ProjectIDs: idStrs,
	}, nil
}

func (s *userService) Create(ctx context.Context, user *models.User) (uuid.UUID, error) {
	vctx, err := s.validationContext(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if err := models.ValidateUserCreate(user, vctx); err != nil {
		return uuid.Nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("Created user", zap.String("user_id", user.ID.String()))
	return user.ID, nil
}

func (s *userService) Update(ctx context.Context, user *models.User) (int64, error) {
	vctx, err := s.validationContext(ctx)
	if err != nil {
		return 0, err
	}
	if err := models.ValidateUserEdit(user, vctx); err != nil {
		return 0, err
	}

	return s.users.Update(ctx, user)
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.users.Delete(ctx, id)
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}
