package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/chatforge-ai/chatforge-engine/pkg/apperrors"
	"github.com/chatforge-ai/chatforge-engine/pkg/models"
)

// fakeSlotRepository records calls and returns configured results.
type fakeSlotRepository struct {
	insertCalls int
	updateCalls int
	deleteCalls int
	slots       []*models.Slot
	err         error
}

func (f *fakeSlotRepository) Insert(ctx context.Context, slot *models.Slot) (uuid.UUID, error) {
	f.insertCalls++
	if f.err != nil {
		return uuid.Nil, f.err
	}
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	return slot.ID, nil
}

func (f *fakeSlotRepository) Update(ctx context.Context, slot *models.Slot) (int64, error) {
	f.updateCalls++
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func (f *fakeSlotRepository) Delete(ctx context.Context, projectID, slotID uuid.UUID) (int64, error) {
	f.deleteCalls++
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func (f *fakeSlotRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Slot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.slots, nil
}

// fakeProjectRepository keeps template lists in memory per project.
type fakeProjectRepository struct {
	templates    map[uuid.UUID][]models.Template
	replaceCalls int
	err          error
}

func newFakeProjectRepository() *fakeProjectRepository {
	return &fakeProjectRepository{templates: make(map[uuid.UUID][]models.Template)}
}

func (f *fakeProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if f.err != nil {
		return f.err
	}
	f.templates[project.ID] = project.Templates
	return nil
}

func (f *fakeProjectRepository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	templates, ok := f.templates[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &models.Project{ID: id, Templates: templates}, nil
}

func (f *fakeProjectRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]uuid.UUID, 0, len(f.templates))
	for id := range f.templates {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeProjectRepository) GetTemplates(ctx context.Context, id uuid.UUID) ([]models.Template, error) {
	if f.err != nil {
		return nil, f.err
	}
	templates, ok := f.templates[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	// Deep-ish copy so service-side mutations only land via ReplaceTemplates.
	out := make([]models.Template, len(templates))
	copy(out, templates)
	return out, nil
}

func (f *fakeProjectRepository) ReplaceTemplates(ctx context.Context, id uuid.UUID, templates []models.Template) (int64, error) {
	f.replaceCalls++
	if f.err != nil {
		return 0, f.err
	}
	if _, ok := f.templates[id]; !ok {
		return 0, apperrors.ErrNotFound
	}
	f.templates[id] = templates
	return 1, nil
}

// fakeUserRepository stores user records in memory.
type fakeUserRepository struct {
	users       map[uuid.UUID]*models.User
	createCalls int
	err         error
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserRepository) Create(ctx context.Context, user *models.User) error {
	f.createCalls++
	if f.err != nil {
		return f.err
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepository) Update(ctx context.Context, user *models.User) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if _, ok := f.users[user.ID]; !ok {
		return 0, nil
	}
	f.users[user.ID] = user
	return 1, nil
}

func (f *fakeUserRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if _, ok := f.users[id]; !ok {
		return 0, nil
	}
	delete(f.users, id)
	return 1, nil
}

func (f *fakeUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepository) List(ctx context.Context) ([]*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

// fakeRoleRepository returns a fixed role list.
type fakeRoleRepository struct {
	roles []*models.Role
	err   error
}

func (f *fakeRoleRepository) List(ctx context.Context) ([]*models.Role, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.roles, nil
}
