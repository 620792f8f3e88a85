package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatforge-ai/chatforge-engine/pkg/models"
	"github.com/chatforge-ai/chatforge-engine/pkg/repositories"
)

// SlotService provides validated persistence operations for NLU slot
// definitions. Every mutating operation validates the slot against its
// type-specific schema before any store access.
type SlotService interface {
	// Insert validates and persists a new slot, returning its identifier.
	Insert(ctx context.Context, projectID uuid.UUID, slot *models.Slot) (uuid.UUID, error)

	// Update validates the slot and replaces the full field set of the
	// record matching its id. Returns the update count.
	Update(ctx context.Context, projectID uuid.UUID, slot *models.Slot) (int64, error)

	// Delete validates the slot, then removes the record matching by
	// identity. Returns the remove count.
	Delete(ctx context.Context, projectID uuid.UUID, slot *models.Slot) (int64, error)

	// GetSlots returns all slots of the project as a realized list.
	GetSlots(ctx context.Context, projectID uuid.UUID) ([]*models.Slot, error)
}

type slotService struct {
	repo   repositories.SlotRepository
	logger *zap.Logger
}

// NewSlotService creates a new SlotService.
func NewSlotService(repo repositories.SlotRepository, logger *zap.Logger) SlotService {
	return &slotService{
		repo:   repo,
		logger: logger.Named("slot-service"),
	}
}

var _ SlotService = (*slotService)(nil)

func (s *slotService) Insert(ctx context.Context, projectID uuid.UUID, slot *models.Slot) (uuid.UUID, error) {
	if err := models.ValidateSlot(slot); err != nil {
		return uuid.Nil, err
	}
	slot.ProjectID = projectID

	id, err := s.repo.Insert(ctx, slot)
	if err != nil {
		return uuid.Nil, err
	}

	s.logger.Debug("Inserted slot",
		zap.String("project_id", projectID.String()),
		zap.String("slot", slot.Name))
	return id, nil
}

func (s *slotService) Update(ctx context.Context, projectID uuid.UUID, slot *models.Slot) (int64, error) {
	if err := models.ValidateSlot(slot); err != nil {
		return 0, err
	}
	slot.ProjectID = projectID

	return s.repo.Update(ctx, slot)
}

func (s *slotService) Delete(ctx context.Context, projectID uuid.UUID, slot *models.Slot) (int64, error) {
	if err := models.ValidateSlot(slot); err != nil {
		return 0, err
	}

	return s.repo.Delete(ctx, projectID, slot.ID)
}

func (s *slotService) GetSlots(ctx context.Context, projectID uuid.UUID) ([]*models.Slot, error) {
	return s.repo.ListByProject(ctx, projectID)
}
