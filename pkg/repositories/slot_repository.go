package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chatforge-ai/chatforge-engine/pkg/apperrors"
	"github.com/chatforge-ai/chatforge-engine/pkg/database"
	"github.com/chatforge-ai/chatforge-engine/pkg/models"
)

// SlotRepository defines the interface for slot data access.
type SlotRepository interface {
	Insert(ctx context.Context, slot *models.Slot) (uuid.UUID, error)
	Update(ctx context.Context, slot *models.Slot) (int64, error)
	Delete(ctx context.Context, projectID, slotID uuid.UUID) (int64, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Slot, error)
}

// slotRepository implements SlotRepository using PostgreSQL.
type slotRepository struct{}

// NewSlotRepository creates a new slot repository.
func NewSlotRepository() SlotRepository {
	return &slotRepository{}
}

// slotSpec is the JSONB payload carrying the type-specific slot fields.
type slotSpec struct {
	InitialValue string   `json:"initialValue,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	MinValue     *float64 `json:"minValue,omitempty"`
	MaxValue     *float64 `json:"maxValue,omitempty"`
}

func specFromSlot(slot *models.Slot) ([]byte, error) {
	spec := slotSpec{
		InitialValue: slot.InitialValue,
		Categories:   slot.Categories,
		MinValue:     slot.MinValue,
		MaxValue:     slot.MaxValue,
	}
	payload, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal slot spec: %w", err)
	}
	return payload, nil
}

func applySpec(slot *models.Slot, payload []byte) error {
	var spec slotSpec
	if err := json.Unmarshal(payload, &spec); err != nil {
		return fmt.Errorf("failed to unmarshal slot spec: %w", err)
	}
	slot.InitialValue = spec.InitialValue
	slot.Categories = spec.Categories
	slot.MinValue = spec.MinValue
	slot.MaxValue = spec.MaxValue
	return nil
}

// Insert persists a new slot and returns its generated identifier.
// A unique-constraint violation on (project_id, name) maps to ErrConflict.
func (r *slotRepository) Insert(ctx context.Context, slot *models.Slot) (uuid.UUID, error) {
	scope, ok := database.GetProjectScope(ctx)
	if !ok {
		return uuid.Nil, fmt.Errorf("no project scope in context")
	}

	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	now := time.Now()
	slot.CreatedAt = now
	slot.UpdatedAt = now

	payload, err := specFromSlot(slot)
	if err != nil {
		return uuid.Nil, err
	}

	query := `
		INSERT INTO bot_slots (id, project_id, name, slot_type, spec, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = scope.Conn.Exec(ctx, query,
		slot.ID,
		slot.ProjectID,
		slot.Name,
		slot.Type,
		payload,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, apperrors.ErrConflict
		}
		return uuid.Nil, fmt.Errorf("failed to insert slot: %w", err)
	}

	return slot.ID, nil
}

// Update replaces the full field set of the slot matching its id.
func (r *slotRepository) Update(ctx context.Context, slot *models.Slot) (int64, error) {
	scope, ok := database.GetProjectScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no project scope in context")
	}

	slot.UpdatedAt = time.Now()

	payload, err := specFromSlot(slot)
	if err != nil {
		return 0, err
	}

	query := `
		UPDATE bot_slots
		SET name = $3, slot_type = $4, spec = $5, updated_at = $6
		WHERE id = $1 AND project_id = $2`

	result, err := scope.Conn.Exec(ctx, query,
		slot.ID,
		slot.ProjectID,
		slot.Name,
		slot.Type,
		payload,
		slot.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, apperrors.ErrConflict
		}
		return 0, fmt.Errorf("failed to update slot: %w", err)
	}

	return result.RowsAffected(), nil
}

// Delete removes the slot matching by identity.
func (r *slotRepository) Delete(ctx context.Context, projectID, slotID uuid.UUID) (int64, error) {
	scope, ok := database.GetProjectScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no project scope in context")
	}

	query := `DELETE FROM bot_slots WHERE id = $1 AND project_id = $2`

	result, err := scope.Conn.Exec(ctx, query, slotID, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete slot: %w", err)
	}

	return result.RowsAffected(), nil
}

// ListByProject returns all slots of a project as a realized list.
func (r *slotRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Slot, error) {
	scope, ok := database.GetProjectScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no project scope in context")
	}

	query := `
		SELECT id, project_id, name, slot_type, spec, created_at, updated_at
		FROM bot_slots
		WHERE project_id = $1
		ORDER BY name`

	rows, err := scope.Conn.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close()

	var slots []*models.Slot
	for rows.Next() {
		var slot models.Slot
		var payload []byte
		if err := rows.Scan(
			&slot.ID,
			&slot.ProjectID,
			&slot.Name,
			&slot.Type,
			&payload,
			&slot.CreatedAt,
			&slot.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		if err := applySpec(&slot, payload); err != nil {
			return nil, err
		}
		slots = append(slots, &slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate slots: %w", err)
	}

	return slots, nil
}

// Ensure slotRepository implements SlotRepository at compile time.
var _ SlotRepository = (*slotRepository)(nil)
