package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Slot is a typed variable definition used by the dialogue engine to capture
// values extracted from user utterances. The Type field selects which schema
// the remaining fields are validated against.
type Slot struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`

	// Type-specific fields. Only the fields relevant to Type are honored.
	InitialValue string   `json:"initialValue,omitempty"` // text, bool, list
	Categories   []string `json:"categories,omitempty"`   // categorical
	MinValue     *float64 `json:"minValue,omitempty"`     // float
	MaxValue     *float64 `json:"maxValue,omitempty"`     // float

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Slot type constants.
const (
	SlotTypeText         = "text"
	SlotTypeBool         = "bool"
	SlotTypeCategorical  = "categorical"
	SlotTypeFloat        = "float"
	SlotTypeList         = "list"
	SlotTypeUnfeaturized = "unfeaturized"
)

// slotSchemas maps a slot type tag to the validation rules for that type.
// A slot whose Type is not a key here is rejected before any store access.
var slotSchemas = map[string]func(*Slot) error{
	SlotTypeText:         validateValueSlot,
	SlotTypeBool:         validateValueSlot,
	SlotTypeList:         validateValueSlot,
	SlotTypeUnfeaturized: validateValueSlot,
	SlotTypeCategorical:  validateCategoricalSlot,
	SlotTypeFloat:        validateFloatSlot,
}

// ValidateSlot checks the common shape of a slot and dispatches to the schema
// registered for its type. A nil slot or an unknown/missing type is an error.
func ValidateSlot(slot *Slot) error {
	if slot == nil {
		return validation.NewError("validation_nil_slot", "slot is required")
	}

	if err := validation.ValidateStruct(slot,
		validation.Field(&slot.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&slot.Type, validation.Required),
	); err != nil {
		return err
	}

	schema, ok := slotSchemas[slot.Type]
	if !ok {
		return validation.NewError("validation_unknown_slot_type",
			fmt.Sprintf("unknown slot type %q", slot.Type))
	}
	return schema(slot)
}

func validateValueSlot(slot *Slot) error {
	return validation.ValidateStruct(slot,
		validation.Field(&slot.Categories, validation.Empty),
		validation.Field(&slot.MinValue, validation.Nil),
		validation.Field(&slot.MaxValue, validation.Nil),
	)
}

func validateCategoricalSlot(slot *Slot) error {
	return validation.ValidateStruct(slot,
		validation.Field(&slot.Categories, validation.Required),
	)
}

func validateFloatSlot(slot *Slot) error {
	if err := validation.ValidateStruct(slot,
		validation.Field(&slot.Categories, validation.Empty),
	); err != nil {
		return err
	}
	if slot.MinValue != nil && slot.MaxValue != nil && *slot.MinValue >= *slot.MaxValue {
		return validation.NewError("validation_float_range",
			"minValue must be less than maxValue")
	}
	return nil
}

// SlotTypes returns the registered slot type tags.
func SlotTypes() []string {
	types := make([]string, 0, len(slotSchemas))
	for t := range slotSchemas {
		types = append(types, t)
	}
	return types
}
