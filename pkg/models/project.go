// Package models contains domain types for chatforge-engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is the top-level workspace document. It owns the slot definitions
// and the nested template list; every template mutation bumps
// ResponsesUpdatedAt so authoring clients can cheaply detect staleness.
type Project struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	DefaultLanguage    string     `json:"default_language"`
	Templates          []Template `json:"templates"`
	ResponsesUpdatedAt time.Time  `json:"responses_updated_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TemplateByKey returns the index of the template with the given key, or -1.
func (p *Project) TemplateByKey(key string) int {
	for i := range p.Templates {
		if p.Templates[i].Key == key {
			return i
		}
	}
	return -1
}
