package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/chatforge-ai/chatforge-engine/pkg/apperrors"
	"github.com/chatforge-ai/chatforge-engine/pkg/models"
	"github.com/chatforge-ai/chatforge-engine/pkg/repositories"
	"github.com/chatforge-ai/chatforge-engine/pkg/textutil"
)

// TemplateService provides operations on the template list nested in a
// project document. Every mutation goes through a single atomic document
// write that also bumps the project's responses timestamp.
type TemplateService interface {
	// UpdateTemplate replaces the template matching key. The first localized
	// value's content is newline-normalized before storage. Returns the
	// update count.
	UpdateTemplate(ctx context.Context, projectID uuid.UUID, key string, item *models.Template) (int64, error)

	// DeleteTemplate removes the template matching key. The lang argument is
	// accepted for interface compatibility; removal is by key.
	DeleteTemplate(ctx context.Context, projectID uuid.UUID, key, lang string) (int64, error)

	// FindTemplate looks up a template by key, creating it (or the missing
	// localized value for lang) with default content when absent.
	FindTemplate(ctx context.Context, projectID uuid.UUID, key, lang string) (*models.Template, error)

	// InsertTemplate appends a new template, failing with
	// apperrors.ErrTemplateCollision when the key is already in use.
	InsertTemplate(ctx context.Context, projectID uuid.UUID, item *models.Template) error

	// Download returns the full templates list of the project.
	Download(ctx context.Context, projectID uuid.UUID) ([]models.Template, error)

	// Import merges incoming templates into the project with replace-by-key
	// semantics. The payload is either a JSON list or a serialized string
	// (JSON, falling back to YAML).
	Import(ctx context.Context, projectID uuid.UUID, payload json.RawMessage) error

	// RemoveByKey removes all templates matching the given keys in one pass.
	RemoveByKey(ctx context.Context, projectID uuid.UUID, keys []string) (int64, error)

	// CountWithIntent reports whether any template carries an NLU trigger
	// for the given intent. Boolean existence check; the name is historical.
	CountWithIntent(ctx context.Context, projectID uuid.UUID, intent string) (bool, error)
}

type templateService struct {
	projects repositories.ProjectRepository
	logger   *zap.Logger
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(projects repositories.ProjectRepository, logger *zap.Logger) TemplateService {
	return &templateService{
		projects: projects,
		logger:   logger.Named("template-service"),
	}
}

var _ TemplateService = (*templateService)(nil)

func (s *templateService) UpdateTemplate(ctx context.Context, projectID uuid.UUID, key string, item *models.Template) (int64, error) {
	if err := item.Validate(); err != nil {
		return 0, err
	}
	normalizeFirstValue(item)

	templates, err := s.projects.GetTemplates(ctx, projectID)
	if err != nil {
		return 0, err
	}

	idx := indexByKey(templates, key)
	if idx < 0 {
		return 0, apperrors.ErrNotFound
	}
	// A rename must not land on a key another template already holds.
	if item.Key != key && indexByKey(templates, item.Key) >= 0 {
		return 0, apperrors.ErrTemplateCollision
	}
	templates[idx] = *item

	return s.projects.ReplaceTemplates(ctx, projectID, templates)
}

func (s *templateService) DeleteTemplate(ctx context.Context, projectID uuid.UUID, key, lang string) (int64, error) {
	templates, err := s.projects.GetTemplates(ctx, projectID)
	if err != nil {
		return 0, err
	}

	remaining := templates[:0:0]
	for _, t := range templates {
		if t.Key != key {
			remaining = append(remaining, t)
		}
	}
	if len(remaining) == len(templates) {
		return 0, nil
	}

	return s.projects.ReplaceTemplates(ctx, projectID, remaining)
}

func (s *templateService) FindTemplate(ctx context.Context, projectID uuid.UUID, key, lang string) (*models.Template, error) {
	if lang == "" {
		lang = models.DefaultLang
	}

	templates, err := s.projects.GetTemplates(ctx, projectID)
	if err != nil {
		return nil, err
	}

	idx := indexByKey(templates, key)
	if idx < 0 {
		// Absent key: synthesize a template with one default localized value
		// and push it into the project.
		created := models.NewDefaultTemplate(key, lang)
		templates = append(templates, *created)
		if _, err := s.projects.ReplaceTemplates(ctx, projectID, templates); err != nil {
			return nil, err
		}
		s.logger.Debug("Created missing template",
			zap.String("project_id", projectID.String()),
			zap.String("key", key),
			zap.String("lang", lang))
		return created, nil
	}

	if !templates[idx].HasLang(lang) {
		// Known key, new language: append a default-content localized value.
		templates[idx].Values = append(templates[idx].Values, models.LocalizedValue{
			Lang:     lang,
			Sequence: []models.ContentBlock{{Content: models.DefaultContent(key)}},
		})
		if _, err := s.projects.ReplaceTemplates(ctx, projectID, templates); err != nil {
			return nil, err
		}
	}

	found := templates[idx]
	return &found, nil
}

func (s *templateService) InsertTemplate(ctx context.Context, projectID uuid.UUID, item *models.Template) error {
	if err := item.Validate(); err != nil {
		return err
	}

	templates, err := s.projects.GetTemplates(ctx, projectID)
	if err != nil {
		return err
	}

	if indexByKey(templates, item.Key) >= 0 {
		return apperrors.ErrTemplateCollision
	}

	templates = append(templates, *item)
	_, err = s.projects.ReplaceTemplates(ctx, projectID, templates)
	return err
}

func (s *templateService) Download(ctx context.Context, projectID uuid.UUID) ([]models.Template, error) {
	return s.projects.GetTemplates(ctx, projectID)
}

func (s *templateService) Import(ctx context.Context, projectID uuid.UUID, payload json.RawMessage) error {
	incoming, err := parseImportPayload(payload)
	if err != nil {
		return err
	}
	for i := range incoming {
		if err := incoming[i].Validate(); err != nil {
			return err
		}
	}
	incoming = dedupeByKey(incoming)

	existing, err := s.projects.GetTemplates(ctx, projectID)
	if err != nil {
		return err
	}

	// Replace semantics: existing templates whose key is re-imported are
	// dropped before all incoming templates are appended.
	replaced := make(map[string]bool, len(incoming))
	for _, t := range incoming {
		replaced[t.Key] = true
	}

	merged := existing[:0:0]
	for _, t := range existing {
		if !replaced[t.Key] {
			merged = append(merged, t)
		}
	}
	merged = append(merged, incoming...)

	_, err = s.projects.ReplaceTemplates(ctx, projectID, merged)
	if err != nil {
		return err
	}

	s.logger.Info("Imported templates",
		zap.String("project_id", projectID.String()),
		zap.Int("count", len(incoming)))
	return nil
}

func (s *templateService) RemoveByKey(ctx context.Context, projectID uuid.UUID, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, fmt.Errorf("%w: no template keys given", apperrors.ErrInvalidArgument)
	}

	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}

	templates, err := s.projects.GetTemplates(ctx, projectID)
	if err != nil {
		return 0, err
	}

	remaining := templates[:0:0]
	var removed int64
	for _, t := range templates {
		if drop[t.Key] {
			removed++
			continue
		}
		remaining = append(remaining, t)
	}
	if removed == 0 {
		return 0, nil
	}

	if _, err := s.projects.ReplaceTemplates(ctx, projectID, remaining); err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *templateService) CountWithIntent(ctx context.Context, projectID uuid.UUID, intent string) (bool, error) {
	templates, err := s.projects.GetTemplates(ctx, projectID)
	if err != nil {
		return false, err
	}

	for i := range templates {
		if templates[i].MatchesIntent(intent) {
			return true, nil
		}
	}
	return false, nil
}

// normalizeFirstValue newline-normalizes the content blocks of the first
// localized value, matching the editor submission path.
func normalizeFirstValue(item *models.Template) {
	if len(item.Values) == 0 {
		return
	}
	seq := item.Values[0].Sequence
	for i := range seq {
		seq[i].Content = textutil.FormatNewlines(seq[i].Content)
	}
}

// dedupeByKey collapses repeated keys within one batch, keeping the last
// occurrence, so one import never writes two templates under the same key.
func dedupeByKey(templates []models.Template) []models.Template {
	last := make(map[string]int, len(templates))
	for i, t := range templates {
		last[t.Key] = i
	}
	if len(last) == len(templates) {
		return templates
	}

	out := templates[:0:0]
	for i, t := range templates {
		if last[t.Key] == i {
			out = append(out, t)
		}
	}
	return out
}

func indexByKey(templates []models.Template, key string) int {
	for i := range templates {
		if templates[i].Key == key {
			return i
		}
	}
	return -1
}

// parseImportPayload accepts either a JSON template list or a serialized
// string holding one (JSON first, YAML fallback).
func parseImportPayload(payload json.RawMessage) ([]models.Template, error) {
	var list []models.Template
	if err := json.Unmarshal(payload, &list); err == nil {
		return list, nil
	}

	var serialized string
	if err := json.Unmarshal(payload, &serialized); err != nil {
		return nil, fmt.Errorf("%w: templates must be a list or a serialized string", apperrors.ErrInvalidArgument)
	}

	if err := json.Unmarshal([]byte(serialized), &list); err == nil {
		return list, nil
	}
	if err := yaml.Unmarshal([]byte(serialized), &list); err != nil {
		return nil, fmt.Errorf("%w: failed to parse serialized templates: %v", apperrors.ErrInvalidArgument, err)
	}
	return list, nil
}
