package models

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Template is a named, multi-language bot response definition. Templates are
// stored as an ordered list nested in their owning project document, one
// entry per key.
type Template struct {
	Key    string           `json:"key"`
	Values []LocalizedValue `json:"values"`
	Match  *TemplateMatch   `json:"match,omitempty"`
}

// LocalizedValue holds the response content for one language. A template
// carries at most one LocalizedValue per language.
type LocalizedValue struct {
	Lang     string         `json:"lang"`
	Sequence []ContentBlock `json:"sequence"`
}

// ContentBlock is a single rendering fragment: a YAML bot-response payload,
// possibly spanning multiple lines.
type ContentBlock struct {
	Content string `json:"content"`
}

// TemplateMatch describes the NLU triggers that select this template.
type TemplateMatch struct {
	NLU []NLUCriterion `json:"nlu"`
}

// NLUCriterion matches a parsed user utterance by intent and entities.
type NLUCriterion struct {
	Intent   string   `json:"intent"`
	Entities []string `json:"entities,omitempty"`
}

// DefaultLang is the language assumed when a caller does not specify one.
const DefaultLang = "en"

// Validate checks the template's shape: a non-empty key and at most one
// localized value per language.
func (t *Template) Validate() error {
	if err := validation.ValidateStruct(t,
		validation.Field(&t.Key, validation.Required, validation.Length(1, 200)),
	); err != nil {
		return err
	}

	seen := make(map[string]bool, len(t.Values))
	for _, v := range t.Values {
		if v.Lang == "" {
			return validation.NewError("validation_missing_lang", "localized value requires a lang")
		}
		if seen[v.Lang] {
			return validation.NewError("validation_duplicate_lang",
				fmt.Sprintf("duplicate localized value for lang %q", v.Lang))
		}
		seen[v.Lang] = true
	}
	return nil
}

// HasLang reports whether the template already carries a localized value for
// the given language.
func (t *Template) HasLang(lang string) bool {
	for _, v := range t.Values {
		if v.Lang == lang {
			return true
		}
	}
	return false
}

// MatchesIntent reports whether any NLU trigger criterion of the template
// names the given intent.
func (t *Template) MatchesIntent(intent string) bool {
	if t.Match == nil {
		return false
	}
	for _, c := range t.Match.NLU {
		if c.Intent == intent {
			return true
		}
	}
	return false
}

// DefaultContent returns the YAML text payload used to pre-fill a freshly
// created localized value, derived from the template key.
func DefaultContent(key string) string {
	out, err := yaml.Marshal(map[string]string{"text": key})
	if err != nil {
		// A map[string]string cannot fail to marshal; keep a plain fallback
		// so callers never see an empty block.
		return "text: " + key + "\n"
	}
	return string(out)
}

// NewDefaultTemplate builds a template with a single localized value whose
// content is pre-filled from the key.
func NewDefaultTemplate(key, lang string) *Template {
	return &Template{
		Key: key,
		Values: []LocalizedValue{{
			Lang:     lang,
			Sequence: []ContentBlock{{Content: DefaultContent(key)}},
		}},
	}
}
