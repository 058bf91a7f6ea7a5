// Package matcher selects the form template that describes a captured
// schema and resolves the template's field mappings against it.
//
// Templates are tried in library order and the first template with a
// matching URL pattern wins, so more specific templates must come before
// broader ones in the library.
package matcher

import (
	"fmt"
	"regexp"
	"strings"

	"formbridge/internal/domain/entity"
	"formbridge/internal/domain/privacy"
)

type compiled struct {
	template entity.FormTemplate
	patterns []*regexp.Regexp
}

// Library is an ordered, immutable set of templates with compiled patterns.
type Library struct {
	version   string
	templates []compiled
}

func NewLibrary(version string, templates []entity.FormTemplate) (*Library, error) {
	lib := &Library{version: version, templates: make([]compiled, 0, len(templates))}
	seen := make(map[string]bool, len(templates))

	for _, t := range templates {
		if seen[t.ID] {
			return nil, fmt.Errorf("template %q: duplicate id", t.ID)
		}
		seen[t.ID] = true

		c := compiled{template: t}
		for _, p := range t.URLPatterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("template %q: pattern %q: %w", t.ID, p, err)
			}
			c.patterns = append(c.patterns, re)
		}
		lib.templates = append(lib.templates, c)
	}
	return lib, nil
}

func (l *Library) Version() string {
	return l.version
}

func (l *Library) Len() int {
	return len(l.templates)
}

func (l *Library) Templates() []entity.FormTemplate {
	out := make([]entity.FormTemplate, 0, len(l.templates))
	for _, c := range l.templates {
		out = append(out, c.template)
	}
	return out
}

// Find returns the first template whose patterns match url.
func (l *Library) Find(url string) (entity.FormTemplate, bool) {
	for _, c := range l.templates {
		for _, re := range c.patterns {
			if re.MatchString(url) {
				return c.template, true
			}
		}
	}
	return entity.FormTemplate{}, false
}

// Match returns nil when no template matches; that is not an error.
func Match(lib *Library, url string, schema *entity.FormSchema) *entity.DetectedTemplate {
	if lib == nil || schema == nil {
		return nil
	}
	t, ok := lib.Find(url)
	if !ok {
		return nil
	}

	dt := &entity.DetectedTemplate{
		TemplateID: t.ID,
		Name:       t.Name,
		NameNL:     t.NameNL,
		Category:   t.Category,
		Mappings:   make([]entity.FieldMapping, 0, len(t.Fields)),
	}
	for _, m := range t.Fields {
		fm := entity.FieldMapping{
			FormFieldID: m.FormFieldID,
			Placeholder: m.Placeholder,
			Required:    m.Required,
		}
		if f, by, ok := resolve(m.FormFieldID, schema.Fields); ok {
			fm.FieldID = f.ID
			fm.MatchedBy = by
		} else {
			dt.Missing = append(dt.Missing, m.FormFieldID)
		}
		dt.Mappings = append(dt.Mappings, fm)
	}
	return dt
}

// resolve tries exact id, then exact name, then a case-insensitive
// substring of the label. Within each strategy the first field wins.
func resolve(candidate string, fields []entity.FormField) (entity.FormField, entity.MatchStrategy, bool) {
	for _, f := range fields {
		if f.ID == candidate {
			return f, entity.MatchByID, true
		}
	}
	for _, f := range fields {
		if f.Name != "" && f.Name == candidate {
			return f, entity.MatchByName, true
		}
	}
	needle := strings.ToLower(candidate)
	for _, f := range fields {
		if f.Label != "" && strings.Contains(strings.ToLower(f.Label), needle) {
			return f, entity.MatchByLabel, true
		}
	}
	return entity.FormField{}, "", false
}

// Proposal turns the resolved rows of a detected template into an
// orchestrator fill proposal keyed by captured field id.
func Proposal(dt *entity.DetectedTemplate) privacy.TokenFill {
	out := privacy.TokenFill{}
	if dt == nil {
		return out
	}
	for _, m := range dt.Mappings {
		if !m.Resolved() {
			continue
		}
		if _, taken := out[m.FieldID]; taken {
			continue
		}
		tok, err := privacy.ParseToken(m.Placeholder)
		if err != nil {
			continue
		}
		out[m.FieldID] = tok
	}
	return out
}
