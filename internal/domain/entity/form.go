package entity

import "time"

// RedactedValue replaces the content of password-typed fields in a capture.
const RedactedValue = "********"

type FieldKind string

const (
	FieldKindText   FieldKind = "text"
	FieldKindChoice FieldKind = "choice"
	FieldKindToggle FieldKind = "toggle"
)

type Option struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// FormField is one captured input. ID is unique within its FormSchema.
type FormField struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Type        string    `json:"type"`
	Kind        FieldKind `json:"kind"`
	Label       string    `json:"label,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Required    bool      `json:"required"`
	Value       string    `json:"value,omitempty"`
	Checked     bool      `json:"checked,omitempty"`
	Options     []Option  `json:"options,omitempty"`
	FormIndex   int       `json:"formIndex"`
}

func (f FormField) IsPassword() bool {
	return f.Type == "password"
}

// FormSchema is the result of one capture. It is never edited after
// creation; a later capture supersedes it.
type FormSchema struct {
	URL              string            `json:"url"`
	Title            string            `json:"title"`
	CapturedAt       time.Time         `json:"capturedAt"`
	Fields           []FormField       `json:"fields"`
	Headings         []string          `json:"headings,omitempty"`
	PageDescription  string            `json:"pageDescription,omitempty"`
	DetectedTemplate *DetectedTemplate `json:"detectedTemplate,omitempty"`
}

func (s *FormSchema) Field(id string) (FormField, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FormField{}, false
}

// WithTemplate returns a copy of the schema carrying the detected template.
func (s FormSchema) WithTemplate(dt *DetectedTemplate) FormSchema {
	s.DetectedTemplate = dt
	return s
}
