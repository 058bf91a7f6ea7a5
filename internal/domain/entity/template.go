package entity

type TemplateCategory string

const (
	CategoryGovernment TemplateCategory = "government"
	CategoryFinance    TemplateCategory = "finance"
	CategoryHealthcare TemplateCategory = "healthcare"
	CategoryUtilities  TemplateCategory = "utilities"
)

// FormFieldMapping maps a candidate field name to a semantic placeholder.
// Placeholder holds the bare token name (e.g. FIRST_NAME).
type FormFieldMapping struct {
	FormFieldID string `yaml:"formFieldId" json:"formFieldId" validate:"required"`
	Placeholder string `yaml:"placeholder" json:"placeholder" validate:"required,token"`
	Required    bool   `yaml:"required" json:"required"`
}

type FormTemplate struct {
	ID          string             `yaml:"id" json:"id" validate:"required"`
	Name        string             `yaml:"name" json:"name" validate:"required"`
	NameNL      string             `yaml:"nameNl" json:"nameNl"`
	Category    TemplateCategory   `yaml:"category" json:"category" validate:"required,oneof=government finance healthcare utilities"`
	URLPatterns []string           `yaml:"urlPatterns" json:"urlPatterns" validate:"required,min=1,dive,required"`
	Fields      []FormFieldMapping `yaml:"fields" json:"fields" validate:"dive"`
}

type MatchStrategy string

const (
	MatchByID    MatchStrategy = "id"
	MatchByName  MatchStrategy = "name"
	MatchByLabel MatchStrategy = "label"
)

// FieldMapping is one row of the table produced by a successful match.
type FieldMapping struct {
	FormFieldID string        `json:"formFieldId"`
	Placeholder string        `json:"placeholder"`
	Required    bool          `json:"required"`
	FieldID     string        `json:"fieldId,omitempty"`
	MatchedBy   MatchStrategy `json:"matchedBy,omitempty"`
}

func (m FieldMapping) Resolved() bool {
	return m.FieldID != ""
}

type DetectedTemplate struct {
	TemplateID string           `json:"templateId"`
	Name       string           `json:"name"`
	NameNL     string           `json:"nameNl,omitempty"`
	Category   TemplateCategory `json:"category"`
	Mappings   []FieldMapping   `json:"mappings"`
	Missing    []string         `json:"missing,omitempty"`
}
