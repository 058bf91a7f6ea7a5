package scanner

import (
	"strings"

	"formbridge/internal/domain/entity"
)

var ignoredInputTypes = map[string]bool{
	"hidden": true,
	"submit": true,
	"button": true,
	"reset":  true,
	"image":  true,
	"file":   true,
}

// Classify decides whether an element with the given tag and type is a
// fillable field and, if so, which kind. Tag and type are matched
// case-insensitively; an input with no type is a text input.
func Classify(tag, typ string) (entity.FieldKind, bool) {
	tag = strings.ToLower(tag)
	typ = strings.ToLower(strings.TrimSpace(typ))

	switch tag {
	case "textarea":
		return entity.FieldKindText, true
	case "select":
		return entity.FieldKindChoice, true
	case "input":
		if ignoredInputTypes[typ] {
			return "", false
		}
		if typ == "checkbox" || typ == "radio" {
			return entity.FieldKindToggle, true
		}
		return entity.FieldKindText, true
	}
	return "", false
}

// fieldType mirrors the DOM's notion of an element's type.
func fieldType(tag, typ string, multiple bool) string {
	switch strings.ToLower(tag) {
	case "textarea":
		return "textarea"
	case "select":
		if multiple {
			return "select-multiple"
		}
		return "select-one"
	}
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ == "" {
		return "text"
	}
	return typ
}

var labelLikeTags = map[string]bool{
	"label":  true,
	"span":   true,
	"strong": true,
	"b":      true,
	"em":     true,
	"p":      true,
	"dt":     true,
	"th":     true,
	"legend": true,
}

func isLabelLike(tag string) bool {
	return labelLikeTags[strings.ToLower(tag)]
}
