package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// StandaloneForm is the form index of fields outside any <form>.
const StandaloneForm = -1

// SyntheticFieldID names a field that has no usable DOM id by its position:
// the index among the controls of its form, or among the standalone
// controls when form is StandaloneForm.
func SyntheticFieldID(form, index int) string {
	if form == StandaloneForm {
		return fmt.Sprintf("standalone-field-%d", index)
	}
	return fmt.Sprintf("form-%d-field-%d", form, index)
}

// ParseSyntheticFieldID is the inverse of SyntheticFieldID.
func ParseSyntheticFieldID(id string) (form, index int, ok bool) {
	if rest, found := strings.CutPrefix(id, "standalone-field-"); found {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		return StandaloneForm, n, true
	}

	rest, found := strings.CutPrefix(id, "form-")
	if !found {
		return 0, 0, false
	}
	f, i, found := strings.Cut(rest, "-field-")
	if !found {
		return 0, 0, false
	}
	fn, err := strconv.Atoi(f)
	if err != nil || fn < 0 {
		return 0, 0, false
	}
	in, err := strconv.Atoi(i)
	if err != nil || in < 0 {
		return 0, 0, false
	}
	return fn, in, true
}
