package privacy

import (
	"errors"
	"sort"
)

var ErrNotAToken = errors.New("value is not a placeholder token")

const redacted = "[literal]"

// Literal is one piece of personal data. Its printed and JSON forms are
// redacted; the raw value leaves the host only through LiteralFill.Wire.
type Literal struct {
	value string
}

func (l Literal) String() string   { return redacted }
func (l Literal) GoString() string { return redacted }

func (l Literal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

func (l Literal) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

func (l Literal) Empty() bool {
	return l.value == ""
}

// LiteralFill is the substituted fill request: field id -> literal.
type LiteralFill map[string]Literal

// Wire reveals the literals for dispatch to the fill executor. It is the
// only place a Literal's value is read.
func (f LiteralFill) Wire() map[string]string {
	out := make(map[string]string, len(f))
	for field, l := range f {
		out[field] = l.value
	}
	return out
}

func (f LiteralFill) Fields() []string {
	out := make([]string, 0, len(f))
	for field := range f {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}
