// Package personaldata provides the user's personal data record. Values are
// read through Lookup only; the record never prints them.
package personaldata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/privacy"
)

var _ output.PersonalDataPort = Record(nil)

// Record maps semantic data keys (first_name, iban, ...) to values.
type Record map[string]string

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// FromMap copies m, normalising keys and dropping empty values.
func FromMap(m map[string]string) Record {
	r := make(Record, len(m))
	for k, v := range m {
		if v = strings.TrimSpace(v); v != "" {
			r[normalizeKey(k)] = v
		}
	}
	return r
}

// LoadFile reads a KEY=value file. Keys are matched case-insensitively, so
// FIRST_NAME and first_name are the same entry.
func LoadFile(path string) (Record, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read personal data %s: %w", path, err)
	}
	return FromMap(m), nil
}

func (r Record) Lookup(key string) (string, bool) {
	v, ok := r[normalizeKey(key)]
	return v, ok && v != ""
}

// Keys lists the keys present, sorted.
func (r Record) Keys() []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Unknown lists keys no placeholder token resolves through.
func (r Record) Unknown() []string {
	known := make(map[string]bool)
	for _, t := range privacy.Tokens() {
		if k, ok := t.DataKey(); ok {
			known[k] = true
		}
	}
	var out []string
	for _, k := range r.Keys() {
		if !known[k] {
			out = append(out, k)
		}
	}
	return out
}

func (r Record) String() string {
	return fmt.Sprintf("personaldata.Record(%d keys)", len(r))
}

func (r Record) GoString() string {
	return r.String()
}
