package privacy

import "sort"

// PersonalData is a read-only view of the user's personal data record,
// keyed by semantic data key.
type PersonalData interface {
	Lookup(key string) (string, bool)
}

// Substitution is the outcome of crossing the boundary.
type Substitution struct {
	literals   LiteralFill
	unresolved map[string]Token
}

// Substitute maps every token through the fixed token -> data key table
// and reads the literal from data. A token with no non-empty value is
// kept aside as unresolved; nothing is ever fabricated for it.
func Substitute(proposal TokenFill, data PersonalData) Substitution {
	sub := Substitution{
		literals:   make(LiteralFill, len(proposal)),
		unresolved: make(map[string]Token),
	}
	for field, t := range proposal {
		key, ok := t.DataKey()
		if !ok || data == nil {
			sub.unresolved[field] = t
			continue
		}
		v, ok := data.Lookup(key)
		if !ok || v == "" {
			sub.unresolved[field] = t
			continue
		}
		sub.literals[field] = Literal{value: v}
	}
	return sub
}

// Literals returns the resolved part of the request only.
func (s Substitution) Literals() LiteralFill {
	return s.literals
}

// Unresolved lists the fields whose token could not be resolved, sorted.
func (s Substitution) Unresolved() []string {
	out := make([]string, 0, len(s.unresolved))
	for field := range s.unresolved {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// UnresolvedToken returns the token left in place for field.
func (s Substitution) UnresolvedToken(field string) (Token, bool) {
	t, ok := s.unresolved[field]
	return t, ok
}

// Passthrough is the full field -> string map: literals where resolved,
// the untouched token text where not.
func (s Substitution) Passthrough() map[string]string {
	out := s.literals.Wire()
	for field, t := range s.unresolved {
		out[field] = string(t)
	}
	return out
}

// HasLeftoverTokens reports the fields of a substituted map whose value
// still has the shape of a token; callers treat them as "ask the user".
func HasLeftoverTokens(values map[string]string) []string {
	var out []string
	for field, v := range values {
		if LooksLikeToken(v) {
			out = append(out, field)
		}
	}
	sort.Strings(out)
	return out
}
