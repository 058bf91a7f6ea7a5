// Package privacy holds the two vocabularies that meet at the fill
// boundary: semantic placeholder tokens, produced by the orchestrator, and
// literal personal data, held only inside the host application.
package privacy

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Token is a semantic tag standing in for a category of personal data.
// It is rendered on the wire as {{NAME}}.
type Token string

const (
	TokenFirstName      Token = "{{FIRST_NAME}}"
	TokenLastName       Token = "{{LAST_NAME}}"
	TokenFullName       Token = "{{FULL_NAME}}"
	TokenInitials       Token = "{{INITIALS}}"
	TokenDateOfBirth    Token = "{{DATE_OF_BIRTH}}"
	TokenPlaceOfBirth   Token = "{{PLACE_OF_BIRTH}}"
	TokenNationality    Token = "{{NATIONALITY}}"
	TokenGender         Token = "{{GENDER}}"
	TokenEmail          Token = "{{EMAIL}}"
	TokenPhone          Token = "{{PHONE}}"
	TokenStreet         Token = "{{STREET}}"
	TokenHouseNumber    Token = "{{HOUSE_NUMBER}}"
	TokenPostalCode     Token = "{{POSTAL_CODE}}"
	TokenCity           Token = "{{CITY}}"
	TokenCountry        Token = "{{COUNTRY}}"
	TokenBSN            Token = "{{BSN}}"
	TokenIBAN           Token = "{{IBAN}}"
	TokenPassportNumber Token = "{{PASSPORT_NUMBER}}"
	TokenVNumber        Token = "{{V_NUMBER}}"
	TokenEmployer       Token = "{{EMPLOYER}}"
)

// dataKeys is the fixed token -> personal data key table. Every token in
// the closed set has exactly one entry.
var dataKeys = map[Token]string{
	TokenFirstName:      "first_name",
	TokenLastName:       "last_name",
	TokenFullName:       "full_name",
	TokenInitials:       "initials",
	TokenDateOfBirth:    "date_of_birth",
	TokenPlaceOfBirth:   "place_of_birth",
	TokenNationality:    "nationality",
	TokenGender:         "gender",
	TokenEmail:          "email",
	TokenPhone:          "phone",
	TokenStreet:         "street",
	TokenHouseNumber:    "house_number",
	TokenPostalCode:     "postal_code",
	TokenCity:           "city",
	TokenCountry:        "country",
	TokenBSN:            "bsn",
	TokenIBAN:           "iban",
	TokenPassportNumber: "passport_number",
	TokenVNumber:        "v_number",
	TokenEmployer:       "employer",
}

var tokenShape = regexp.MustCompile(`^\{\{[A-Z][A-Z0-9_]*\}\}$`)

// ParseToken accepts either the bare name (FIRST_NAME) or the rendered
// form ({{FIRST_NAME}}) and returns the token if it is in the closed set.
func ParseToken(s string) (Token, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{{") {
		s = "{{" + strings.ToUpper(s) + "}}"
	}
	t := Token(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown placeholder token %q", s)
	}
	return t, nil
}

func (t Token) Valid() bool {
	_, ok := dataKeys[t]
	return ok
}

// Name returns the bare token name without braces.
func (t Token) Name() string {
	return strings.TrimSuffix(strings.TrimPrefix(string(t), "{{"), "}}")
}

// DataKey returns the personal data key the token resolves through.
func (t Token) DataKey() (string, bool) {
	k, ok := dataKeys[t]
	return k, ok
}

func (t Token) String() string {
	return string(t)
}

// LooksLikeToken reports whether s has the shape of a placeholder token,
// whether or not it belongs to the closed set.
func LooksLikeToken(s string) bool {
	return tokenShape.MatchString(strings.TrimSpace(s))
}

// Tokens lists the closed set in a stable order.
func Tokens() []Token {
	out := make([]Token, 0, len(dataKeys))
	for t := range dataKeys {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TokenFill is the orchestrator's fill proposal: field id -> token.
type TokenFill map[string]Token

// Validate rejects proposals that carry anything outside the closed set.
func (f TokenFill) Validate() error {
	for field, t := range f {
		if !t.Valid() {
			return fmt.Errorf("field %q: %w", field, ErrNotAToken)
		}
	}
	return nil
}
