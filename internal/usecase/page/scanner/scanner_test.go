package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbridge/internal/domain/entity"
)

func scan(t *testing.T, html string) *entity.FormSchema {
	t.Helper()
	schema, err := New(DefaultConfig()).Scan("https://example.nl/form", "", html)
	require.NoError(t, err)
	return schema
}

func fieldByID(t *testing.T, s *entity.FormSchema, id string) entity.FormField {
	t.Helper()
	f, ok := s.Field(id)
	require.True(t, ok, "field %s not captured", id)
	return f
}

func TestClassify(t *testing.T) {
	tests := []struct {
		tag, typ string
		kind     entity.FieldKind
		ok       bool
	}{
		{"input", "", entity.FieldKindText, true},
		{"INPUT", "Email", entity.FieldKindText, true},
		{"input", "password", entity.FieldKindText, true},
		{"input", "checkbox", entity.FieldKindToggle, true},
		{"input", "radio", entity.FieldKindToggle, true},
		{"select", "", entity.FieldKindChoice, true},
		{"textarea", "", entity.FieldKindText, true},
		{"input", "hidden", "", false},
		{"input", "submit", "", false},
		{"button", "", "", false},
		{"div", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag+"/"+tt.typ, func(t *testing.T) {
			kind, ok := Classify(tt.tag, tt.typ)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestScan_VoornaamForm(t *testing.T) {
	s := scan(t, VoornaamHTML)

	assert.Equal(t, "Aanvraag verblijfsvergunning", s.Title)
	assert.Equal(t, []string{"Aanvraag"}, s.Headings)
	require.Len(t, s.Fields, 1)

	f := s.Fields[0]
	assert.Equal(t, "voornaam", f.ID)
	assert.Equal(t, "voornaam", f.Name)
	assert.Equal(t, "Voornaam", f.Label)
	assert.Equal(t, "text", f.Type)
	assert.True(t, f.Required)
	assert.Equal(t, 0, f.FormIndex)
	assert.False(t, s.CapturedAt.IsZero())
}

func TestScan_LabelResolutionOrder(t *testing.T) {
	s := scan(t, LabelOrderHTML)

	assert.Equal(t, "From for", fieldByID(t, s, "a").Label)
	assert.Equal(t, "Wrapped", fieldByID(t, s, "b").Label)
	assert.Equal(t, "Aria label", fieldByID(t, s, "c").Label)
	assert.Equal(t, "Sibling text", fieldByID(t, s, "d").Label)
	assert.Empty(t, fieldByID(t, s, "e").Label)
}

func TestScan_MixedDocument(t *testing.T) {
	s := scan(t, MixedHTML)

	assert.Equal(t, []string{"Top", "Section two"}, s.Headings)
	assert.Contains(t, s.PageDescription, "Please fill in the form below.")
	assert.NotContains(t, s.PageDescription, "do not read")

	_, ok := s.Field("form-0-field-0")
	assert.False(t, ok, "hidden inputs are not captured")

	plain := fieldByID(t, s, "form-0-field-1")
	assert.Equal(t, "plain", plain.Name)

	agree := fieldByID(t, s, "agree")
	assert.Equal(t, entity.FieldKindToggle, agree.Kind)
	assert.True(t, agree.Checked)

	land := fieldByID(t, s, "land")
	assert.Equal(t, entity.FieldKindChoice, land.Kind)
	assert.Equal(t, "select-one", land.Type)
	assert.Equal(t, "be", land.Value)
	assert.Equal(t, []entity.Option{{Value: "nl", Text: "Nederland"}, {Value: "be", Text: "België"}}, land.Options)

	notes := fieldByID(t, s, "notes")
	assert.Equal(t, "textarea", notes.Type)
	assert.Equal(t, "Some notes", notes.Value)

	search := fieldByID(t, s, "search")
	assert.Equal(t, -1, search.FormIndex)
	assert.True(t, search.Required)
	assert.Equal(t, "Zoeken", search.Placeholder)

	loose := fieldByID(t, s, "standalone-field-1")
	assert.Equal(t, "loose", loose.Name)

	for _, f := range s.Fields {
		assert.NotEqual(t, "submit", f.Type)
		assert.NotEqual(t, "hidden", f.Type)
	}
}

func TestScan_PasswordIsRedacted(t *testing.T) {
	s := scan(t, MixedHTML)

	pw := fieldByID(t, s, "pw")
	assert.Equal(t, entity.RedactedValue, pw.Value)
	assert.NotEqual(t, "hunter2", pw.Value)

	empty := scan(t, `<form><input type="password" id="p2"></form>`)
	assert.Equal(t, entity.RedactedValue, fieldByID(t, empty, "p2").Value)
}

func TestScan_IDsAreUnique(t *testing.T) {
	docs := []string{VoornaamHTML, LabelOrderHTML, MixedHTML,
		`<form><input id="form-0-field-1"><input><input></form>`}

	for _, doc := range docs {
		s := scan(t, doc)
		seen := make(map[string]bool)
		for _, f := range s.Fields {
			assert.False(t, seen[f.ID], "duplicate id %s", f.ID)
			seen[f.ID] = true
		}
	}

	s := scan(t, MixedHTML)
	first := fieldByID(t, s, "dup")
	assert.Equal(t, "first", first.Name)
	second := fieldByID(t, s, "form-1-field-1")
	assert.Equal(t, "second", second.Name)
}

func TestScan_SyntheticLookalikeIDsFollowPosition(t *testing.T) {
	s := scan(t, `<form>
		<input name="a">
		<input id="form-0-field-0" name="b">
		<input id="form-0-field-2" name="c">
	</form>`)

	got := map[string]string{}
	for _, f := range s.Fields {
		got[f.Name] = f.ID
	}
	assert.Equal(t, map[string]string{
		"a": "form-0-field-0",
		"b": "form-0-field-1",
		"c": "form-0-field-2",
	}, got)
}

func TestScan_SanitisesAttributeMarkup(t *testing.T) {
	s := scan(t, `<input id="x" aria-label="<b>Naam</b> &amp; adres">`)
	assert.Equal(t, "Naam & adres", fieldByID(t, s, "x").Label)
}

func TestScan_TruncatesDescription(t *testing.T) {
	body := "<body><p>" + strings.Repeat("woord ", 400) + "</p></body>"
	s, err := New(Config{MaxDescription: 50}).Scan("u", "t", body)
	require.NoError(t, err)
	assert.Equal(t, 50, len([]rune(s.PageDescription)))
	assert.Equal(t, "t", s.Title)
}
