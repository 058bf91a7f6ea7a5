package htmldoc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/entity"
)

const formHTML = `<!DOCTYPE html>
<html>
<head><title>Form</title></head>
<body>
	<form>
		<input id="voornaam" name="voornaam" />
		<input name="achternaam" />
		<select id="land"><option value="nl">Nederland</option><option value="be">België</option></select>
		<textarea id="notes"></textarea>
		<input type="checkbox" id="agree" />
		<div id="box"></div>
	</form>
</body>
</html>`

func TestDocument_Lookups(t *testing.T) {
	ctx := context.Background()
	d, err := Parse("https://example.nl/", formHTML)
	require.NoError(t, err)

	_, err = d.ByID(ctx, "voornaam")
	assert.NoError(t, err)

	_, err = d.ByID(ctx, "achternaam")
	assert.ErrorIs(t, err, output.ErrFieldNotFound)

	_, err = d.ByName(ctx, "achternaam")
	assert.NoError(t, err)

	_, err = d.BySelector(ctx, "form > textarea")
	assert.NoError(t, err)

	_, err = d.BySelector(ctx, "#nope")
	assert.ErrorIs(t, err, output.ErrFieldNotFound)

	_, err = d.BySelector(ctx, "[[[")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, output.ErrFieldNotFound)
}

func TestDocument_AssignControls(t *testing.T) {
	ctx := context.Background()
	d, err := Parse("https://example.nl/", formHTML)
	require.NoError(t, err)

	for id, v := range map[string]string{"voornaam": "Jan", "land": "be", "notes": "hallo", "agree": "true"} {
		h, err := d.ByID(ctx, id)
		require.NoError(t, err)
		require.NoError(t, h.Assign(ctx, v))
	}

	v, _ := d.Value("voornaam")
	assert.Equal(t, "Jan", v)
	v, _ = d.Value("land")
	assert.Equal(t, "be", v)
	v, _ = d.Value("notes")
	assert.Equal(t, "hallo", v)
	v, _ = d.Value("agree")
	assert.Equal(t, "true", v)

	assert.Len(t, d.Events(), 8)

	h, err := d.ByID(ctx, "land")
	require.NoError(t, err)
	assert.Error(t, h.Assign(ctx, "de"))

	box, err := d.BySelector(ctx, "#box")
	require.NoError(t, err)
	assert.Error(t, box.Assign(ctx, "x"))
}

func TestDocument_TabPort(t *testing.T) {
	ctx := context.Background()
	d, err := Parse("https://example.nl/", formHTML)
	require.NoError(t, err)

	url, _ := d.URL(ctx)
	assert.Equal(t, "https://example.nl/", url)
	title, _ := d.Title(ctx)
	assert.Equal(t, "Form", title)

	html, err := d.Snapshot(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, `id="voornaam"`)
}

func TestDocument_ByPosition(t *testing.T) {
	ctx := context.Background()
	d, err := Parse("https://example.nl/", `<html><body>
		<input id="lone" />
		<form><input id="a" /><input id="b" /></form>
		<textarea id="tail"></textarea>
	</body></html>`)
	require.NoError(t, err)

	h, err := d.ByPosition(ctx, 0, 1)
	require.NoError(t, err)
	require.NoError(t, h.Assign(ctx, "x"))
	v, _ := d.Value("b")
	assert.Equal(t, "x", v)

	h, err = d.ByPosition(ctx, entity.StandaloneForm, 1)
	require.NoError(t, err)
	require.NoError(t, h.Assign(ctx, "y"))
	v, _ = d.Value("tail")
	assert.Equal(t, "y", v)

	_, err = d.ByPosition(ctx, 0, 2)
	assert.ErrorIs(t, err, output.ErrFieldNotFound)
	_, err = d.ByPosition(ctx, 3, 0)
	assert.ErrorIs(t, err, output.ErrFieldNotFound)
}

const radioHTML = `<html><body>
	<form>
		<input type="radio" id="m" name="geslacht" value="M" checked />
		<input type="radio" id="v" name="geslacht" value="V" />
		<input type="radio" id="solo" name="nieuwsbrief" />
	</form>
	<input type="radio" id="other-v" name="geslacht" value="V" />
</body></html>`

func TestDocument_AssignRadioGroup(t *testing.T) {
	ctx := context.Background()
	d, err := Parse("https://example.nl/", radioHTML)
	require.NoError(t, err)

	h, err := d.ByName(ctx, "geslacht")
	require.NoError(t, err)
	require.NoError(t, h.Assign(ctx, "V"))

	m, _ := d.Value("m")
	v, _ := d.Value("v")
	other, _ := d.Value("other-v")
	assert.Equal(t, "false", m)
	assert.Equal(t, "true", v)
	assert.Equal(t, "false", other, "radios outside the form are another group")

	err = h.Assign(ctx, "X")
	assert.EqualError(t, err, `no option "X"`)
	v, _ = d.Value("v")
	assert.Equal(t, "true", v, "a failed assign leaves the group alone")

	solo, err := d.ByID(ctx, "solo")
	require.NoError(t, err)
	require.NoError(t, solo.Assign(ctx, "ja"))
	got, _ := d.Value("solo")
	assert.Equal(t, "true", got)
}

func TestDocument_IgnoresTemplateContent(t *testing.T) {
	ctx := context.Background()
	d, err := Parse("https://example.nl/", `<html><body>
		<form>
			<template><input id="tpl" /></template>
			<input id="first" />
		</form>
		<template><form><input id="tpl-form" /></form></template>
		<form><input id="second" /></form>
	</body></html>`)
	require.NoError(t, err)

	h, err := d.ByPosition(ctx, 0, 0)
	require.NoError(t, err)
	require.NoError(t, h.Assign(ctx, "a"))
	v, _ := d.Value("first")
	assert.Equal(t, "a", v)

	h, err = d.ByPosition(ctx, 1, 0)
	require.NoError(t, err)
	require.NoError(t, h.Assign(ctx, "b"))
	v, _ = d.Value("second")
	assert.Equal(t, "b", v)

	_, err = d.ByID(ctx, "tpl")
	assert.ErrorIs(t, err, output.ErrFieldNotFound)
}
