package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestPrune(t *testing.T) {
	root, err := html.Parse(strings.NewReader(`<html><head><title>T</title><style>.x{}</style></head>
<body>
	<!-- <input id="commented"> -->
	<div onclick="steal()" style="color:red" aria-label="box" id="keep">text</div>
	<script>document.write('<input id="scripted">')</script>
</body></html>`))
	require.NoError(t, err)

	prune(root)

	var sb strings.Builder
	require.NoError(t, html.Render(&sb, root))
	out := sb.String()

	assert.Contains(t, out, "<title>T</title>")
	assert.Contains(t, out, `aria-label="box"`)
	assert.Contains(t, out, `id="keep"`)
	assert.NotContains(t, out, "commented")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<style")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "color:red")
}

func TestScan_IgnoresInertControls(t *testing.T) {
	schema, err := New(DefaultConfig()).Scan("https://example.nl", "", `<html><body>
	<form>
		<template><input id="tpl"></template>
		<!-- <input id="old"> -->
		<input id="live">
	</form>
</body></html>`)
	require.NoError(t, err)

	require.Len(t, schema.Fields, 1)
	assert.Equal(t, "live", schema.Fields[0].ID)
}
