package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbridge/internal/domain/privacy"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "proposal.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadProposal(t *testing.T) {
	got, err := readProposal(writeFile(t, `{"voornaam":"FIRST_NAME","iban":"{{IBAN}}"}`))
	require.NoError(t, err)
	assert.Equal(t, privacy.TokenFill{
		"voornaam": privacy.TokenFirstName,
		"iban":     privacy.TokenIBAN,
	}, got)
}

func TestReadProposal_RejectsLiterals(t *testing.T) {
	_, err := readProposal(writeFile(t, `{"voornaam":"Jan"}`))
	assert.ErrorContains(t, err, `field "voornaam"`)

	_, err = readProposal(writeFile(t, `[]`))
	assert.ErrorContains(t, err, "decode proposal")

	_, err = readProposal(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read proposal")
}
