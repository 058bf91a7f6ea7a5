package userinteraction

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskQuestion(t *testing.T) {
	var out bytes.Buffer
	u := New(strings.NewReader("  Jan \n\nlast"), &out)

	got, err := u.AskQuestion(context.Background(), "first_name?")
	require.NoError(t, err)
	assert.Equal(t, "Jan", got)
	assert.Contains(t, out.String(), "first_name?")

	got, err = u.AskQuestion(context.Background(), "skip?")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = u.AskQuestion(context.Background(), "no newline?")
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	_, err = u.AskQuestion(context.Background(), "eof?")
	assert.Error(t, err)
}

func TestAskQuestion_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(strings.NewReader("x\n"), &bytes.Buffer{}).AskQuestion(ctx, "q")
	assert.ErrorIs(t, err, context.Canceled)
}
