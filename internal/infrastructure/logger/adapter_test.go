package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewFromZap(zap.New(core))

	log.WithField("caller", "popup").WithFields(map[string]any{"kind": "PING"}).Info("Message handled", "ms", 3)
	log.Debug("debug line")

	entries := logs.All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "popup", fields["caller"])
	assert.Equal(t, "PING", fields["kind"])
	assert.EqualValues(t, 3, fields["ms"])
	assert.Equal(t, "Message handled", entries[0].Message)
}

func TestNewLoggerAdapter_WritesFile(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLoggerAdapter(Config{Name: "relay test", Level: "debug", Dir: dir})
	require.NoError(t, err)

	log.Info("hello", "k", "v")
	require.NoError(t, log.Close())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0].Name(), "relay_test")
}

func TestNewLoggerAdapter_BadLevel(t *testing.T) {
	_, err := NewLoggerAdapter(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a_b-c", sanitize("a b-c"))
	assert.Equal(t, "formbridge", sanitize(""))
	assert.Len(t, sanitize(string(make([]byte, 100))), 60)
}
