package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "verbose"})

	assert.Error(t, err)
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	logger, err := New(Options{Level: "info", File: path})
	require.NoError(t, err)

	logger.Info("hello from test")
	logger.Debug("filtered out")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
	assert.NotContains(t, string(data), "filtered out")
}

func TestNew_Development(t *testing.T) {
	logger, err := New(Options{Level: "debug", Development: true})

	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))
}
