package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pathbuilder.log")

	logger, err := New("production", path)
	require.NoError(t, err)

	logger.Info("route saved")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "route saved")
}

func TestNewWithoutFile(t *testing.T) {
	logger, err := New("development", "")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
