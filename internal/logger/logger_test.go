package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New("info", "json", path)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("transfer approved", zap.String("transfer", "T1"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"transfer":"T1"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewRejectsBadSettings(t *testing.T) {
	_, err := New("loud", "json", "")
	assert.Error(t, err)

	_, err = New("info", "xml", "")
	assert.Error(t, err)
}
