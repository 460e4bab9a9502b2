package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := New(Options{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("writes to rotating file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "app.log")
		l, err := New(Options{Level: "debug", File: file})
		require.NoError(t, err)
		l.Info("hello")
		assert.FileExists(t, file)
	})
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
