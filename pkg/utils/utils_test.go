package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"finance", []string{"finance"}},
		{" finance , manager ,,finance", []string{"finance", "manager"}},
		{"a\x00b, c", []string{"ab", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.input))
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := NewLogger(LoggerConfig{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("writes json to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "app.log")
		logger, err := NewLogger(LoggerConfig{Level: "info", OutputPath: path, Format: "json", Service: "approval"})
		require.NoError(t, err)

		logger.Info("hello")
		_ = logger.Sync()

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"msg":"hello"`)
		assert.Contains(t, string(content), `"service":"approval"`)
		assert.Contains(t, string(content), `"timestamp"`)
	})
}
