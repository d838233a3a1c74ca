package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		level string
		env   string
		want  bool
	}{
		{name: "debug in development", level: "debug", env: "development", want: true},
		{name: "info hides debug", level: "info", env: "production", want: false},
		{name: "unknown level falls back to info", level: "loud", env: "test", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.level, tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, log.Core().Enabled(zap.DebugLevel))
			assert.True(t, log.Core().Enabled(zap.ErrorLevel))
		})
	}
}
