package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Config{
		Port:            8080,
		LogLevel:        "info",
		LogFormat:       "json",
		SendBuffer:      64,
		ReadLimit:       4096,
		PongWait:        60 * time.Second,
		WriteWait:       10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		NATSSubject:     "chess.sessions",
	}, cfg)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("PONG_WAIT", "30s")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.PongWait)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SEND_BUFFER=8\nLOG_FORMAT=console\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SEND_BUFFER")
		os.Unsetenv("LOG_FORMAT")
	})

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.SendBuffer)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value, field string
	}{
		{"PORT", "70000", "Port"},
		{"LOG_FORMAT", "xml", "LogFormat"},
		{"SEND_BUFFER", "0", "SendBuffer"},
		{"READ_LIMIT", "1", "ReadLimit"},
		{"WRITE_WAIT", "0s", "WriteWait"},
		{"NATS_URL", "not a url", "NATSURL"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field())
		})
	}

	t.Run("not a number", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		_, err := Load()
		require.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger("warn", "json")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = NewLogger("loud", "json")
	require.Error(t, err)
	_, err = NewLogger("info", "xml")
	require.Error(t, err)
}
