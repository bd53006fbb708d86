package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_CONN", "GEMINI_API_KEY", "JOB_TTL", "LLM_TIMEOUT", "MAX_UPLOAD_BYTES", "CHAT_HISTORY_LIMIT", "ALERT_EMAIL_TO"} {
		t.Setenv(key, "")
	}
	t.Setenv("PORT", "8080")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DBConn)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 10, cfg.ChatHistoryLimit)
	assert.Zero(t, cfg.JobTTL)
	assert.False(t, cfg.SweepEnabled())
	assert.False(t, cfg.MailEnabled())
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JOB_TTL", "24h")
	t.Setenv("JOB_SWEEP_SCHEDULE", "*/5 * * * *")
	t.Setenv("CHAT_HISTORY_LIMIT", "4")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JobTTL)
	assert.True(t, cfg.SweepEnabled())
	assert.Equal(t, 4, cfg.ChatHistoryLimit)
	assert.Equal(t, int64(2048), cfg.MaxUploadBytes)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"bad duration":      {"LLM_TIMEOUT", "soon"},
		"zero timeout":      {"LLM_TIMEOUT", "0s"},
		"bad int":           {"MAX_UPLOAD_BYTES", "ten"},
		"negative ttl":      {"JOB_TTL", "-1h"},
		"zero history":      {"CHAT_HISTORY_LIMIT", "0"},
		"mail without smtp": {"ALERT_EMAIL_TO", "ops@example.com"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("SMTP_HOST", "")
			t.Setenv(kv[0], kv[1])
			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}

func TestNewConfig_InvalidSchedule(t *testing.T) {
	t.Setenv("JOB_TTL", "1h")
	t.Setenv("JOB_SWEEP_SCHEDULE", "every now and then")
	_, err := NewConfig()
	assert.Error(t, err)
}
