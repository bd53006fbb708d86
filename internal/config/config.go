package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	Port           string
	DBConn         string
	LogLevel       string
	MaxUploadBytes int64

	GeminiAPIKey string
	GeminiModel  string
	LLMTimeout   time.Duration

	JobTTL           time.Duration
	JobSweepSchedule string
	ChatHistoryLimit int
	ChatSessionTTL   time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	AlertEmailTo string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBConn:           getEnv("DB_CONN", ""),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		JobSweepSchedule: getEnv("JOB_SWEEP_SCHEDULE", "@every 10m"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SenderEmail:      getEnv("SENDER_EMAIL", ""),
		AlertEmailTo:     getEnv("ALERT_EMAIL_TO", ""),
	}

	var err error
	if cfg.MaxUploadBytes, err = getEnvAsInt64("MAX_UPLOAD_BYTES", 10<<20); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = getEnvAsDuration("LLM_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.JobTTL, err = getEnvAsDuration("JOB_TTL", 0); err != nil {
		return nil, err
	}
	if cfg.ChatSessionTTL, err = getEnvAsDuration("CHAT_SESSION_TTL", 0); err != nil {
		return nil, err
	}
	limit, err := getEnvAsInt64("CHAT_HISTORY_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	cfg.ChatHistoryLimit = int(limit)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if c.JobTTL < 0 || c.ChatSessionTTL < 0 {
		return fmt.Errorf("JOB_TTL and CHAT_SESSION_TTL must not be negative")
	}
	if c.ChatHistoryLimit <= 0 {
		return fmt.Errorf("CHAT_HISTORY_LIMIT must be positive")
	}
	if c.SweepEnabled() {
		if _, err := cron.ParseStandard(c.JobSweepSchedule); err != nil {
			return fmt.Errorf("invalid JOB_SWEEP_SCHEDULE %q: %w", c.JobSweepSchedule, err)
		}
	}
	if c.AlertEmailTo != "" && (c.SMTPHost == "" || c.SenderEmail == "") {
		return fmt.Errorf("ALERT_EMAIL_TO requires SMTP_HOST and SENDER_EMAIL")
	}
	return nil
}

// SweepEnabled reports whether any TTL eviction is configured
func (c *Config) SweepEnabled() bool {
	return c.JobTTL > 0 || c.ChatSessionTTL > 0
}

// MailEnabled reports whether alert digests should be sent
func (c *Config) MailEnabled() bool {
	return c.AlertEmailTo != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) (int64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvAsDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
