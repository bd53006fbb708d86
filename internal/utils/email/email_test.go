package email

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/cashflow-service/internal/config"
	"github.com/Dan9191/cashflow-service/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		SMTPHost:     "smtp.example.com",
		SMTPPort:     "587",
		SenderEmail:  "alerts@example.com",
		AlertEmailTo: "cfo@example.com, ops@example.com",
	}
}

func redJob() *models.Job {
	return &models.Job{
		ID:       "job-1",
		Filename: "cash.csv",
		Diagnosis: &models.Diagnosis{
			Metrics: models.Metrics{CashBalance: 40000, MonthlyBurn: 20000, Runway: 2},
			Alerts: []models.Alert{
				{ID: "low_runway", Severity: models.SeverityRed, Title: "Critical runway", Description: "2.0 months left", Recommendation: "Cut costs"},
				{ID: "high_burn", Severity: models.SeverityYellow, Title: "High burn"},
			},
		},
	}
}

func TestSendAlertDigest(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewSender(testConfig(), logger)

	var sent *email.Email
	var sentAddr string
	s.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		sent, sentAddr = e, addr
		return nil
	}

	require.NoError(t, s.SendAlertDigest(redJob()))
	require.NotNil(t, sent)
	assert.Equal(t, "smtp.example.com:587", sentAddr)
	assert.Equal(t, []string{"cfo@example.com", "ops@example.com"}, sent.To)
	assert.Equal(t, "Cash-flow alert: 1 critical finding(s) in cash.csv", sent.Subject)
	assert.Contains(t, string(sent.Text), "Critical runway: 2.0 months left")
	assert.NotContains(t, string(sent.Text), "High burn")
}

func TestSendAlertDigest_SkipsWithoutRedAlerts(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewSender(testConfig(), logger)
	s.send = func(*email.Email, string, smtp.Auth) error {
		t.Fatal("unexpected send")
		return nil
	}

	job := redJob()
	job.Diagnosis.Alerts = job.Diagnosis.Alerts[1:]
	assert.NoError(t, s.SendAlertDigest(job))
	assert.NoError(t, s.SendAlertDigest(&models.Job{ID: "job-2"}))
}

func TestSendAlertDigest_Failure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewSender(testConfig(), logger)
	s.send = func(*email.Email, string, smtp.Auth) error { return errors.New("connection refused") }

	err := s.SendAlertDigest(redJob())
	assert.Error(t, err)
	assert.Len(t, hook.Entries, 1)
}
