package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/config"
	"github.com/Dan9191/cashflow-service/internal/models"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendAlertDigest emails the red alerts of a diagnosed job to ALERT_EMAIL_TO.
// Jobs without red alerts are skipped.
func (s *Sender) SendAlertDigest(job *models.Job) error {
	if job.Diagnosis == nil || !job.Diagnosis.HasRedAlert() {
		return nil
	}

	e := s.buildDigest(job)
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send alert digest for job %s: %v", job.ID, err)
		return fmt.Errorf("failed to send alert digest: %w", err)
	}

	s.logger.Infof("Alert digest sent to %s: %s", s.cfg.AlertEmailTo, e.Subject)
	return nil
}

func (s *Sender) buildDigest(job *models.Job) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = strings.Split(s.cfg.AlertEmailTo, ",")
	for i := range e.To {
		e.To[i] = strings.TrimSpace(e.To[i])
	}

	var red []models.Alert
	for _, a := range job.Diagnosis.Alerts {
		if a.Severity == models.SeverityRed {
			red = append(red, a)
		}
	}
	e.Subject = fmt.Sprintf("Cash-flow alert: %d critical finding(s) in %s", len(red), job.Filename)

	m := job.Diagnosis.Metrics
	body := fmt.Sprintf("Analysis of %s (job %s) raised critical alerts.\n\n", job.Filename, job.ID)
	body += fmt.Sprintf(
		"Cash balance: %.0f\n"+
			"Monthly burn: %.0f\n"+
			"Runway: %.1f months\n\n",
		m.CashBalance, m.MonthlyBurn, m.Runway,
	)
	for _, a := range red {
		body += fmt.Sprintf("- %s: %s\n  Recommendation: %s\n", a.Title, a.Description, a.Recommendation)
	}
	body += "\nOpen the recommendations for this job to review the suggested plans."
	e.Text = []byte(body)
	return e
}
