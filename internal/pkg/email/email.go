package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// EmailService defines the interface for sending emails
type EmailService interface {
	SendSecurityAlert(to string, alert SecurityAlertEmail) error
}

// SecurityAlertEmail is the content of a high-risk login notice.
type SecurityAlertEmail struct {
	UserEmail       string
	Reason          string
	Country         string
	City            string
	PreviousCountry string
	PreviousCity    string
	DistanceKm      *float64
	SpeedKmh        *float64
	IPAddress       string
	LoggedInAt      time.Time
	DashboardLink   string
}

type securityAlertTemplateData struct {
	SecurityAlertEmail
	Distance   string
	Speed      string
	LoggedInAt string
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type emailServiceImpl struct {
	cfg       config.SMTPConfig
	templates *template.Template
	send      sendFunc
	backoff   time.Duration
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg config.SMTPConfig) (EmailService, error) {
	return newEmailService(cfg, smtp.SendMail, time.Second)
}

func newEmailService(cfg config.SMTPConfig, send sendFunc, backoff time.Duration) (*emailServiceImpl, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &emailServiceImpl{
		cfg:       cfg,
		templates: tmpl,
		send:      send,
		backoff:   backoff,
	}, nil
}

// SendSecurityAlert notifies an administrator about a high-risk login
func (s *emailServiceImpl) SendSecurityAlert(to string, alert SecurityAlertEmail) error {
	data := securityAlertTemplateData{
		SecurityAlertEmail: alert,
		LoggedInAt:         alert.LoggedInAt.UTC().Format("02 Jan 2006 15:04 MST"),
	}
	if alert.DistanceKm != nil {
		data.Distance = fmt.Sprintf("%.0f", *alert.DistanceKm)
	}
	if alert.SpeedKmh != nil {
		data.Speed = fmt.Sprintf("%.0f", *alert.SpeedKmh)
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "security_alert.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return s.sendHTML(to, fmt.Sprintf("[Security] Suspicious login for %s", alert.UserEmail), body.String())
}

func (s *emailServiceImpl) sendHTML(to, subject, htmlBody string) error {
	// Skip sending if SMTP is not configured
	if s.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	from := s.cfg.From

	headers := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, from)
	headers += fmt.Sprintf("To: %s\r\n", to)
	headers += fmt.Sprintf("Subject: %s\r\n", subject)
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	headers += "\r\n"

	message := []byte(headers + htmlBody)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := s.send(addr, auth, from, []string{to}, message)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// Exponential backoff: 1x, 2x
		if attempt < maxRetries {
			time.Sleep(s.backoff << (attempt - 1))
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
