package security

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/config"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/security"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/sse"
)

const alertEventName = "security_alert"

// Config holds security service configuration
type Config struct {
	MaxSpeedKmh float64 // default: security.ImpossibleTravelSpeedKmh
	WorkerCount int     // default: 2
	QueueSize   int     // default: 256

	// DashboardURL is the back-office base URL; alert emails link to
	// DashboardURL + "/security/alerts".
	DashboardURL string
}

// ConfigFrom maps the application config onto the security service.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		MaxSpeedKmh:  cfg.Security.ImpossibleTravelSpeedKmh,
		WorkerCount:  cfg.Security.AlertWorkerCount,
		QueueSize:    cfg.Security.AlertQueueSize,
		DashboardURL: cfg.App.FrontendURL,
	}
}

type service struct {
	sessions security.SessionRepository
	alerts   security.AlertRepository
	users    user.UserRepository
	mailer   email.EmailService
	hub      *sse.Hub
	config   Config
	now      func() time.Time

	queue    chan security.Alert
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSecurityService creates the login risk service and starts its notification workers
func NewSecurityService(
	sessions security.SessionRepository,
	alerts security.AlertRepository,
	users user.UserRepository,
	mailer email.EmailService,
	hub *sse.Hub,
	cfg Config,
) security.Service {
	return newService(sessions, alerts, users, mailer, hub, cfg, time.Now)
}

func newService(
	sessions security.SessionRepository,
	alerts security.AlertRepository,
	users user.UserRepository,
	mailer email.EmailService,
	hub *sse.Hub,
	cfg Config,
	now func() time.Time,
) *service {
	if cfg.MaxSpeedKmh <= 0 {
		cfg.MaxSpeedKmh = security.ImpossibleTravelSpeedKmh
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	s := &service{
		sessions: sessions,
		alerts:   alerts,
		users:    users,
		mailer:   mailer,
		hub:      hub,
		config:   cfg,
		now:      now,
		queue:    make(chan security.Alert, cfg.QueueSize),
		stopCh:   make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("security alert workers started", "workers", cfg.WorkerCount, "queue_size", cfg.QueueSize)
	return s
}

// AssessLogin implements security.Service.
func (s *service) AssessLogin(ctx context.Context, attempt security.LoginAttempt) (security.RiskAssessment, error) {
	if attempt.At.IsZero() {
		attempt.At = s.now()
	}

	previous, err := s.sessions.GetLatestByUser(ctx, attempt.UserID)
	if err != nil {
		return security.RiskAssessment{}, fmt.Errorf("failed to load previous session: %w", err)
	}

	var previousEvent *security.GeoLoginEvent
	if previous != nil {
		ev := previous.Geo()
		previousEvent = &ev
	}
	assessment := security.ScoreLoginWithLimit(previousEvent, attempt.Event(), s.config.MaxSpeedKmh)

	session, err := s.sessions.Create(ctx, security.LoginSession{
		UserID:     attempt.UserID,
		IPAddress:  attempt.IPAddress,
		UserAgent:  attempt.UserAgent,
		Country:    attempt.Location.Country,
		City:       attempt.Location.City,
		Latitude:   attempt.Location.Latitude,
		Longitude:  attempt.Location.Longitude,
		LoggedInAt: attempt.At,
	})
	if err != nil {
		return security.RiskAssessment{}, fmt.Errorf("failed to save login session: %w", err)
	}

	alert := security.Alert{
		UserID:     attempt.UserID,
		SessionID:  session.ID,
		Level:      assessment.Level,
		Reason:     assessment.Reason,
		DistanceKm: assessment.DistanceKm,
		SpeedKmh:   assessment.SpeedKmh,
		Country:    attempt.Location.Country,
		City:       attempt.Location.City,
		IPAddress:  attempt.IPAddress,
		LoggedInAt: attempt.At,
	}
	if previous != nil {
		alert.PreviousCountry = &previous.Country
		alert.PreviousCity = &previous.City
	}

	alert, err = s.alerts.Create(ctx, alert)
	if err != nil {
		return security.RiskAssessment{}, fmt.Errorf("failed to save security alert: %w", err)
	}

	if assessment.IsHigh() {
		slog.Warn("high risk login",
			"user_id", attempt.UserID,
			"reason", assessment.Reason,
			"country", attempt.Location.Country,
			"ip", attempt.IPAddress,
		)
		s.enqueue(alert)
	}

	return assessment, nil
}

// enqueue hands the alert to the workers without blocking the login request
func (s *service) enqueue(alert security.Alert) {
	select {
	case s.queue <- alert:
	default:
		// Queue full, notify on a dedicated goroutine
		slog.Warn("security alert queue full, notifying directly", "alert_id", alert.ID)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.notify(alert)
		}()
	}
}

func (s *service) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case alert := <-s.queue:
			s.notify(alert)
		case <-s.stopCh:
			for {
				select {
				case alert := <-s.queue:
					s.notify(alert)
				default:
					slog.Debug("security alert worker stopped", "worker", id)
					return
				}
			}
		}
	}
}

// notify emails every administrator and pushes the alert to connected ones.
// Failures are logged; the login that raised the alert has already succeeded.
func (s *service) notify(alert security.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admins, err := s.users.ListByRoles(ctx, user.RoleSuperAdmin, user.RoleAdmin)
	if err != nil {
		slog.Error("failed to load administrators for security alert", "alert_id", alert.ID, "error", err)
		return
	}

	subject, err := s.users.GetByID(ctx, alert.UserID)
	if err != nil {
		slog.Error("failed to load user for security alert", "alert_id", alert.ID, "error", err)
	} else {
		alert.UserEmail = &subject.Email
	}

	message := s.emailFor(alert)
	for _, admin := range admins {
		if err := s.mailer.SendSecurityAlert(admin.Email, message); err != nil {
			slog.Error("failed to email security alert", "alert_id", alert.ID, "to", admin.Email, "error", err)
		}
	}

	event := sse.Event{ID: alert.ID, Event: alertEventName, Data: security.ToResponse(alert)}
	for _, admin := range admins {
		s.hub.Publish(admin.ID, event)
	}

	if err := s.alerts.MarkNotified(ctx, alert.ID); err != nil {
		slog.Error("failed to mark security alert notified", "alert_id", alert.ID, "error", err)
	}
}

func (s *service) emailFor(alert security.Alert) email.SecurityAlertEmail {
	msg := email.SecurityAlertEmail{
		Reason:     string(alert.Reason),
		Country:    alert.Country,
		City:       alert.City,
		DistanceKm: alert.DistanceKm,
		SpeedKmh:   alert.SpeedKmh,
		IPAddress:  alert.IPAddress,
		LoggedInAt: alert.LoggedInAt,
	}
	if msg.LoggedInAt.IsZero() {
		msg.LoggedInAt = alert.CreatedAt
	}
	if alert.UserEmail != nil {
		msg.UserEmail = *alert.UserEmail
	} else {
		msg.UserEmail = alert.UserID
	}
	if alert.PreviousCountry != nil {
		msg.PreviousCountry = *alert.PreviousCountry
	}
	if alert.PreviousCity != nil {
		msg.PreviousCity = *alert.PreviousCity
	}
	if s.config.DashboardURL != "" {
		msg.DashboardLink = strings.TrimRight(s.config.DashboardURL, "/") + "/security/alerts"
	}
	return msg
}

// ListAlerts implements security.Service.
func (s *service) ListAlerts(ctx context.Context, filter security.AlertFilter) (security.ListAlertsResponse, error) {
	filter.Normalize()

	alerts, total, err := s.alerts.List(ctx, filter)
	if err != nil {
		return security.ListAlertsResponse{}, fmt.Errorf("failed to list security alerts: %w", err)
	}

	responses := make([]security.AlertResponse, len(alerts))
	for i, a := range alerts {
		responses[i] = security.ToResponse(a)
	}

	return security.ListAlertsResponse{
		Alerts:     responses,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// Subscribe implements security.Service.
func (s *service) Subscribe(ctx context.Context, userID string) (<-chan security.AlertEvent, func()) {
	ch, cleanup := s.hub.Subscribe(userID)

	out := make(chan security.AlertEvent, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				resp, ok := event.Data.(security.AlertResponse)
				if !ok {
					continue
				}
				select {
				case out <- security.AlertEvent{Event: event.Event, Data: resp}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}

// Stop drains queued notifications and stops the workers
func (s *service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		slog.Info("security alert workers stopped")
	})
}
