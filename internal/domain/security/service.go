package security

import "context"

// Service scores logins and exposes the resulting alerts.
type Service interface {
	// AssessLogin scores attempt against the user's previous session, stores the
	// session and the alert, and queues admin notification when the risk is high.
	AssessLogin(ctx context.Context, attempt LoginAttempt) (RiskAssessment, error)

	ListAlerts(ctx context.Context, filter AlertFilter) (ListAlertsResponse, error)

	// Subscribe streams alert events to an administrator
	Subscribe(ctx context.Context, userID string) (<-chan AlertEvent, func())

	// Stop drains queued notifications
	Stop()
}
