package security

import "context"

type SessionRepository interface {
	// GetLatestByUser returns the most recent session of userID, or nil, nil when there is none.
	GetLatestByUser(ctx context.Context, userID string) (*LoginSession, error)
	Create(ctx context.Context, session LoginSession) (LoginSession, error)
}

type AlertRepository interface {
	Create(ctx context.Context, alert Alert) (Alert, error)
	List(ctx context.Context, filter AlertFilter) ([]Alert, int64, error)
	MarkNotified(ctx context.Context, id string) error
}
