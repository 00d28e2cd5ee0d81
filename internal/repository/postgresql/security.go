package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/security"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type sessionRepository struct {
	db *database.DB
}

// NewSessionRepository stores login sessions used as the baseline for risk scoring
func NewSessionRepository(db *database.DB) security.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) GetLatestByUser(ctx context.Context, userID string) (*security.LoginSession, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, user_id, ip_address, user_agent, country, city, latitude, longitude, logged_in_at
		FROM login_sessions
		WHERE user_id = $1
		ORDER BY logged_in_at DESC
		LIMIT 1
	`

	var s security.LoginSession
	err := q.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.IPAddress, &s.UserAgent, &s.Country, &s.City,
		&s.Latitude, &s.Longitude, &s.LoggedInAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest login session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepository) Create(ctx context.Context, s security.LoginSession) (security.LoginSession, error) {
	q := GetQuerier(ctx, r.db)

	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	query := `
		INSERT INTO login_sessions (id, user_id, ip_address, user_agent, country, city, latitude, longitude, logged_in_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		s.ID, s.UserID, s.IPAddress, s.UserAgent, s.Country, s.City,
		s.Latitude, s.Longitude, s.LoggedInAt,
	)
	if err != nil {
		return security.LoginSession{}, fmt.Errorf("failed to create login session: %w", err)
	}
	return s, nil
}

type alertRepository struct {
	db *database.DB
}

// NewAlertRepository creates a new security alert repository
func NewAlertRepository(db *database.DB) security.AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, a security.Alert) (security.Alert, error) {
	q := GetQuerier(ctx, r.db)

	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	query := `
		INSERT INTO security_alerts (
			id, user_id, session_id, level, reason, distance_km, speed_kmh,
			country, city, previous_country, previous_city, ip_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`

	err := q.QueryRow(ctx, query,
		a.ID, a.UserID, nullIfEmpty(a.SessionID), a.Level, a.Reason, a.DistanceKm, a.SpeedKmh,
		a.Country, a.City, a.PreviousCountry, a.PreviousCity, a.IPAddress,
	).Scan(&a.CreatedAt)
	if err != nil {
		return security.Alert{}, fmt.Errorf("failed to create security alert: %w", err)
	}
	return a, nil
}

func (r *alertRepository) List(ctx context.Context, filter security.AlertFilter) ([]security.Alert, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := `
		FROM security_alerts sa
		LEFT JOIN users u ON u.id = sa.user_id
		LEFT JOIN login_sessions ls ON ls.id = sa.session_id
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.Level != nil {
		baseQuery += fmt.Sprintf(" AND sa.level = $%d", argIdx)
		args = append(args, string(*filter.Level))
		argIdx++
	}
	if filter.UserID != nil {
		baseQuery += fmt.Sprintf(" AND sa.user_id = $%d", argIdx)
		args = append(args, *filter.UserID)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count security alerts: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	if offset < 0 {
		offset = 0
	}
	selectQuery := fmt.Sprintf(`
		SELECT sa.id, sa.user_id, COALESCE(sa.session_id::text, ''), sa.level, sa.reason, sa.distance_km, sa.speed_kmh,
			   sa.country, sa.city, sa.previous_country, sa.previous_city, sa.ip_address,
			   sa.notified_at, sa.created_at, u.email, COALESCE(ls.logged_in_at, sa.created_at)
		%s
		ORDER BY sa.created_at DESC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list security alerts: %w", err)
	}
	defer rows.Close()

	var alerts []security.Alert
	for rows.Next() {
		var a security.Alert
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.SessionID, &a.Level, &a.Reason, &a.DistanceKm, &a.SpeedKmh,
			&a.Country, &a.City, &a.PreviousCountry, &a.PreviousCity, &a.IPAddress,
			&a.NotifiedAt, &a.CreatedAt, &a.UserEmail, &a.LoggedInAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan security alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

func (r *alertRepository) MarkNotified(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `UPDATE security_alerts SET notified_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark alert notified: %w", err)
	}
	return nil
}
