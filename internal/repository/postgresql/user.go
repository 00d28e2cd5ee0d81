package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

// userColumns expects users aliased as u and active employees left-joined as e.
const userColumns = `
	u.id, u.email, u.password_hash, u.role, u.oauth_provider, u.oauth_provider_id,
	u.created_at, u.updated_at, e.id, e.outlet_id`

const userFrom = `
	FROM users u
	LEFT JOIN employees e ON e.user_id = u.id AND e.deleted_at IS NULL`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.OAuthProvider,
		&u.OAuthProviderID,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.EmployeeID,
		&u.OutletID,
	)
	return u, err
}

// GetByEmail implements user.UserRepository.
func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + userFrom + ` WHERE LOWER(u.email) = LOWER($1)`

	u, err := scanUser(q.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// GetByID implements user.UserRepository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + userFrom + ` WHERE u.id = $1`

	u, err := scanUser(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

// ListByRoles implements user.UserRepository.
func (r *userRepositoryImpl) ListByRoles(ctx context.Context, roles ...user.Role) ([]user.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)

	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	query := `SELECT ` + userColumns + userFrom + ` WHERE u.role = ANY($1) ORDER BY u.email`

	rows, err := q.Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// LinkGoogleAccount implements user.UserRepository.
func (r *userRepositoryImpl) LinkGoogleAccount(ctx context.Context, googleID string, email string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH u AS (
			UPDATE users
			SET oauth_provider = 'google', oauth_provider_id = $1, updated_at = NOW()
			WHERE LOWER(email) = LOWER($2)
			RETURNING *
		)
		SELECT ` + userColumns + `
		FROM u
		LEFT JOIN employees e ON e.user_id = u.id AND e.deleted_at IS NULL`

	u, err := scanUser(q.QueryRow(ctx, query, googleID, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return user.User{}, user.ErrOAuthProviderIDExists
		}
		return user.User{}, fmt.Errorf("failed to link google account: %w", err)
	}
	return u, nil
}
