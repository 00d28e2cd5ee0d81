package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// newTestDB connects to TEST_DATABASE_URL, applies the schema and empties every table.
// Tests are skipped when the variable is unset.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	ctx := context.Background()
	schema, err := os.ReadFile(migrationPath())
	require.NoError(t, err)
	_, err = db.Exec(ctx, string(schema))
	require.NoError(t, err)

	require.NoError(t, truncateAll(ctx, db))
	return db
}

func migrationPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "migrations", "0001_init.sql")
}

func truncateAll(ctx context.Context, db *database.DB) error {
	tables := []string{
		"payroll_records",
		"attendances",
		"security_alerts",
		"login_sessions",
		"refresh_tokens",
		"employees",
		"users",
	}
	for _, table := range tables {
		if _, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

func createUser(t *testing.T, db *database.DB, email, role string) string {
	t.Helper()
	var id string
	err := db.QueryRow(context.Background(), `
		INSERT INTO users (email, password_hash, role) VALUES ($1, 'hash', $2) RETURNING id
	`, email, role).Scan(&id)
	require.NoError(t, err)
	return id
}

func createEmployee(t *testing.T, db *database.DB, userID *string, outletID, code string, baseSalary string) string {
	t.Helper()
	var id string
	err := db.QueryRow(context.Background(), `
		INSERT INTO employees (user_id, outlet_id, employee_code, full_name, position, hire_date, base_salary)
		VALUES ($1, $2, $3, $4, 'Barista', '2025-01-01', $5)
		RETURNING id
	`, userID, outletID, code, "Employee "+code, baseSalary).Scan(&id)
	require.NoError(t, err)
	return id
}
