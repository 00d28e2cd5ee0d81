package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	id, user_id, outlet_id, employee_code, full_name, position, hire_date, employment_status,
	base_salary, overtime_rate, late_penalty_rate, created_at, updated_at, deleted_at`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.UserID, &emp.OutletID, &emp.EmployeeCode, &emp.FullName, &emp.Position,
		&emp.HireDate, &emp.EmploymentStatus,
		&emp.BaseSalary, &emp.OvertimeRate, &emp.LatePenaltyRate,
		&emp.CreatedAt, &emp.UpdatedAt, &emp.DeletedAt,
	)
	return emp, err
}

// GetByID implements employee.EmployeeRepository. An empty outletID searches every outlet.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string, outletID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE id = $1
		  AND ($2::text IS NULL OR outlet_id = $2)
		  AND deleted_at IS NULL
	`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id, nullIfEmpty(outletID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by id: %w", err)
	}
	return emp, nil
}

// GetByUserID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE user_id = $1 AND deleted_at IS NULL
	`

	emp, err := scanEmployee(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by user id: %w", err)
	}
	return emp, nil
}

// ListActiveByOutlet implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActiveByOutlet(ctx context.Context, outletID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE ($1::text IS NULL OR outlet_id = $1)
		  AND employment_status = $2
		  AND deleted_at IS NULL
		ORDER BY full_name
	`

	rows, err := q.Query(ctx, query, nullIfEmpty(outletID), employee.EmploymentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}
