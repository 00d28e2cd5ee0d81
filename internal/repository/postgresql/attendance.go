package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// attendanceColumns expects attendances aliased as a and employees left-joined as e.
const attendanceColumns = `
	a.id, a.employee_id, a.outlet_id, a.date, a.status, a.clock_in, a.clock_out,
	a.overtime_hours, a.late_minutes, a.is_locked, a.edit_reason, a.updated_by,
	a.created_at, a.updated_at, e.full_name`

const attendanceFrom = `
	FROM attendances a
	LEFT JOIN employees e ON e.id = a.employee_id`

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.OutletID, &att.Date, &att.Status, &att.ClockIn, &att.ClockOut,
		&att.OvertimeHours, &att.LateMinutes, &att.IsLocked, &att.EditReason, &att.UpdatedBy,
		&att.CreatedAt, &att.UpdatedAt, &att.EmployeeName,
	)
	return att, err
}

func collectAttendances(rows pgx.Rows) ([]attendance.Attendance, error) {
	defer rows.Close()

	var list []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		list = append(list, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendances: %w", err)
	}
	return list, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (
			employee_id, outlet_id, date, status, clock_in, clock_out,
			overtime_hours, late_minutes, is_locked, edit_reason, updated_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		newAttendance.EmployeeID,
		newAttendance.OutletID,
		newAttendance.Date,
		newAttendance.Status,
		newAttendance.ClockIn,
		newAttendance.ClockOut,
		newAttendance.OvertimeHours,
		newAttendance.LateMinutes,
		newAttendance.IsLocked,
		newAttendance.EditReason,
		newAttendance.UpdatedBy,
	).Scan(&newAttendance.ID, &newAttendance.CreatedAt, &newAttendance.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrAlreadyClockedIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return newAttendance, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string, outletID string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + attendanceFrom + `
		WHERE a.id = $1 AND ($2::text IS NULL OR a.outlet_id = $2)`

	att, err := scanAttendance(q.QueryRow(ctx, query, id, nullIfEmpty(outletID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by ID: %w", err)
	}
	return att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, outletID string) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + attendanceFrom + `
		WHERE a.employee_id = $1
		  AND a.date = $2
		  AND ($3::text IS NULL OR a.outlet_id = $3)
		LIMIT 1`

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date, nullIfEmpty(outletID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}
	return &att, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, att attendance.Attendance) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET status = $1, clock_in = $2, clock_out = $3, overtime_hours = $4, late_minutes = $5,
		    is_locked = $6, edit_reason = $7, updated_by = $8, updated_at = NOW()
		WHERE id = $9
	`

	tag, err := q.Exec(ctx, query,
		att.Status, att.ClockIn, att.ClockOut, att.OvertimeHours, att.LateMinutes,
		att.IsLocked, att.EditReason, att.UpdatedBy, att.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// Delete implements attendance.AttendanceRepository.
func (a *attendanceRepository) Delete(ctx context.Context, id string, outletID string) error {
	q := GetQuerier(ctx, a.db)

	query := `DELETE FROM attendances WHERE id = $1 AND ($2::text IS NULL OR outlet_id = $2)`

	tag, err := q.Exec(ctx, query, id, nullIfEmpty(outletID))
	if err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// ListByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, outletID string, start, end time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + attendanceFrom + `
		WHERE a.employee_id = $1
		  AND ($2::text IS NULL OR a.outlet_id = $2)
		  AND a.date >= $3 AND a.date < $4
		ORDER BY a.date`

	rows, err := q.Query(ctx, query, employeeID, nullIfEmpty(outletID), start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return collectAttendances(rows)
}

// GetOpenSession implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetOpenSession(ctx context.Context, employeeID string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + attendanceFrom + `
		WHERE a.employee_id = $1
		  AND a.clock_in IS NOT NULL
		  AND a.clock_out IS NULL
		ORDER BY a.clock_in DESC
		LIMIT 1`

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get open session: %w", err)
	}
	return att, nil
}

// ListOpenBefore implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListOpenBefore(ctx context.Context, date time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + attendanceFrom + `
		WHERE a.clock_in IS NOT NULL
		  AND a.clock_out IS NULL
		  AND a.date < $1
		ORDER BY a.date`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}
	return collectAttendances(rows)
}

// LockRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) LockRange(ctx context.Context, outletID string, start, end time.Time) (int64, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET is_locked = TRUE, updated_at = NOW()
		WHERE ($1::text IS NULL OR outlet_id = $1)
		  AND date >= $2 AND date < $3
		  AND is_locked = FALSE
	`

	tag, err := q.Exec(ctx, query, nullIfEmpty(outletID), start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to lock attendance: %w", err)
	}
	return tag.RowsAffected(), nil
}
