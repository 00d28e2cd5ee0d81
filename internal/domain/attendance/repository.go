package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// Methods taking outletID scope the query to that outlet.
type AttendanceRepository interface {
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	GetByID(ctx context.Context, id string, outletID string) (Attendance, error)

	// GetByEmployeeAndDate returns nil, nil when no record exists for that day.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, outletID string) (*Attendance, error)

	Update(ctx context.Context, attendance Attendance) error

	Delete(ctx context.Context, id string, outletID string) error

	// ListByEmployee returns records with start <= date < end ordered by date.
	ListByEmployee(ctx context.Context, employeeID string, outletID string, start, end time.Time) ([]Attendance, error)

	// GetOpenSession returns the latest record with a clock-in and no clock-out.
	GetOpenSession(ctx context.Context, employeeID string) (Attendance, error)

	// ListOpenBefore returns records still open whose date is before date, across all outlets.
	ListOpenBefore(ctx context.Context, date time.Time) ([]Attendance, error)

	// LockRange locks every record with start <= date < end. An empty outletID locks all outlets.
	LockRange(ctx context.Context, outletID string, start, end time.Time) (int64, error)
}
