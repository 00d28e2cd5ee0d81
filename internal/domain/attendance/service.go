package attendance

import (
	"context"
	"time"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// ClockIn opens today's record for the authenticated employee
	ClockIn(ctx context.Context) (AttendanceResponse, error)

	// ClockOut closes the open record and computes overtime
	ClockOut(ctx context.Context) (AttendanceResponse, error)

	// MarkAttendance creates or corrects an employee's day (administrative override)
	MarkAttendance(ctx context.Context, req MarkAttendanceRequest) (AttendanceResponse, error)

	// DeleteAttendance removes a record when the deletion policy allows it
	DeleteAttendance(ctx context.Context, id string) error

	// LockMonth locks every record of the caller's outlet for a month
	LockMonth(ctx context.Context, req LockMonthRequest) (LockMonthResponse, error)

	// ListMonth lists an employee's records for a month; empty employeeID means the caller
	ListMonth(ctx context.Context, employeeID string, month time.Time) (ListAttendanceResponse, error)

	// GetMonthlySummary aggregates an employee's month; empty employeeID means the caller
	GetMonthlySummary(ctx context.Context, employeeID string, month time.Time) (MonthlySummaryResponse, error)

	// GetWorkingDays counts working days of a month
	GetWorkingDays(ctx context.Context, month time.Time, exclude []time.Weekday) (WorkingDaysResponse, error)
}
