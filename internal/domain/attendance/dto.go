package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

// MarkAttendanceRequest lets an administrator create or correct an employee's day.
type MarkAttendanceRequest struct {
	EmployeeID    string           `json:"employee_id"`
	Date          string           `json:"date"` // YYYY-MM-DD
	Status        string           `json:"status"`
	OvertimeHours *decimal.Decimal `json:"overtime_hours,omitempty"`
	LateMinutes   *int             `json:"late_minutes,omitempty"`
	Reason        string           `json:"reason"`

	// Parsed by Validate
	ParsedDate   time.Time `json:"-"`
	ParsedStatus Status    `json:"-"`
}

func (r *MarkAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if date, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	} else {
		r.ParsedDate = date
	}

	if status, ok := ParseStatus(r.Status); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: Present, Absent, Leave, Half Day, Unpaid Leave",
		})
	} else {
		r.ParsedStatus = status
	}

	if r.OvertimeHours != nil && r.OvertimeHours.IsNegative() {
		errs = append(errs, validator.ValidationError{
			Field:   "overtime_hours",
			Message: "overtime_hours must be non-negative",
		})
	}

	if r.LateMinutes != nil && *r.LateMinutes < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "late_minutes",
			Message: "late_minutes must be non-negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type LockMonthRequest struct {
	Month string `json:"month"` // YYYY-MM

	ParsedMonth time.Time `json:"-"`
}

func (r *LockMonthRequest) Validate() error {
	var errs validator.ValidationErrors

	if month, ok := validator.IsValidMonth(r.Month); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be in YYYY-MM format",
		})
	} else {
		r.ParsedMonth = month
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type AttendanceResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	EmployeeName    string          `json:"employee_name,omitempty"`
	Date            string          `json:"date"`
	Status          string          `json:"status"`
	StatusColor     string          `json:"status_color"`
	StatusTextColor string          `json:"status_text_color"`
	ClockInTime     *string         `json:"clock_in_time,omitempty"`
	ClockOutTime    *string         `json:"clock_out_time,omitempty"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours"`
	LateMinutes     int             `json:"late_minutes"`
	IsLocked        bool            `json:"is_locked"`
	EditReason      *string         `json:"edit_reason,omitempty"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

type ListAttendanceResponse struct {
	Month       string               `json:"month"`
	TotalCount  int                  `json:"total_count"`
	Attendances []AttendanceResponse `json:"attendances"`
}

type MonthlySummaryResponse struct {
	EmployeeID  string         `json:"employee_id"`
	Month       string         `json:"month"`
	WorkingDays int            `json:"working_days"`
	Summary     MonthlySummary `json:"summary"`
}

type WorkingDaysResponse struct {
	Month           string   `json:"month"`
	ExcludeWeekdays []string `json:"exclude_weekdays"`
	WorkingDays     int      `json:"working_days"`
}

type LockMonthResponse struct {
	Month  string `json:"month"`
	Locked int64  `json:"locked"`
}

// ParseMonth parses a "YYYY-MM" query value.
func ParseMonth(s string) (time.Time, error) {
	month, ok := validator.IsValidMonth(s)
	if !ok {
		return time.Time{}, ErrInvalidMonth
	}
	return month, nil
}

// ParseWeekdays parses a comma separated list of weekday indexes (0 = Sunday).
// An empty string yields nil so the caller falls back to the default exclusion.
func ParseWeekdays(s string) ([]time.Weekday, error) {
	if validator.IsEmpty(s) {
		return nil, nil
	}

	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			return nil, validator.ValidationErrors{{
				Field:   "exclude",
				Message: fmt.Sprintf("invalid weekday %q: must be 0-6", part),
			}}
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}
