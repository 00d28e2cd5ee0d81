package payroll

import (
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== PREVIEW DTOs ==========

// PreviewPayrollRequest is an engine input supplied directly by the caller.
type PreviewPayrollRequest struct {
	Input
}

type PreviewPayrollResponse struct {
	Input     Input     `json:"input"`
	Breakdown Breakdown `json:"breakdown"`
}

// ========== PAYROLL RECORD DTOs ==========

// GeneratePayrollRequest computes a draft for one employee and one month.
// Attendance figures come from stored records; add-ons come from the request.
type GeneratePayrollRequest struct {
	EmployeeID      string           `json:"employee_id"`
	Period          string           `json:"period"` // YYYY-MM
	Incentives      *decimal.Decimal `json:"incentives,omitempty"`
	Bonus           *decimal.Decimal `json:"bonus,omitempty"`
	Allowances      *decimal.Decimal `json:"allowances,omitempty"`
	Advances        *decimal.Decimal `json:"advances,omitempty"`
	OtherDeductions *decimal.Decimal `json:"other_deductions,omitempty"`
	Notes           *string          `json:"notes,omitempty"`

	ParsedPeriod time.Time `json:"-"`
}

func (r *GeneratePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}

	if period, ok := validator.IsValidMonth(r.Period); !ok {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "period must be in YYYY-MM format"})
	} else {
		r.ParsedPeriod = period
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type FinalizePayrollRequest struct {
	RecordIDs []string `json:"record_ids"`
}

func (r *FinalizePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.RecordIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "record_ids", Message: "at least one record is required"})
	}
	for _, id := range r.RecordIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{Field: "record_ids", Message: "record ids must not be empty"})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type FinalizePayrollResponse struct {
	Finalized int64 `json:"finalized"`
}

type PayrollRecordResponse struct {
	ID               string          `json:"id"`
	EmployeeID       string          `json:"employee_id"`
	EmployeeName     string          `json:"employee_name"`
	Position         *string         `json:"position,omitempty"`
	Period           string          `json:"period"`
	TotalWorkingDays int             `json:"total_working_days"`
	PresentDays      int             `json:"present_days"`
	LeaveDays        int             `json:"leave_days"`
	HalfDays         int             `json:"half_days"`
	UnpaidLeaveDays  decimal.Decimal `json:"unpaid_leave_days"`
	OvertimeHours    decimal.Decimal `json:"overtime_hours"`
	OvertimeRate     decimal.Decimal `json:"overtime_rate"`
	LateMinutes      int             `json:"late_minutes"`
	LatePenaltyRate  decimal.Decimal `json:"late_penalty_rate"`
	Breakdown        Breakdown       `json:"breakdown"`
	Status           string          `json:"status"`
	PaidAt           *string         `json:"paid_at,omitempty"`
	Notes            *string         `json:"notes,omitempty"`
	UpdatedAt        string          `json:"updated_at"`
}

type PayrollFilter struct {
	Period     *time.Time `json:"period,omitempty"`
	Status     *string    `json:"status,omitempty"`
	EmployeeID *string    `json:"employee_id,omitempty"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
}

// Normalize clamps paging to sane defaults.
func (f *PayrollFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 500 {
		f.Limit = 50
	}
}

type ListPayrollRecordResponse struct {
	Data       []PayrollRecordResponse `json:"data"`
	TotalCount int64                   `json:"total_count"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
}

type ExportPayrollResponse struct {
	Period   string `json:"period"`
	Records  int    `json:"records"`
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

// ParsePeriod parses a "YYYY-MM" query value.
func ParsePeriod(s string) (time.Time, error) {
	period, ok := validator.IsValidMonth(s)
	if !ok {
		return time.Time{}, ErrInvalidPeriod
	}
	return period, nil
}
