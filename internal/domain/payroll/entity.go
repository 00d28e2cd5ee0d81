package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayrollStatus enum
type PayrollStatus string

const (
	PayrollStatusDraft PayrollStatus = "draft"
	PayrollStatusPaid  PayrollStatus = "paid"
)

// PayrollRecord - Generated payroll result for one employee and one month
type PayrollRecord struct {
	ID         string
	EmployeeID string
	OutletID   string
	Period     time.Time // first day of the month

	// Attendance aggregates the breakdown was computed from
	TotalWorkingDays int
	PresentDays      int
	LeaveDays        int
	HalfDays         int
	UnpaidLeaveDays  decimal.Decimal
	OvertimeHours    decimal.Decimal
	LateMinutes      int

	// Rates in effect at generation time
	OvertimeRate    decimal.Decimal
	LatePenaltyRate decimal.Decimal

	Breakdown

	Status    PayrollStatus
	PaidAt    *time.Time
	PaidBy    *string
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined fields
	EmployeeName *string
	Position     *string
}

// IsPaid reports whether the record has been finalized.
func (r PayrollRecord) IsPaid() bool {
	return r.Status == PayrollStatusPaid
}

// Input rebuilds the engine input the record was generated from.
func (r PayrollRecord) Input() Input {
	return Input{
		BaseSalary:       r.BaseSalary,
		TotalWorkingDays: r.TotalWorkingDays,
		PresentDays:      r.PresentDays,
		LeaveDays:        r.LeaveDays,
		HalfDays:         r.HalfDays,
		OvertimeHours:    r.OvertimeHours,
		OvertimeRate:     r.OvertimeRate,
		Incentives:       r.Incentives,
		Bonus:            r.Bonus,
		Allowances:       r.Allowances,
		Advances:         r.Advances,
		OtherDeductions:  r.OtherDeductions,
		LateMinutes:      r.LateMinutes,
		LatePenaltyRate:  r.LatePenaltyRate,
		UnpaidLeaveDays:  r.UnpaidLeaveDays,
	}
}
