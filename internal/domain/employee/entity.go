package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee holds the salary parameters payroll is generated from.
type Employee struct {
	ID               string
	UserID           *string
	OutletID         string
	EmployeeCode     string
	FullName         string
	Position         string
	HireDate         time.Time
	EmploymentStatus EmploymentStatus
	BaseSalary       decimal.Decimal
	OvertimeRate     decimal.Decimal // per hour
	LatePenaltyRate  decimal.Decimal // per minute
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

func (e *Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive && e.DeletedAt == nil
}

// OvertimeRateOr returns the employee's overtime rate, or fallback when none is set.
func (e *Employee) OvertimeRateOr(fallback decimal.Decimal) decimal.Decimal {
	if e.OvertimeRate.IsPositive() {
		return e.OvertimeRate
	}
	return fallback
}

// LatePenaltyRateOr returns the employee's late penalty rate, or fallback when none is set.
func (e *Employee) LatePenaltyRateOr(fallback decimal.Decimal) decimal.Decimal {
	if e.LatePenaltyRate.IsPositive() {
		return e.LatePenaltyRate
	}
	return fallback
}
