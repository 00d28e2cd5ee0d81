package payroll

import "errors"

var (
	ErrPayrollRecordNotFound    = errors.New("payroll record not found")
	ErrPayrollRecordAlreadyPaid = errors.New("payroll record already paid, cannot modify")
	ErrInvalidPeriod            = errors.New("period must be in YYYY-MM format")
	ErrEmployeeHasNoBaseSalary  = errors.New("employee has no base salary configured")
	ErrNothingToExport          = errors.New("no payroll records for this period")
)
