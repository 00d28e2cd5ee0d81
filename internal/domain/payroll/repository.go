package payroll

import (
	"context"
	"time"
)

// PayrollRepository defines data access methods for payroll records.
// All methods take outletID so one outlet cannot read another's payroll.
type PayrollRepository interface {
	// Upsert inserts or replaces the draft for (employee, period).
	// It returns ErrPayrollRecordAlreadyPaid when the existing record is paid.
	Upsert(ctx context.Context, record PayrollRecord) (PayrollRecord, error)

	GetByID(ctx context.Context, id string, outletID string) (PayrollRecord, error)
	GetByEmployeePeriod(ctx context.Context, employeeID string, period time.Time, outletID string) (PayrollRecord, error)
	List(ctx context.Context, outletID string, filter PayrollFilter) ([]PayrollRecord, int64, error)

	// MarkPaid finalizes draft records and returns how many were updated.
	MarkPaid(ctx context.Context, ids []string, paidBy string, outletID string) (int64, error)
}
