package payroll

import (
	"context"
	"time"
)

type PayrollService interface {
	// Preview computes a breakdown from an explicit input without persisting anything
	Preview(ctx context.Context, req PreviewPayrollRequest) (PreviewPayrollResponse, error)

	// Generate computes and stores the draft for one employee and month
	Generate(ctx context.Context, req GeneratePayrollRequest) (PayrollRecordResponse, error)

	Get(ctx context.Context, id string) (PayrollRecordResponse, error)
	List(ctx context.Context, filter PayrollFilter) (ListPayrollRecordResponse, error)

	// MarkPaid finalizes draft records
	MarkPaid(ctx context.Context, req FinalizePayrollRequest) (FinalizePayrollResponse, error)

	// Export writes the period's records to a spreadsheet and returns its URL
	Export(ctx context.Context, period time.Time) (ExportPayrollResponse, error)
}
