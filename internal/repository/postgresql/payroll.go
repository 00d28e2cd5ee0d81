package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// payrollColumns expects payroll_records aliased as pr and employees joined as e.
const payrollColumns = `
	pr.id, pr.employee_id, pr.outlet_id, pr.period,
	pr.total_working_days, pr.present_days, pr.leave_days, pr.half_days,
	pr.unpaid_leave_days, pr.overtime_hours, pr.late_minutes, pr.overtime_rate, pr.late_penalty_rate,
	pr.base_salary, pr.overtime_pay, pr.incentives, pr.bonus, pr.allowances, pr.gross_pay,
	pr.late_penalty, pr.unpaid_leave_deduction, pr.advances, pr.other_deductions,
	pr.total_deductions, pr.net_pay,
	pr.status, pr.paid_at, pr.paid_by, pr.notes, pr.created_at, pr.updated_at,
	e.full_name, e.position`

const payrollFrom = `
	FROM payroll_records pr
	JOIN employees e ON e.id = pr.employee_id`

func scanPayrollRecord(row pgx.Row) (payroll.PayrollRecord, error) {
	var r payroll.PayrollRecord
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.OutletID, &r.Period,
		&r.TotalWorkingDays, &r.PresentDays, &r.LeaveDays, &r.HalfDays,
		&r.UnpaidLeaveDays, &r.OvertimeHours, &r.LateMinutes, &r.OvertimeRate, &r.LatePenaltyRate,
		&r.BaseSalary, &r.OvertimePay, &r.Incentives, &r.Bonus, &r.Allowances, &r.GrossPay,
		&r.LatePenalty, &r.UnpaidLeaveDeduction, &r.Advances, &r.OtherDeductions,
		&r.TotalDeductions, &r.NetPay,
		&r.Status, &r.PaidAt, &r.PaidBy, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
		&r.EmployeeName, &r.Position,
	)
	return r, err
}

// Upsert implements payroll.PayrollRepository. The conflict update only applies to
// drafts, so a paid record yields no row and ErrPayrollRecordAlreadyPaid.
func (r *payrollRepository) Upsert(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_records (
			employee_id, outlet_id, period,
			total_working_days, present_days, leave_days, half_days,
			unpaid_leave_days, overtime_hours, late_minutes, overtime_rate, late_penalty_rate,
			base_salary, overtime_pay, incentives, bonus, allowances, gross_pay,
			late_penalty, unpaid_leave_deduction, advances, other_deductions,
			total_deductions, net_pay, status, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		)
		ON CONFLICT (employee_id, period) DO UPDATE SET
			outlet_id = EXCLUDED.outlet_id,
			total_working_days = EXCLUDED.total_working_days,
			present_days = EXCLUDED.present_days,
			leave_days = EXCLUDED.leave_days,
			half_days = EXCLUDED.half_days,
			unpaid_leave_days = EXCLUDED.unpaid_leave_days,
			overtime_hours = EXCLUDED.overtime_hours,
			late_minutes = EXCLUDED.late_minutes,
			overtime_rate = EXCLUDED.overtime_rate,
			late_penalty_rate = EXCLUDED.late_penalty_rate,
			base_salary = EXCLUDED.base_salary,
			overtime_pay = EXCLUDED.overtime_pay,
			incentives = EXCLUDED.incentives,
			bonus = EXCLUDED.bonus,
			allowances = EXCLUDED.allowances,
			gross_pay = EXCLUDED.gross_pay,
			late_penalty = EXCLUDED.late_penalty,
			unpaid_leave_deduction = EXCLUDED.unpaid_leave_deduction,
			advances = EXCLUDED.advances,
			other_deductions = EXCLUDED.other_deductions,
			total_deductions = EXCLUDED.total_deductions,
			net_pay = EXCLUDED.net_pay,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		WHERE payroll_records.status = 'draft'
		RETURNING id, created_at, updated_at
	`

	b := record.Breakdown
	err := q.QueryRow(ctx, query,
		record.EmployeeID, record.OutletID, record.Period,
		record.TotalWorkingDays, record.PresentDays, record.LeaveDays, record.HalfDays,
		record.UnpaidLeaveDays, record.OvertimeHours, record.LateMinutes, record.OvertimeRate, record.LatePenaltyRate,
		b.BaseSalary, b.OvertimePay, b.Incentives, b.Bonus, b.Allowances, b.GrossPay,
		b.LatePenalty, b.UnpaidLeaveDeduction, b.Advances, b.OtherDeductions,
		b.TotalDeductions, b.NetPay, payroll.PayrollStatusDraft, record.Notes,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordAlreadyPaid
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to upsert payroll record: %w", err)
	}

	record.Status = payroll.PayrollStatusDraft
	return record, nil
}

func (r *payrollRepository) GetByID(ctx context.Context, id string, outletID string) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrollColumns + payrollFrom + `
		WHERE pr.id = $1 AND ($2::text IS NULL OR pr.outlet_id = $2)`

	record, err := scanPayrollRecord(q.QueryRow(ctx, query, id, nullIfEmpty(outletID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}
	return record, nil
}

func (r *payrollRepository) GetByEmployeePeriod(ctx context.Context, employeeID string, period time.Time, outletID string) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrollColumns + payrollFrom + `
		WHERE pr.employee_id = $1 AND pr.period = $2 AND ($3::text IS NULL OR pr.outlet_id = $3)`

	record, err := scanPayrollRecord(q.QueryRow(ctx, query, employeeID, period, nullIfEmpty(outletID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}
	return record, nil
}

func (r *payrollRepository) List(ctx context.Context, outletID string, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := payrollFrom + `
		WHERE ($1::text IS NULL OR pr.outlet_id = $1)
	`
	args := []interface{}{nullIfEmpty(outletID)}
	argIdx := 2

	if filter.Period != nil {
		baseQuery += fmt.Sprintf(" AND pr.period = $%d", argIdx)
		args = append(args, *filter.Period)
		argIdx++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND pr.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.EmployeeID != nil {
		baseQuery += fmt.Sprintf(" AND pr.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	var totalCount int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll records: %w", err)
	}

	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	selectQuery := fmt.Sprintf(`
		SELECT %s
		%s
		ORDER BY pr.period DESC, e.full_name ASC, pr.id ASC
		LIMIT $%d OFFSET $%d
	`, payrollColumns, baseQuery, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var records []payroll.PayrollRecord
	for rows.Next() {
		record, err := scanPayrollRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payroll records: %w", err)
	}

	return records, totalCount, nil
}

func (r *payrollRepository) MarkPaid(ctx context.Context, ids []string, paidBy string, outletID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_records
		SET status = 'paid', paid_at = NOW(), paid_by = $2, updated_at = NOW()
		WHERE id = ANY($1)
		  AND status = 'draft'
		  AND ($3::text IS NULL OR outlet_id = $3)
	`

	tag, err := q.Exec(ctx, query, ids, paidBy, nullIfEmpty(outletID))
	if err != nil {
		return 0, fmt.Errorf("failed to mark payroll records paid: %w", err)
	}
	return tag.RowsAffected(), nil
}
