package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/export"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/storage"
	"github.com/shopspring/decimal"
)

// Config carries payroll defaults applied when an employee has no own value.
type Config struct {
	RejectNegativeInput    bool
	DefaultOvertimeRate    decimal.Decimal
	DefaultLatePenaltyRate decimal.Decimal
	ExcludeWeekdays        []time.Weekday
}

type PayrollServiceImpl struct {
	db             database.Transactor
	payrollRepo    payroll.PayrollRepository
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	files          storage.FileStorage
	cfg            Config
	now            func() time.Time
}

func NewPayrollService(
	db database.Transactor,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	files storage.FileStorage,
	cfg Config,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		db:             db,
		payrollRepo:    payrollRepo,
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		files:          files,
		cfg:            cfg,
		now:            time.Now,
	}
}

// Helper to get outlet_id and user_id from JWT context
func getClaimsFromContext(ctx context.Context) (outletID, userID string, err error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}
	return claims.OutletIDOrEmpty(), claims.UserID, nil
}

func (s *PayrollServiceImpl) checkInput(in payroll.Input) error {
	if !s.cfg.RejectNegativeInput {
		return nil
	}
	return in.Validate()
}

// ========== PREVIEW ==========

func (s *PayrollServiceImpl) Preview(ctx context.Context, req payroll.PreviewPayrollRequest) (payroll.PreviewPayrollResponse, error) {
	if err := s.checkInput(req.Input); err != nil {
		return payroll.PreviewPayrollResponse{}, err
	}
	return payroll.PreviewPayrollResponse{
		Input:     req.Input,
		Breakdown: payroll.GenerateBreakdown(req.Input),
	}, nil
}

// ========== GENERATE ==========

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// buildInput turns an employee and a month of attendance into an engine input.
// Absent days are unpaid just like explicit unpaid leave.
func (s *PayrollServiceImpl) buildInput(emp employee.Employee, summary attendance.MonthlySummary, workingDays int, req payroll.GeneratePayrollRequest) payroll.Input {
	return payroll.Input{
		BaseSalary:       emp.BaseSalary,
		TotalWorkingDays: workingDays,
		PresentDays:      summary.PresentDays,
		LeaveDays:        summary.LeaveDays,
		HalfDays:         summary.HalfDays,
		OvertimeHours:    summary.OvertimeHours,
		OvertimeRate:     emp.OvertimeRateOr(s.cfg.DefaultOvertimeRate),
		Incentives:       orZero(req.Incentives),
		Bonus:            orZero(req.Bonus),
		Allowances:       orZero(req.Allowances),
		Advances:         orZero(req.Advances),
		OtherDeductions:  orZero(req.OtherDeductions),
		LateMinutes:      summary.LateMinutes,
		LatePenaltyRate:  emp.LatePenaltyRateOr(s.cfg.DefaultLatePenaltyRate),
		UnpaidLeaveDays:  decimal.NewFromInt(int64(summary.UnpaidLeaveDays + summary.AbsentDays)),
	}
}

func (s *PayrollServiceImpl) Generate(ctx context.Context, req payroll.GeneratePayrollRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	outletID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	var saved payroll.PayrollRecord
	err = s.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		emp, err := s.employeeRepo.GetByID(txCtx, req.EmployeeID, outletID)
		if err != nil {
			return err
		}
		if !emp.BaseSalary.IsPositive() {
			return payroll.ErrEmployeeHasNoBaseSalary
		}

		start, end := attendance.MonthBounds(req.ParsedPeriod)
		rows, err := s.attendanceRepo.ListByEmployee(txCtx, emp.ID, emp.OutletID, start, end)
		if err != nil {
			return fmt.Errorf("failed to load attendance: %w", err)
		}

		summary := attendance.GetMonthlySummary(attendance.Records(rows), req.ParsedPeriod)
		workingDays := attendance.WorkingDaysInMonth(req.ParsedPeriod, s.cfg.ExcludeWeekdays...)
		input := s.buildInput(emp, summary, workingDays, req)
		if err := s.checkInput(input); err != nil {
			return err
		}

		name := emp.FullName
		position := emp.Position
		saved, err = s.payrollRepo.Upsert(txCtx, payroll.PayrollRecord{
			EmployeeID:       emp.ID,
			OutletID:         emp.OutletID,
			Period:           start,
			TotalWorkingDays: input.TotalWorkingDays,
			PresentDays:      input.PresentDays,
			LeaveDays:        input.LeaveDays,
			HalfDays:         input.HalfDays,
			UnpaidLeaveDays:  input.UnpaidLeaveDays,
			OvertimeHours:    input.OvertimeHours,
			LateMinutes:      input.LateMinutes,
			OvertimeRate:     input.OvertimeRate,
			LatePenaltyRate:  input.LatePenaltyRate,
			Breakdown:        payroll.GenerateBreakdown(input),
			Status:           payroll.PayrollStatusDraft,
			Notes:            req.Notes,
			EmployeeName:     &name,
			Position:         &position,
		})
		if err != nil {
			if errors.Is(err, payroll.ErrPayrollRecordAlreadyPaid) {
				return err
			}
			return fmt.Errorf("failed to save payroll record: %w", err)
		}
		return nil
	})
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	slog.Info("payroll generated", "employee_id", saved.EmployeeID, "period", saved.Period.Format("2006-01"), "net_pay", saved.NetPay.StringFixed(2))
	return toResponse(saved), nil
}

// ========== READ ==========

func (s *PayrollServiceImpl) Get(ctx context.Context, id string) (payroll.PayrollRecordResponse, error) {
	outletID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	record, err := s.payrollRepo.GetByID(ctx, id, outletID)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return toResponse(record), nil
}

func (s *PayrollServiceImpl) List(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollRecordResponse, error) {
	outletID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.ListPayrollRecordResponse{}, err
	}
	filter.Normalize()

	records, total, err := s.payrollRepo.List(ctx, outletID, filter)
	if err != nil {
		return payroll.ListPayrollRecordResponse{}, fmt.Errorf("failed to list payroll records: %w", err)
	}

	data := make([]payroll.PayrollRecordResponse, len(records))
	for i, r := range records {
		data[i] = toResponse(r)
	}

	return payroll.ListPayrollRecordResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// ========== FINALIZE ==========

func (s *PayrollServiceImpl) MarkPaid(ctx context.Context, req payroll.FinalizePayrollRequest) (payroll.FinalizePayrollResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.FinalizePayrollResponse{}, err
	}

	outletID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.FinalizePayrollResponse{}, err
	}

	n, err := s.payrollRepo.MarkPaid(ctx, req.RecordIDs, userID, outletID)
	if err != nil {
		return payroll.FinalizePayrollResponse{}, fmt.Errorf("failed to finalize payroll: %w", err)
	}
	return payroll.FinalizePayrollResponse{Finalized: n}, nil
}

// ========== EXPORT ==========

func (s *PayrollServiceImpl) Export(ctx context.Context, period time.Time) (payroll.ExportPayrollResponse, error) {
	outletID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.ExportPayrollResponse{}, err
	}

	start, _ := attendance.MonthBounds(period)
	var records []payroll.PayrollRecord
	filter := payroll.PayrollFilter{Period: &start, Page: 1, Limit: 500}
	for {
		page, total, err := s.payrollRepo.List(ctx, outletID, filter)
		if err != nil {
			return payroll.ExportPayrollResponse{}, fmt.Errorf("failed to list payroll records: %w", err)
		}
		records = append(records, page...)
		if len(page) == 0 || int64(len(records)) >= total {
			break
		}
		filter.Page++
	}
	if len(records) == 0 {
		return payroll.ExportPayrollResponse{}, payroll.ErrNothingToExport
	}

	buf, err := export.PayrollWorkbook(start, records)
	if err != nil {
		return payroll.ExportPayrollResponse{}, fmt.Errorf("failed to build payroll workbook: %w", err)
	}

	fileName := export.PayrollFileName(start)
	scope := outletID
	if scope == "" {
		scope = "all"
	}
	path := fmt.Sprintf("payroll/%s/%d-%s", scope, s.now().Unix(), fileName)

	stored, err := s.files.Upload(ctx, buf, path, export.XLSXMimeType)
	if err != nil {
		return payroll.ExportPayrollResponse{}, fmt.Errorf("failed to store payroll export: %w", err)
	}
	url, err := s.files.GetURL(ctx, stored, 0)
	if err != nil {
		return payroll.ExportPayrollResponse{}, fmt.Errorf("failed to build export url: %w", err)
	}

	return payroll.ExportPayrollResponse{
		Period:   start.Format("2006-01"),
		Records:  len(records),
		FileName: fileName,
		URL:      url,
	}, nil
}

// ========== MAPPING ==========

func toResponse(r payroll.PayrollRecord) payroll.PayrollRecordResponse {
	resp := payroll.PayrollRecordResponse{
		ID:               r.ID,
		EmployeeID:       r.EmployeeID,
		Position:         r.Position,
		Period:           r.Period.Format("2006-01"),
		TotalWorkingDays: r.TotalWorkingDays,
		PresentDays:      r.PresentDays,
		LeaveDays:        r.LeaveDays,
		HalfDays:         r.HalfDays,
		UnpaidLeaveDays:  r.UnpaidLeaveDays,
		OvertimeHours:    r.OvertimeHours,
		OvertimeRate:     r.OvertimeRate,
		LateMinutes:      r.LateMinutes,
		LatePenaltyRate:  r.LatePenaltyRate,
		Breakdown:        r.Breakdown,
		Status:           string(r.Status),
		Notes:            r.Notes,
		UpdatedAt:        r.UpdatedAt.Format(time.RFC3339),
	}
	if r.EmployeeName != nil {
		resp.EmployeeName = *r.EmployeeName
	}
	if r.PaidAt != nil {
		paidAt := r.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}
	return resp
}
