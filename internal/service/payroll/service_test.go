package payroll

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePayrollRepo struct {
	upsertFn   func(ctx context.Context, r payroll.PayrollRecord) (payroll.PayrollRecord, error)
	getByIDFn  func(ctx context.Context, id, outletID string) (payroll.PayrollRecord, error)
	listFn     func(ctx context.Context, outletID string, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error)
	markPaidFn func(ctx context.Context, ids []string, paidBy, outletID string) (int64, error)
}

func (f *fakePayrollRepo) Upsert(ctx context.Context, r payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	return f.upsertFn(ctx, r)
}

func (f *fakePayrollRepo) GetByID(ctx context.Context, id, outletID string) (payroll.PayrollRecord, error) {
	return f.getByIDFn(ctx, id, outletID)
}

func (f *fakePayrollRepo) GetByEmployeePeriod(context.Context, string, time.Time, string) (payroll.PayrollRecord, error) {
	return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
}

func (f *fakePayrollRepo) List(ctx context.Context, outletID string, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	return f.listFn(ctx, outletID, filter)
}

func (f *fakePayrollRepo) MarkPaid(ctx context.Context, ids []string, paidBy, outletID string) (int64, error) {
	return f.markPaidFn(ctx, ids, paidBy, outletID)
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id, _ string) (employee.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeEmployeeRepo) GetByUserID(context.Context, string) (employee.Employee, error) {
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeEmployeeRepo) ListActiveByOutlet(context.Context, string) ([]employee.Employee, error) {
	return nil, nil
}

// fakeAttendanceRepo only serves ListByEmployee; the embedded nil interface
// panics if anything else is called.
type fakeAttendanceRepo struct {
	attendance.AttendanceRepository
	rows []attendance.Attendance
}

func (f *fakeAttendanceRepo) ListByEmployee(context.Context, string, string, time.Time, time.Time) ([]attendance.Attendance, error) {
	return f.rows, nil
}

type fakeStorage struct {
	uploaded map[string][]byte
}

func (f *fakeStorage) Upload(_ context.Context, file io.Reader, path string, _ string) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	f.uploaded[path] = data
	return path, nil
}

func (f *fakeStorage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.uploaded[path])), nil
}

func (f *fakeStorage) Delete(_ context.Context, path string) error {
	delete(f.uploaded, path)
	return nil
}

func (f *fakeStorage) GetURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "http://localhost:8080/files/" + path, nil
}

func (f *fakeStorage) Exists(_ context.Context, path string) (bool, error) {
	_, ok := f.uploaded[path]
	return ok, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func adminContext(t *testing.T) context.Context {
	t.Helper()
	svc := jwt.NewJWTService("test-secret-key-for-jwt", "1h", "24h")
	outlet := "outlet-1"
	tokenString, _, err := svc.GenerateAccessToken(jwt.AccessClaims{UserID: "admin-1", Role: user.RoleAdmin, OutletID: &outlet})
	require.NoError(t, err)
	token, err := jwtauth.VerifyToken(svc.JWTAuth(), tokenString)
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func february(d int) time.Time { return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC) }

func newTestService(repo *fakePayrollRepo, rows []attendance.Attendance, files *fakeStorage, cfg Config) *PayrollServiceImpl {
	employees := &fakeEmployeeRepo{employees: map[string]employee.Employee{
		"emp-1": {
			ID: "emp-1", OutletID: "outlet-1", FullName: "Ayu", Position: "Barista",
			BaseSalary: dec("2400"), LatePenaltyRate: dec("0.5"),
		},
		"emp-0": {ID: "emp-0", OutletID: "outlet-1", FullName: "Intern"},
	}}
	svc := NewPayrollService(passthroughTx{}, repo, employees, &fakeAttendanceRepo{rows: rows}, files, cfg).(*PayrollServiceImpl)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestPreview_ReferenceExample(t *testing.T) {
	svc := newTestService(&fakePayrollRepo{}, nil, nil, Config{})

	resp, err := svc.Preview(context.Background(), payroll.PreviewPayrollRequest{Input: payroll.Input{
		BaseSalary:      dec("30000"),
		OvertimeHours:   dec("10"),
		OvertimeRate:    dec("200"),
		Bonus:           dec("500"),
		Advances:        dec("2000"),
		OtherDeductions: dec("0"),
	}})
	require.NoError(t, err)
	assert.Equal(t, "2000", resp.Breakdown.OvertimePay.String())
	assert.Equal(t, "32500", resp.Breakdown.GrossPay.String())
	assert.Equal(t, "30500", resp.Breakdown.NetPay.String())
}

func TestPreview_NegativeInputToggle(t *testing.T) {
	in := payroll.PreviewPayrollRequest{Input: payroll.Input{BaseSalary: dec("100"), Bonus: dec("-20")}}

	lenient := newTestService(&fakePayrollRepo{}, nil, nil, Config{})
	resp, err := lenient.Preview(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "80", resp.Breakdown.GrossPay.String())

	strict := newTestService(&fakePayrollRepo{}, nil, nil, Config{RejectNegativeInput: true})
	_, err = strict.Preview(context.Background(), in)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "bonus")
}

func TestGenerate_BuildsInputFromAttendance(t *testing.T) {
	rows := []attendance.Attendance{
		{Date: february(2), Status: attendance.StatusPresent, OvertimeHours: dec("2.5"), LateMinutes: 10},
		{Date: february(3), Status: attendance.StatusPresent, OvertimeHours: dec("1.5")},
		{Date: february(4), Status: attendance.StatusAbsent},
		{Date: february(5), Status: attendance.StatusUnpaidLeave, LateMinutes: 20},
		{Date: february(6), Status: attendance.StatusLeave},
		{Date: february(7), Status: attendance.StatusHalfDay},
	}
	var saved payroll.PayrollRecord
	repo := &fakePayrollRepo{
		upsertFn: func(_ context.Context, r payroll.PayrollRecord) (payroll.PayrollRecord, error) {
			r.ID = "pr-1"
			saved = r
			return r, nil
		},
	}
	svc := newTestService(repo, rows, nil, Config{DefaultOvertimeRate: dec("12.5"), DefaultLatePenaltyRate: dec("9")})

	resp, err := svc.Generate(adminContext(t), payroll.GeneratePayrollRequest{
		EmployeeID: "emp-1",
		Period:     "2026-02",
		Bonus:      decPtr("100"),
		Advances:   decPtr("50"),
	})
	require.NoError(t, err)

	assert.Equal(t, 24, saved.TotalWorkingDays)
	assert.Equal(t, 2, saved.PresentDays)
	assert.Equal(t, 1, saved.LeaveDays)
	assert.Equal(t, 1, saved.HalfDays)
	assert.Equal(t, "2", saved.UnpaidLeaveDays.String())
	assert.Equal(t, "4", saved.OvertimeHours.String())
	assert.Equal(t, 30, saved.LateMinutes)
	// employee has no overtime rate so the default applies; the penalty rate is the employee's own
	assert.Equal(t, "12.5", saved.OvertimeRate.String())
	assert.Equal(t, "0.5", saved.LatePenaltyRate.String())
	assert.Equal(t, payroll.PayrollStatusDraft, saved.Status)
	assert.Equal(t, february(1), saved.Period)

	// 2400 + 50 OT + 100 bonus = 2550; 15 late + 200 unpaid (2400/24*2) + 50 advances = 265
	assert.Equal(t, "2550", resp.Breakdown.GrossPay.String())
	assert.Equal(t, "200", resp.Breakdown.UnpaidLeaveDeduction.String())
	assert.Equal(t, "265", resp.Breakdown.TotalDeductions.String())
	assert.Equal(t, "2285", resp.Breakdown.NetPay.String())
	assert.Equal(t, "Ayu", resp.EmployeeName)
	assert.Equal(t, "2026-02", resp.Period)
}

func TestGenerate_PaidRecordIsNotRegenerated(t *testing.T) {
	repo := &fakePayrollRepo{
		upsertFn: func(context.Context, payroll.PayrollRecord) (payroll.PayrollRecord, error) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordAlreadyPaid
		},
	}
	svc := newTestService(repo, nil, nil, Config{})

	_, err := svc.Generate(adminContext(t), payroll.GeneratePayrollRequest{EmployeeID: "emp-1", Period: "2026-02"})
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordAlreadyPaid)
}

func TestGenerate_Errors(t *testing.T) {
	svc := newTestService(&fakePayrollRepo{}, nil, nil, Config{})
	ctx := adminContext(t)

	_, err := svc.Generate(ctx, payroll.GeneratePayrollRequest{EmployeeID: "emp-1", Period: "Feb 2026"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	_, err = svc.Generate(ctx, payroll.GeneratePayrollRequest{EmployeeID: "missing", Period: "2026-02"})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = svc.Generate(ctx, payroll.GeneratePayrollRequest{EmployeeID: "emp-0", Period: "2026-02"})
	assert.ErrorIs(t, err, payroll.ErrEmployeeHasNoBaseSalary)
}

func TestGenerate_RejectsNegativeAddOnsWhenConfigured(t *testing.T) {
	svc := newTestService(&fakePayrollRepo{}, nil, nil, Config{RejectNegativeInput: true})

	_, err := svc.Generate(adminContext(t), payroll.GeneratePayrollRequest{EmployeeID: "emp-1", Period: "2026-02", Allowances: decPtr("-1")})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "allowances")
}

func TestMarkPaid(t *testing.T) {
	repo := &fakePayrollRepo{
		markPaidFn: func(_ context.Context, ids []string, paidBy, outletID string) (int64, error) {
			assert.Equal(t, []string{"pr-1", "pr-2"}, ids)
			assert.Equal(t, "admin-1", paidBy)
			assert.Equal(t, "outlet-1", outletID)
			return 2, nil
		},
	}
	svc := newTestService(repo, nil, nil, Config{})

	resp, err := svc.MarkPaid(adminContext(t), payroll.FinalizePayrollRequest{RecordIDs: []string{"pr-1", "pr-2"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Finalized)

	_, err = svc.MarkPaid(adminContext(t), payroll.FinalizePayrollRequest{})
	assert.Error(t, err)
}

func TestGetAndList(t *testing.T) {
	paidAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := payroll.PayrollRecord{ID: "pr-1", Period: february(1), Status: payroll.PayrollStatusPaid, PaidAt: &paidAt}
	repo := &fakePayrollRepo{
		getByIDFn: func(_ context.Context, id, outletID string) (payroll.PayrollRecord, error) {
			if id != "pr-1" {
				return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
			}
			return rec, nil
		},
		listFn: func(_ context.Context, _ string, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
			assert.Equal(t, 50, filter.Limit)
			return []payroll.PayrollRecord{rec}, 1, nil
		},
	}
	svc := newTestService(repo, nil, nil, Config{})

	got, err := svc.Get(adminContext(t), "pr-1")
	require.NoError(t, err)
	assert.Equal(t, "paid", got.Status)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, "2026-03-01T10:00:00Z", *got.PaidAt)

	_, err = svc.Get(adminContext(t), "nope")
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordNotFound)

	list, err := svc.List(adminContext(t), payroll.PayrollFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalCount)
	assert.Len(t, list.Data, 1)
}

func TestExport_WritesWorkbookToStorage(t *testing.T) {
	name := "Ayu"
	in := payroll.Input{BaseSalary: dec("2400")}
	records := []payroll.PayrollRecord{{ID: "pr-1", EmployeeName: &name, Period: february(1), Breakdown: payroll.GenerateBreakdown(in)}}
	repo := &fakePayrollRepo{
		listFn: func(_ context.Context, outletID string, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
			require.NotNil(t, filter.Period)
			assert.Equal(t, february(1), *filter.Period)
			return records, 1, nil
		},
	}
	files := &fakeStorage{uploaded: map[string][]byte{}}
	svc := newTestService(repo, nil, files, Config{})

	resp, err := svc.Export(adminContext(t), february(14))
	require.NoError(t, err)

	assert.Equal(t, "2026-02", resp.Period)
	assert.Equal(t, 1, resp.Records)
	assert.Equal(t, "payroll-2026-02.xlsx", resp.FileName)
	assert.Contains(t, resp.URL, "/files/payroll/outlet-1/")

	require.Len(t, files.uploaded, 1)
	for _, data := range files.uploaded {
		f, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		rows, err := f.GetRows("Payroll")
		require.NoError(t, err)
		assert.Equal(t, "Ayu", rows[1][0])
		_ = f.Close()
	}
}

func TestExport_NothingToExport(t *testing.T) {
	repo := &fakePayrollRepo{
		listFn: func(context.Context, string, payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
			return nil, 0, nil
		},
	}
	svc := newTestService(repo, nil, &fakeStorage{uploaded: map[string][]byte{}}, Config{})

	_, err := svc.Export(adminContext(t), february(1))
	assert.ErrorIs(t, err, payroll.ErrNothingToExport)
}
