package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeAttendanceRepo struct {
	createFn               func(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error)
	getByIDFn              func(ctx context.Context, id, outletID string) (attendance.Attendance, error)
	getByEmployeeAndDateFn func(ctx context.Context, employeeID string, date time.Time, outletID string) (*attendance.Attendance, error)
	updateFn               func(ctx context.Context, a attendance.Attendance) error
	deleteFn               func(ctx context.Context, id, outletID string) error
	listByEmployeeFn       func(ctx context.Context, employeeID, outletID string, start, end time.Time) ([]attendance.Attendance, error)
	getOpenSessionFn       func(ctx context.Context, employeeID string) (attendance.Attendance, error)
	listOpenBeforeFn       func(ctx context.Context, date time.Time) ([]attendance.Attendance, error)
	lockRangeFn            func(ctx context.Context, outletID string, start, end time.Time) (int64, error)
}

func (f *fakeAttendanceRepo) Create(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	return f.createFn(ctx, a)
}

func (f *fakeAttendanceRepo) GetByID(ctx context.Context, id, outletID string) (attendance.Attendance, error) {
	return f.getByIDFn(ctx, id, outletID)
}

func (f *fakeAttendanceRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, outletID string) (*attendance.Attendance, error) {
	return f.getByEmployeeAndDateFn(ctx, employeeID, date, outletID)
}

func (f *fakeAttendanceRepo) Update(ctx context.Context, a attendance.Attendance) error {
	return f.updateFn(ctx, a)
}

func (f *fakeAttendanceRepo) Delete(ctx context.Context, id, outletID string) error {
	return f.deleteFn(ctx, id, outletID)
}

func (f *fakeAttendanceRepo) ListByEmployee(ctx context.Context, employeeID, outletID string, start, end time.Time) ([]attendance.Attendance, error) {
	return f.listByEmployeeFn(ctx, employeeID, outletID, start, end)
}

func (f *fakeAttendanceRepo) GetOpenSession(ctx context.Context, employeeID string) (attendance.Attendance, error) {
	return f.getOpenSessionFn(ctx, employeeID)
}

func (f *fakeAttendanceRepo) ListOpenBefore(ctx context.Context, date time.Time) ([]attendance.Attendance, error) {
	return f.listOpenBeforeFn(ctx, date)
}

func (f *fakeAttendanceRepo) LockRange(ctx context.Context, outletID string, start, end time.Time) (int64, error) {
	return f.lockRangeFn(ctx, outletID, start, end)
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id, outletID string) (employee.Employee, error) {
	e, ok := f.employees[id]
	if !ok || (outletID != "" && e.OutletID != outletID) {
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

var jakarta = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		panic(err)
	}
	return loc
}()

func newTestService(repo *fakeAttendanceRepo, now time.Time) *AttendanceServiceImpl {
	employees := &fakeEmployeeRepo{employees: map[string]employee.Employee{
		"emp-1": {ID: "emp-1", OutletID: "outlet-1", EmploymentStatus: employee.EmploymentStatusActive},
		"emp-2": {ID: "emp-2", OutletID: "outlet-1", EmploymentStatus: employee.EmploymentStatusActive},
		"emp-9": {ID: "emp-9", OutletID: "outlet-9", EmploymentStatus: employee.EmploymentStatusActive},
	}}
	cfg := Config{
		ShiftStartHour:  9,
		ShiftLength:     8 * time.Hour,
		Location:        jakarta,
		ExcludeWeekdays: []time.Weekday{time.Sunday},
	}
	return newAttendanceService(passthroughTx{}, repo, employees, cfg, func() time.Time { return now })
}

func contextWithClaims(t *testing.T, role user.Role, employeeID string) context.Context {
	t.Helper()
	svc := jwt.NewJWTService("test-secret-key-for-jwt", "1h", "24h")
	outlet := "outlet-1"
	claims := jwt.AccessClaims{UserID: "user-" + employeeID, Email: "x@cafe.test", Role: role, OutletID: &outlet}
	if employeeID != "" {
		claims.EmployeeID = &employeeID
	}
	tokenString, _, err := svc.GenerateAccessToken(claims)
	require.NoError(t, err)
	token, err := jwtauth.VerifyToken(svc.JWTAuth(), tokenString)
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func TestClockIn_ComputesLatenessInOutletTimezone(t *testing.T) {
	// 09:17:40 in Jakarta
	now := time.Date(2026, 3, 3, 2, 17, 40, 0, time.UTC)
	var created attendance.Attendance
	repo := &fakeAttendanceRepo{
		getByEmployeeAndDateFn: func(_ context.Context, employeeID string, date time.Time, _ string) (*attendance.Attendance, error) {
			assert.Equal(t, "emp-1", employeeID)
			assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), date)
			return nil, nil
		},
		createFn: func(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
			a.ID = "att-1"
			created = a
			return a, nil
		},
	}
	svc := newTestService(repo, now)

	resp, err := svc.ClockIn(contextWithClaims(t, user.RoleStaff, "emp-1"))
	require.NoError(t, err)

	assert.Equal(t, 17, created.LateMinutes)
	assert.Equal(t, attendance.StatusPresent, created.Status)
	assert.Equal(t, "outlet-1", created.OutletID)
	assert.Equal(t, "2026-03-03", resp.Date)
	require.NotNil(t, resp.ClockInTime)
	assert.Equal(t, "2026-03-03T09:17:40+07:00", *resp.ClockInTime)
}

func TestClockIn_EarlyIsNotLate(t *testing.T) {
	now := time.Date(2026, 3, 3, 1, 30, 0, 0, time.UTC) // 08:30 local
	repo := &fakeAttendanceRepo{
		getByEmployeeAndDateFn: func(context.Context, string, time.Time, string) (*attendance.Attendance, error) {
			return nil, nil
		},
		createFn: func(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) { return a, nil },
	}

	resp, err := newTestService(repo, now).ClockIn(contextWithClaims(t, user.RoleStaff, "emp-1"))
	require.NoError(t, err)
	assert.Equal(t, 0, resp.LateMinutes)
}

func TestClockIn_UsesLocalCalendarDay(t *testing.T) {
	// 23:30 UTC on the 3rd is 06:30 on the 4th in Jakarta
	now := time.Date(2026, 3, 3, 23, 30, 0, 0, time.UTC)
	repo := &fakeAttendanceRepo{
		getByEmployeeAndDateFn: func(_ context.Context, _ string, date time.Time, _ string) (*attendance.Attendance, error) {
			assert.Equal(t, 4, date.Day())
			return nil, nil
		},
		createFn: func(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) { return a, nil },
	}

	_, err := newTestService(repo, now).ClockIn(contextWithClaims(t, user.RoleStaff, "emp-1"))
	require.NoError(t, err)
}

func TestClockIn_RejectsSecondClockIn(t *testing.T) {
	repo := &fakeAttendanceRepo{
		getByEmployeeAndDateFn: func(context.Context, string, time.Time, string) (*attendance.Attendance, error) {
			return &attendance.Attendance{ID: "att-1"}, nil
		},
	}

	_, err := newTestService(repo, time.Now()).ClockIn(contextWithClaims(t, user.RoleStaff, "emp-1"))
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn)
}

func TestClockIn_RequiresEmployeeProfile(t *testing.T) {
	_, err := newTestService(&fakeAttendanceRepo{}, time.Now()).ClockIn(contextWithClaims(t, user.RoleSuperAdmin, ""))
	assert.ErrorIs(t, err, attendance.ErrNoEmployeeProfile)
}

func TestClockOut_ComputesOvertime(t *testing.T) {
	clockIn := time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC)
	now := clockIn.Add(9*time.Hour + 20*time.Minute)
	var updated attendance.Attendance
	repo := &fakeAttendanceRepo{
		getOpenSessionFn: func(context.Context, string) (attendance.Attendance, error) {
			return attendance.Attendance{ID: "att-1", EmployeeID: "emp-1", ClockIn: &clockIn, Status: attendance.StatusPresent}, nil
		},
		updateFn: func(_ context.Context, a attendance.Attendance) error {
			updated = a
			return nil
		},
	}

	resp, err := newTestService(repo, now).ClockOut(contextWithClaims(t, user.RoleStaff, "emp-1"))
	require.NoError(t, err)

	// 1h20m beyond an 8h shift
	assert.Equal(t, "1.33", updated.OvertimeHours.String())
	require.NotNil(t, updated.ClockOut)
	assert.Equal(t, now, *updated.ClockOut)
	assert.Equal(t, "1.33", resp.OvertimeHours.String())
}

func TestClockOut_ShortShiftHasNoOvertime(t *testing.T) {
	clockIn := time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC)
	var updated attendance.Attendance
	repo := &fakeAttendanceRepo{
		getOpenSessionFn: func(context.Context, string) (attendance.Attendance, error) {
			return attendance.Attendance{ID: "att-1", ClockIn: &clockIn}, nil
		},
		updateFn: func(_ context.Context, a attendance.Attendance) error {
			updated = a
			return nil
		},
	}

	_, err := newTestService(repo, clockIn.Add(4*time.Hour)).ClockOut(contextWithClaims(t, user.RoleStaff, "emp-1"))
	require.NoError(t, err)
	assert.True(t, updated.OvertimeHours.IsZero())
}

func TestClockOut_WithoutOpenSession(t *testing.T) {
	repo := &fakeAttendanceRepo{
		getOpenSessionFn: func(context.Context, string) (attendance.Attendance, error) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		},
	}

	_, err := newTestService(repo, time.Now()).ClockOut(contextWithClaims(t, user.RoleStaff, "emp-1"))
	assert.ErrorIs(t, err, attendance.ErrNotClockedIn)
}

func markRequest(date string) attendance.MarkAttendanceRequest {
	return attendance.MarkAttendanceRequest{
		EmployeeID: "emp-2",
		Date:       date,
		Status:     "half day",
		Reason:     "forgot to clock out",
	}
}

func TestMarkAttendance_SuperAdminCreatesRecord(t *testing.T) {
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	var created attendance.Attendance
	repo := &fakeAttendanceRepo{
		getByEmployeeAndDateFn: func(context.Context, string, time.Time, string) (*attendance.Attendance, error) {
			return nil, nil
		},
		createFn: func(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
			created = a
			return a, nil
		},
	}

	resp, err := newTestService(repo, now).MarkAttendance(contextWithClaims(t, user.RoleSuperAdmin, ""), markRequest("2026-03-09"))
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusHalfDay, created.Status)
	require.NotNil(t, created.EditReason)
	assert.Equal(t, "forgot to clock out", *created.EditReason)
	assert.Equal(t, "Half Day", resp.Status)
	assert.Equal(t, "2026-03-09", resp.Date)
}

func TestMarkAttendance_UpdatesExisting(t *testing.T) {
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	ot := decimal.RequireFromString("1.5")
	var updated attendance.Attendance
	repo := &fakeAttendanceRepo{
		getByEmployeeAndDateFn: func(context.Context, string, time.Time, string) (*attendance.Attendance, error) {
			return &attendance.Attendance{ID: "att-7", EmployeeID: "emp-2", Status: attendance.StatusAbsent}, nil
		},
		updateFn: func(_ context.Context, a attendance.Attendance) error {
			updated = a
			return nil
		},
	}
	req := markRequest("2026-03-09")
	req.Status = "Present"
	req.OvertimeHours = &ot

	_, err := newTestService(repo, now).MarkAttendance(contextWithClaims(t, user.RoleSuperAdmin, ""), req)
	require.NoError(t, err)
	assert.Equal(t, "att-7", updated.ID)
	assert.Equal(t, attendance.StatusPresent, updated.Status)
	assert.Equal(t, "1.5", updated.OvertimeHours.String())
}

func TestMarkAttendance_PolicyDenials(t *testing.T) {
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		role   user.Role
		locked bool
		reason string
	}{
		{"locked record", user.RoleSuperAdmin, true, attendance.ReasonRecordLocked},
		{"admin is not super admin", user.RoleAdmin, false, attendance.ReasonSuperAdminOnly},
		{"lock is reported before role", user.RoleManager, true, attendance.ReasonRecordLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeAttendanceRepo{
				getByEmployeeAndDateFn: func(context.Context, string, time.Time, string) (*attendance.Attendance, error) {
					return &attendance.Attendance{ID: "att-1", IsLocked: tt.locked}, nil
				},
			}

			_, err := newTestService(repo, now).MarkAttendance(contextWithClaims(t, tt.role, ""), markRequest("2026-03-09"))
			var denied *attendance.PolicyDeniedError
			require.ErrorAs(t, err, &denied)
			assert.Equal(t, tt.reason, denied.Reason)
		})
	}
}

func TestMarkAttendance_CollectsEditViolations(t *testing.T) {
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	req := markRequest("2026-03-11")
	req.Reason = " ok "

	_, err := newTestService(&fakeAttendanceRepo{}, now).MarkAttendance(contextWithClaims(t, user.RoleSuperAdmin, ""), req)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{attendance.ReasonFutureDate, attendance.ReasonTooShort}, verrs.Messages())
}

func TestMarkAttendance_EmployeeOutsideOutlet(t *testing.T) {
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	req := markRequest("2026-03-09")
	req.EmployeeID = "emp-9"

	_, err := newTestService(&fakeAttendanceRepo{}, now).MarkAttendance(contextWithClaims(t, user.RoleSuperAdmin, ""), req)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestDeleteAttendance(t *testing.T) {
	deleted := ""
	repo := &fakeAttendanceRepo{
		getByIDFn: func(_ context.Context, id, _ string) (attendance.Attendance, error) {
			return attendance.Attendance{ID: id, IsLocked: id == "locked"}, nil
		},
		deleteFn: func(_ context.Context, id, _ string) error {
			deleted = id
			return nil
		},
	}
	svc := newTestService(repo, time.Now())

	err := svc.DeleteAttendance(contextWithClaims(t, user.RoleSuperAdmin, ""), "locked")
	var denied *attendance.PolicyDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, attendance.ReasonRecordLocked, denied.Reason)

	err = svc.DeleteAttendance(contextWithClaims(t, user.RoleAdmin, ""), "att-1")
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, attendance.ReasonSuperAdminOnly, denied.Reason)
	assert.Empty(t, deleted)

	require.NoError(t, svc.DeleteAttendance(contextWithClaims(t, user.RoleSuperAdmin, ""), "att-1"))
	assert.Equal(t, "att-1", deleted)
}

func TestLockMonth(t *testing.T) {
	repo := &fakeAttendanceRepo{
		lockRangeFn: func(_ context.Context, outletID string, start, end time.Time) (int64, error) {
			assert.Equal(t, "outlet-1", outletID)
			assert.Equal(t, "2026-02-01", start.Format("2006-01-02"))
			assert.Equal(t, "2026-03-01", end.Format("2006-01-02"))
			return 42, nil
		},
	}

	resp, err := newTestService(repo, time.Now()).LockMonth(contextWithClaims(t, user.RoleAdmin, ""), attendance.LockMonthRequest{Month: "2026-02"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.Locked)
	assert.Equal(t, "2026-02", resp.Month)

	_, err = newTestService(repo, time.Now()).LockMonth(contextWithClaims(t, user.RoleAdmin, ""), attendance.LockMonthRequest{Month: "Feb"})
	assert.Error(t, err)
}

func monthRows() []attendance.Attendance {
	day := func(d int) time.Time { return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC) }
	return []attendance.Attendance{
		{Date: day(2), Status: attendance.StatusPresent, LateMinutes: 5, OvertimeHours: decimal.RequireFromString("1.25")},
		{Date: day(3), Status: attendance.StatusPresent, OvertimeHours: decimal.RequireFromString("0.5")},
		{Date: day(4), Status: attendance.StatusAbsent},
		{Date: day(5), Status: attendance.StatusHalfDay, LateMinutes: 10},
		{Date: day(6), Status: attendance.Status("Remote")},
	}
}

func TestGetMonthlySummary_Own(t *testing.T) {
	repo := &fakeAttendanceRepo{
		listByEmployeeFn: func(_ context.Context, employeeID, _ string, start, end time.Time) ([]attendance.Attendance, error) {
			assert.Equal(t, "emp-1", employeeID)
			assert.Equal(t, 1, start.Day())
			assert.Equal(t, time.March, end.Month())
			return monthRows(), nil
		},
	}
	month := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	resp, err := newTestService(repo, time.Now()).GetMonthlySummary(contextWithClaims(t, user.RoleStaff, "emp-1"), "", month)
	require.NoError(t, err)

	assert.Equal(t, "emp-1", resp.EmployeeID)
	assert.Equal(t, 24, resp.WorkingDays)
	assert.Equal(t, 28, resp.Summary.TotalDays)
	assert.Equal(t, 2, resp.Summary.PresentDays)
	assert.Equal(t, 1, resp.Summary.AbsentDays)
	assert.Equal(t, 1, resp.Summary.HalfDays)
	assert.Equal(t, 15, resp.Summary.LateMinutes)
	assert.Equal(t, "1.75", resp.Summary.OvertimeHours.String())
}

func TestListMonth_OtherEmployeeNeedsViewAll(t *testing.T) {
	repo := &fakeAttendanceRepo{
		listByEmployeeFn: func(context.Context, string, string, time.Time, time.Time) ([]attendance.Attendance, error) {
			return monthRows(), nil
		},
	}
	svc := newTestService(repo, time.Now())
	month := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.ListMonth(contextWithClaims(t, user.RoleStaff, "emp-1"), "emp-2", month)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	resp, err := svc.ListMonth(contextWithClaims(t, user.RoleManager, "emp-1"), "emp-2", month)
	require.NoError(t, err)
	assert.Equal(t, 5, resp.TotalCount)
	assert.Equal(t, "bg-gray-300", resp.Attendances[4].StatusColor)

	_, err = svc.ListMonth(contextWithClaims(t, user.RoleManager, "emp-1"), "emp-9", month)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestGetWorkingDays(t *testing.T) {
	svc := newTestService(&fakeAttendanceRepo{}, time.Now())
	month := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	resp, err := svc.GetWorkingDays(context.Background(), month, nil)
	require.NoError(t, err)
	assert.Equal(t, 24, resp.WorkingDays)
	assert.Equal(t, []string{"Sunday"}, resp.ExcludeWeekdays)

	resp, err = svc.GetWorkingDays(context.Background(), month, []time.Weekday{time.Saturday, time.Sunday})
	require.NoError(t, err)
	assert.Equal(t, 20, resp.WorkingDays)
}

func TestLockPreviousMonth(t *testing.T) {
	var gotStart, gotEnd time.Time
	repo := &fakeAttendanceRepo{
		lockRangeFn: func(_ context.Context, outletID string, start, end time.Time) (int64, error) {
			assert.Empty(t, outletID)
			gotStart, gotEnd = start, end
			return 7, nil
		},
	}

	before := newTestService(repo, time.Date(2026, 3, 3, 3, 0, 0, 0, time.UTC))
	n, err := before.LockPreviousMonth(context.Background(), 5)
	require.NoError(t, err)
	assert.Zero(t, n)

	after := newTestService(repo, time.Date(2026, 3, 5, 3, 0, 0, 0, time.UTC))
	n, err = after.LockPreviousMonth(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, "2026-02-01", gotStart.Format("2006-01-02"))
	assert.Equal(t, "2026-03-01", gotEnd.Format("2006-01-02"))
}

func TestCloseStaleSessions(t *testing.T) {
	clockIn := time.Date(2026, 3, 2, 2, 5, 0, 0, time.UTC)
	var updated []attendance.Attendance
	repo := &fakeAttendanceRepo{
		listOpenBeforeFn: func(_ context.Context, date time.Time) ([]attendance.Attendance, error) {
			assert.Equal(t, "2026-03-04", date.Format("2006-01-02"))
			return []attendance.Attendance{
				{ID: "a1", Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), ClockIn: &clockIn},
				{ID: "a2", Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), ClockIn: &clockIn, IsLocked: true},
			}, nil
		},
		updateFn: func(_ context.Context, a attendance.Attendance) error {
			updated = append(updated, a)
			return nil
		},
	}

	n, err := newTestService(repo, time.Date(2026, 3, 4, 1, 0, 0, 0, time.UTC)).CloseStaleSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, updated, 1)
	// 09:00 + 8h in Jakarta is 10:00 UTC
	assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), *updated[0].ClockOut)
}
