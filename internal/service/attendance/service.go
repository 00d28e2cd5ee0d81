package attendance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/jwt"
	"github.com/shopspring/decimal"
)

// Config describes the working day every outlet shares.
type Config struct {
	ShiftStartHour   int
	ShiftStartMinute int
	ShiftLength      time.Duration
	Location         *time.Location
	ExcludeWeekdays  []time.Weekday
}

type AttendanceServiceImpl struct {
	db database.Transactor
	attendance.AttendanceRepository
	employee.EmployeeRepository
	cfg Config
	now func() time.Time
}

func NewAttendanceService(
	db database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	cfg Config,
) attendance.AttendanceService {
	return newAttendanceService(db, attendanceRepo, employeeRepo, cfg, time.Now)
}

func newAttendanceService(
	db database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	cfg Config,
	now func() time.Time,
) *AttendanceServiceImpl {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ShiftLength <= 0 {
		cfg.ShiftLength = 8 * time.Hour
	}
	return &AttendanceServiceImpl{
		db:                   db,
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		cfg:                  cfg,
		now:                  now,
	}
}

// localNow is the current instant in the outlets' timezone.
func (a *AttendanceServiceImpl) localNow() time.Time {
	return a.now().In(a.cfg.Location)
}

// calendarDate returns the civil date of t as midnight UTC, the form dates are stored in.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// shiftStart is the scheduled start on the civil day of date.
func (a *AttendanceServiceImpl) shiftStart(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, a.cfg.ShiftStartHour, a.cfg.ShiftStartMinute, 0, 0, a.cfg.Location)
}

func (a *AttendanceServiceImpl) formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.In(a.cfg.Location).Format(time.RFC3339)
	return &s
}

func (a *AttendanceServiceImpl) toResponse(att attendance.Attendance) attendance.AttendanceResponse {
	resp := attendance.AttendanceResponse{
		ID:              att.ID,
		EmployeeID:      att.EmployeeID,
		Date:            att.Date.Format("2006-01-02"),
		Status:          att.Status.String(),
		StatusColor:     attendance.StatusColor(string(att.Status)),
		StatusTextColor: attendance.StatusTextColor(string(att.Status)),
		ClockInTime:     a.formatTime(att.ClockIn),
		ClockOutTime:    a.formatTime(att.ClockOut),
		OvertimeHours:   att.OvertimeHours,
		LateMinutes:     att.LateMinutes,
		IsLocked:        att.IsLocked,
		EditReason:      att.EditReason,
		CreatedAt:       att.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       att.UpdatedAt.Format(time.RFC3339),
	}
	if att.EmployeeName != nil {
		resp.EmployeeName = *att.EmployeeName
	}
	return resp
}

// ClockIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockIn(ctx context.Context) (attendance.AttendanceResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}
	employeeID := claims.EmployeeIDOrEmpty()
	if employeeID == "" {
		return attendance.AttendanceResponse{}, attendance.ErrNoEmployeeProfile
	}

	nowLocal := a.localNow()
	date := calendarDate(nowLocal)

	var created attendance.Attendance
	err = a.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := a.AttendanceRepository.GetByEmployeeAndDate(txCtx, employeeID, date, claims.OutletIDOrEmpty())
		if err != nil {
			return fmt.Errorf("failed to check today's attendance: %w", err)
		}
		if existing != nil {
			return attendance.ErrAlreadyClockedIn
		}

		emp, err := a.EmployeeRepository.GetByID(txCtx, employeeID, claims.OutletIDOrEmpty())
		if err != nil {
			return err
		}
		if !emp.IsActive() {
			return employee.ErrEmployeeInactive
		}

		lateMinutes := 0
		if late := nowLocal.Sub(a.shiftStart(nowLocal)); late > 0 {
			lateMinutes = int(math.Floor(late.Minutes()))
		}

		clockIn := nowLocal.UTC()
		created, err = a.AttendanceRepository.Create(txCtx, attendance.Attendance{
			EmployeeID:    employeeID,
			OutletID:      emp.OutletID,
			Date:          date,
			Status:        attendance.StatusPresent,
			ClockIn:       &clockIn,
			OvertimeHours: decimal.Zero,
			LateMinutes:   lateMinutes,
		})
		if err != nil {
			return fmt.Errorf("failed to create attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.toResponse(created), nil
}

// overtimeHours is the worked time beyond the shift length, in hours to 2 decimals.
func (a *AttendanceServiceImpl) overtimeHours(clockIn, clockOut time.Time) decimal.Decimal {
	extra := clockOut.Sub(clockIn) - a.cfg.ShiftLength
	if extra <= 0 {
		return decimal.Zero
	}
	seconds := decimal.NewFromInt(int64(extra / time.Second))
	return seconds.Div(decimal.NewFromInt(3600)).Round(2)
}

// ClockOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockOut(ctx context.Context) (attendance.AttendanceResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}
	employeeID := claims.EmployeeIDOrEmpty()
	if employeeID == "" {
		return attendance.AttendanceResponse{}, attendance.ErrNoEmployeeProfile
	}

	open, err := a.AttendanceRepository.GetOpenSession(ctx, employeeID)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceResponse{}, attendance.ErrNotClockedIn
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get open session: %w", err)
	}
	if open.IsLocked {
		return attendance.AttendanceResponse{}, &attendance.PolicyDeniedError{Reason: attendance.ReasonRecordLocked}
	}

	clockOut := a.now().UTC()
	open.ClockOut = &clockOut
	open.OvertimeHours = a.overtimeHours(*open.ClockIn, clockOut)

	if err := a.AttendanceRepository.Update(ctx, open); err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	return a.toResponse(open), nil
}

// MarkAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) MarkAttendance(ctx context.Context, req attendance.MarkAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	nowLocal := a.localNow()
	if errs := attendance.EditErrors(attendance.EditInput{
		Date:   req.ParsedDate,
		Status: req.Status,
		Reason: req.Reason,
	}, nowLocal); len(errs) > 0 {
		return attendance.AttendanceResponse{}, errs
	}

	outletID := claims.OutletIDOrEmpty()
	reason := req.Reason

	var result attendance.Attendance
	err = a.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		emp, err := a.EmployeeRepository.GetByID(txCtx, req.EmployeeID, outletID)
		if err != nil {
			return err
		}

		existing, err := a.AttendanceRepository.GetByEmployeeAndDate(txCtx, req.EmployeeID, req.ParsedDate, outletID)
		if err != nil {
			return fmt.Errorf("failed to get attendance: %w", err)
		}

		locked := existing != nil && existing.IsLocked
		decision := attendance.CanEditAttendance(string(claims.Role), req.ParsedDate, locked, nowLocal)
		if err := attendance.DeniedError(decision); err != nil {
			return err
		}

		if existing == nil {
			record := attendance.Attendance{
				EmployeeID:    req.EmployeeID,
				OutletID:      emp.OutletID,
				Date:          req.ParsedDate,
				Status:        req.ParsedStatus,
				OvertimeHours: decimal.Zero,
				EditReason:    &reason,
				UpdatedBy:     &claims.UserID,
			}
			if req.OvertimeHours != nil {
				record.OvertimeHours = *req.OvertimeHours
			}
			if req.LateMinutes != nil {
				record.LateMinutes = *req.LateMinutes
			}
			result, err = a.AttendanceRepository.Create(txCtx, record)
			if err != nil {
				return fmt.Errorf("failed to create attendance: %w", err)
			}
			return nil
		}

		record := *existing
		record.Status = req.ParsedStatus
		record.EditReason = &reason
		record.UpdatedBy = &claims.UserID
		if req.OvertimeHours != nil {
			record.OvertimeHours = *req.OvertimeHours
		}
		if req.LateMinutes != nil {
			record.LateMinutes = *req.LateMinutes
		}
		if err := a.AttendanceRepository.Update(txCtx, record); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		result = record
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.toResponse(result), nil
}

// DeleteAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) DeleteAttendance(ctx context.Context, id string) error {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to extract claims from context: %w", err)
	}

	record, err := a.AttendanceRepository.GetByID(ctx, id, claims.OutletIDOrEmpty())
	if err != nil {
		return err
	}

	if err := attendance.DeniedError(attendance.CanDeleteAttendance(string(claims.Role), record.IsLocked)); err != nil {
		return err
	}

	if err := a.AttendanceRepository.Delete(ctx, id, claims.OutletIDOrEmpty()); err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete attendance: %w", err)
	}

	return nil
}

// LockMonth implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) LockMonth(ctx context.Context, req attendance.LockMonthRequest) (attendance.LockMonthResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.LockMonthResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.LockMonthResponse{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	start, end := attendance.MonthBounds(req.ParsedMonth)
	locked, err := a.AttendanceRepository.LockRange(ctx, claims.OutletIDOrEmpty(), start, end)
	if err != nil {
		return attendance.LockMonthResponse{}, fmt.Errorf("failed to lock attendance: %w", err)
	}

	return attendance.LockMonthResponse{Month: req.ParsedMonth.Format("2006-01"), Locked: locked}, nil
}

// resolveEmployee returns whose records the caller asked for.
// An empty employeeID means the caller; anyone else requires attendance.view_all.
func (a *AttendanceServiceImpl) resolveEmployee(ctx context.Context, employeeID string) (string, jwt.AccessClaims, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return "", jwt.AccessClaims{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	own := claims.EmployeeIDOrEmpty()
	if employeeID == "" || employeeID == own {
		if own == "" {
			return "", claims, attendance.ErrNoEmployeeProfile
		}
		return own, claims, nil
	}

	if !user.HasPermission(claims.Role, user.PermissionAttendanceViewAll) {
		return "", claims, user.ErrInsufficientPermissions
	}
	if _, err := a.EmployeeRepository.GetByID(ctx, employeeID, claims.OutletIDOrEmpty()); err != nil {
		return "", claims, err
	}
	return employeeID, claims, nil
}

func (a *AttendanceServiceImpl) listMonth(ctx context.Context, employeeID string, month time.Time) (string, []attendance.Attendance, error) {
	employeeID, claims, err := a.resolveEmployee(ctx, employeeID)
	if err != nil {
		return "", nil, err
	}

	start, end := attendance.MonthBounds(calendarDate(month))
	rows, err := a.AttendanceRepository.ListByEmployee(ctx, employeeID, claims.OutletIDOrEmpty(), start, end)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return employeeID, rows, nil
}

// ListMonth implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListMonth(ctx context.Context, employeeID string, month time.Time) (attendance.ListAttendanceResponse, error) {
	_, rows, err := a.listMonth(ctx, employeeID, month)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	responses := make([]attendance.AttendanceResponse, len(rows))
	for i, row := range rows {
		responses[i] = a.toResponse(row)
	}

	return attendance.ListAttendanceResponse{
		Month:       month.Format("2006-01"),
		TotalCount:  len(responses),
		Attendances: responses,
	}, nil
}

// GetMonthlySummary implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMonthlySummary(ctx context.Context, employeeID string, month time.Time) (attendance.MonthlySummaryResponse, error) {
	employeeID, rows, err := a.listMonth(ctx, employeeID, month)
	if err != nil {
		return attendance.MonthlySummaryResponse{}, err
	}

	return attendance.MonthlySummaryResponse{
		EmployeeID:  employeeID,
		Month:       month.Format("2006-01"),
		WorkingDays: attendance.WorkingDaysInMonth(month, a.cfg.ExcludeWeekdays...),
		Summary:     attendance.GetMonthlySummary(attendance.Records(rows), month),
	}, nil
}

// GetWorkingDays implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetWorkingDays(ctx context.Context, month time.Time, exclude []time.Weekday) (attendance.WorkingDaysResponse, error) {
	if len(exclude) == 0 {
		exclude = a.cfg.ExcludeWeekdays
	}
	if len(exclude) == 0 {
		exclude = []time.Weekday{time.Sunday}
	}

	names := make([]string, len(exclude))
	for i, wd := range exclude {
		names[i] = wd.String()
	}

	return attendance.WorkingDaysResponse{
		Month:           month.Format("2006-01"),
		ExcludeWeekdays: names,
		WorkingDays:     attendance.WorkingDaysInMonth(month, exclude...),
	}, nil
}

// LockPreviousMonth locks last month's records in every outlet once the
// configured day of the current month has been reached.
func (a *AttendanceServiceImpl) LockPreviousMonth(ctx context.Context, lockDay int) (int64, error) {
	nowLocal := a.localNow()
	if lockDay <= 0 || nowLocal.Day() < lockDay {
		return 0, nil
	}

	thisMonth, _ := attendance.MonthBounds(calendarDate(nowLocal))
	start := thisMonth.AddDate(0, -1, 0)
	return a.AttendanceRepository.LockRange(ctx, "", start, thisMonth)
}

// CloseStaleSessions closes sessions left open on earlier days at the end of their shift.
func (a *AttendanceServiceImpl) CloseStaleSessions(ctx context.Context) (int, error) {
	today := calendarDate(a.localNow())

	stale, err := a.AttendanceRepository.ListOpenBefore(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale sessions: %w", err)
	}

	closed := 0
	for _, rec := range stale {
		if rec.IsLocked || rec.ClockIn == nil {
			continue
		}
		end := a.shiftStart(rec.Date).Add(a.cfg.ShiftLength).UTC()
		if end.Before(*rec.ClockIn) {
			end = *rec.ClockIn
		}
		rec.ClockOut = &end
		rec.OvertimeHours = decimal.Zero
		if err := a.AttendanceRepository.Update(ctx, rec); err != nil {
			return closed, fmt.Errorf("failed to close session %s: %w", rec.ID, err)
		}
		closed++
	}
	return closed, nil
}
