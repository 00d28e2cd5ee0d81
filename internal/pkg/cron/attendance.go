package cron

import (
	"context"
	"log/slog"
	"time"
)

// AttendanceMaintenance is the part of the attendance service run in the background.
type AttendanceMaintenance interface {
	LockPreviousMonth(ctx context.Context, lockDay int) (int64, error)
	CloseStaleSessions(ctx context.Context) (int, error)
}

type AttendanceJobs struct {
	attendance   AttendanceMaintenance
	lockDay      int
	lockInterval time.Duration
}

// NewAttendanceJobs creates attendance cron jobs. A lockDay of 0 disables auto-lock.
func NewAttendanceJobs(attendance AttendanceMaintenance, lockDay int, lockInterval time.Duration) *AttendanceJobs {
	if lockInterval <= 0 {
		lockInterval = time.Hour
	}
	return &AttendanceJobs{
		attendance:   attendance,
		lockDay:      lockDay,
		lockInterval: lockInterval,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("close_stale_attendances", 1*time.Hour, j.CloseStaleAttendances)
	if j.lockDay > 0 {
		scheduler.AddJob("lock_previous_month", j.lockInterval, j.LockPreviousMonth)
	}
}

// CloseStaleAttendances clocks out sessions left open on earlier days.
func (j *AttendanceJobs) CloseStaleAttendances(ctx context.Context) error {
	closed, err := j.attendance.CloseStaleSessions(ctx)
	if err != nil {
		return err
	}
	if closed > 0 {
		slog.Info("cron: closed stale attendances", "count", closed)
	}
	return nil
}

// LockPreviousMonth is idempotent; locking an already locked month updates nothing.
func (j *AttendanceJobs) LockPreviousMonth(ctx context.Context) error {
	locked, err := j.attendance.LockPreviousMonth(ctx, j.lockDay)
	if err != nil {
		return err
	}
	if locked > 0 {
		slog.Info("cron: locked previous month attendance", "count", locked)
	}
	return nil
}
