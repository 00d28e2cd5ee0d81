package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is the minimal shape the aggregator folds over.
type Record struct {
	Date          time.Time
	Status        string
	OvertimeHours decimal.Decimal
	LateMinutes   int
}

// MonthlySummary is derived on demand from a month of records and never stored.
type MonthlySummary struct {
	TotalDays       int             `json:"total_days"`
	PresentDays     int             `json:"present_days"`
	AbsentDays      int             `json:"absent_days"`
	LeaveDays       int             `json:"leave_days"`
	HalfDays        int             `json:"half_days"`
	UnpaidLeaveDays int             `json:"unpaid_leave_days"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours"`
	LateMinutes     int             `json:"late_minutes"`
}

// DaysInMonth returns the number of calendar days in the month containing t.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthBounds returns the first day of the month containing t and the first day of the next month.
func MonthBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// GetMonthlySummary folds records into per-status counts for month.
// TotalDays is the length of the month, not the number of records.
// Records with an unrecognized status are not counted in any bucket
// but still contribute overtime and lateness.
func GetMonthlySummary(records []Record, month time.Time) MonthlySummary {
	summary := MonthlySummary{
		TotalDays:     DaysInMonth(month),
		OvertimeHours: decimal.Zero,
	}

	for _, r := range records {
		if status, ok := ParseStatus(r.Status); ok {
			switch status {
			case StatusPresent:
				summary.PresentDays++
			case StatusAbsent:
				summary.AbsentDays++
			case StatusLeave:
				summary.LeaveDays++
			case StatusHalfDay:
				summary.HalfDays++
			case StatusUnpaidLeave:
				summary.UnpaidLeaveDays++
			}
		}
		summary.OvertimeHours = summary.OvertimeHours.Add(r.OvertimeHours)
		summary.LateMinutes += r.LateMinutes
	}

	return summary
}

// WorkingDaysInMonth counts the days of month whose weekday is not excluded.
// With no exclusions given only Sundays are skipped.
func WorkingDaysInMonth(month time.Time, exclude ...time.Weekday) int {
	if len(exclude) == 0 {
		exclude = []time.Weekday{time.Sunday}
	}
	skip := make(map[time.Weekday]bool, len(exclude))
	for _, wd := range exclude {
		skip[wd] = true
	}

	days := DaysInMonth(month)
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	count := 0
	for i := 0; i < days; i++ {
		if !skip[first.AddDate(0, 0, i).Weekday()] {
			count++
		}
	}
	return count
}
