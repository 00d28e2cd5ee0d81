package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Attendance struct {
	ID            string
	EmployeeID    string
	OutletID      string
	Date          time.Time
	Status        Status
	ClockIn       *time.Time
	ClockOut      *time.Time
	OvertimeHours decimal.Decimal
	LateMinutes   int
	IsLocked      bool
	EditReason    *string
	UpdatedBy     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// DTO
	EmployeeName *string
}

// Record projects the row onto the aggregator input.
func (a Attendance) Record() Record {
	return Record{
		Date:          a.Date,
		Status:        string(a.Status),
		OvertimeHours: a.OvertimeHours,
		LateMinutes:   a.LateMinutes,
	}
}

// Records projects a slice of rows onto aggregator input.
func Records(rows []Attendance) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}
	return records
}
