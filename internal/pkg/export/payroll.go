package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	PayrollSheet = "Payroll"
	XLSXMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	numFmtMoney = 4 // #,##0.00
)

var payrollHeader = []interface{}{
	"Employee", "Position", "Period", "Working Days", "Present", "Leave", "Half Days",
	"Unpaid Leave Days", "Overtime Hours", "Late Minutes",
	"Base Salary", "Overtime Pay", "Incentives", "Bonus", "Allowances", "Gross Pay",
	"Late Penalty", "Unpaid Leave Deduction", "Advances", "Other Deductions",
	"Total Deductions", "Net Pay", "Status",
}

// money columns, 1-based
const (
	firstMoneyCol = 11
	lastMoneyCol  = 22
)

// PayrollFileName is the export name for period, e.g. payroll-2026-02.xlsx.
func PayrollFileName(period time.Time) string {
	return fmt.Sprintf("payroll-%s.xlsx", period.Format("2006-01"))
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func payrollRow(r payroll.PayrollRecord) []interface{} {
	b := r.Breakdown
	return []interface{}{
		str(r.EmployeeName), str(r.Position), r.Period.Format("2006-01"),
		r.TotalWorkingDays, r.PresentDays, r.LeaveDays, r.HalfDays,
		num(r.UnpaidLeaveDays), num(r.OvertimeHours), r.LateMinutes,
		num(b.BaseSalary), num(b.OvertimePay), num(b.Incentives), num(b.Bonus), num(b.Allowances), num(b.GrossPay),
		num(b.LatePenalty), num(b.UnpaidLeaveDeduction), num(b.Advances), num(b.OtherDeductions),
		num(b.TotalDeductions), num(b.NetPay), string(r.Status),
	}
}

// totalsRow sums the money columns with decimal arithmetic so the
// written totals match the stored records exactly.
func totalsRow(records []payroll.PayrollRecord) []interface{} {
	var gross, deductions, net decimal.Decimal
	for _, r := range records {
		gross = gross.Add(r.GrossPay)
		deductions = deductions.Add(r.TotalDeductions)
		net = net.Add(r.NetPay)
	}

	row := make([]interface{}, len(payrollHeader))
	row[0] = "TOTAL"
	row[15] = num(gross)
	row[20] = num(deductions)
	row[21] = num(net)
	return row
}

// PayrollWorkbook renders records as a single-sheet XLSX.
func PayrollWorkbook(period time.Time, records []payroll.PayrollRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), PayrollSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtMoney})
	if err != nil {
		return nil, fmt.Errorf("money style: %w", err)
	}

	if err := f.SetSheetRow(PayrollSheet, "A1", &payrollHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	lastHeaderCell, err := excelize.CoordinatesToCellName(len(payrollHeader), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(PayrollSheet, "A1", lastHeaderCell, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := payrollRow(r)
		if err := f.SetSheetRow(PayrollSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	totalRowNum := len(records) + 2
	totalCell, err := excelize.CoordinatesToCellName(1, totalRowNum)
	if err != nil {
		return nil, err
	}
	totals := totalsRow(records)
	if err := f.SetSheetRow(PayrollSheet, totalCell, &totals); err != nil {
		return nil, fmt.Errorf("write totals: %w", err)
	}

	firstMoney, err := excelize.CoordinatesToCellName(firstMoneyCol, 2)
	if err != nil {
		return nil, err
	}
	lastMoney, err := excelize.CoordinatesToCellName(lastMoneyCol, totalRowNum)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(PayrollSheet, firstMoney, lastMoney, moneyStyle); err != nil {
		return nil, fmt.Errorf("style money: %w", err)
	}
	if err := f.SetColWidth(PayrollSheet, "A", "W", 16); err != nil {
		return nil, fmt.Errorf("column width: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Payroll " + period.Format("January 2006"),
		Creator: "cafe-backend",
	}); err != nil {
		return nil, fmt.Errorf("doc props: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
