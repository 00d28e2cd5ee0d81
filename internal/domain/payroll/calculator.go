package payroll

import (
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places every monetary amount is rounded to.
const MoneyPlaces = 2

// Input holds the attendance aggregates and compensation parameters for one
// employee and one period. Optional add-ons and deductions default to zero.
type Input struct {
	BaseSalary       decimal.Decimal `json:"base_salary"`
	TotalWorkingDays int             `json:"total_working_days"`
	PresentDays      int             `json:"present_days"`
	LeaveDays        int             `json:"leave_days"`
	HalfDays         int             `json:"half_days"`
	OvertimeHours    decimal.Decimal `json:"overtime_hours"`
	OvertimeRate     decimal.Decimal `json:"overtime_rate"`
	Incentives       decimal.Decimal `json:"incentives"`
	Bonus            decimal.Decimal `json:"bonus"`
	Allowances       decimal.Decimal `json:"allowances"`
	Advances         decimal.Decimal `json:"advances"`
	OtherDeductions  decimal.Decimal `json:"other_deductions"`
	LateMinutes      int             `json:"late_minutes"`
	LatePenaltyRate  decimal.Decimal `json:"late_penalty_rate"`
	UnpaidLeaveDays  decimal.Decimal `json:"unpaid_leave_days"`
}

// Breakdown is the earnings and deductions of one payroll run.
type Breakdown struct {
	BaseSalary           decimal.Decimal `json:"base_salary"`
	OvertimePay          decimal.Decimal `json:"overtime_pay"`
	Incentives           decimal.Decimal `json:"incentives"`
	Bonus                decimal.Decimal `json:"bonus"`
	Allowances           decimal.Decimal `json:"allowances"`
	GrossPay             decimal.Decimal `json:"gross_pay"`
	LatePenalty          decimal.Decimal `json:"late_penalty"`
	UnpaidLeaveDeduction decimal.Decimal `json:"unpaid_leave_deduction"`
	Advances             decimal.Decimal `json:"advances"`
	OtherDeductions      decimal.Decimal `json:"other_deductions"`
	TotalDeductions      decimal.Decimal `json:"total_deductions"`
	NetPay               decimal.Decimal `json:"net_pay"`
}

// RoundMoney rounds d to two decimal places, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// CalculateOvertimePay returns hours * rate.
func CalculateOvertimePay(hours, rate decimal.Decimal) decimal.Decimal {
	return RoundMoney(hours.Mul(rate))
}

// CalculateLatePenalty returns minutes * ratePerMinute, or zero when no rate is configured.
func CalculateLatePenalty(minutes int, ratePerMinute decimal.Decimal) decimal.Decimal {
	if ratePerMinute.IsZero() {
		return decimal.Zero
	}
	return RoundMoney(decimal.NewFromInt(int64(minutes)).Mul(ratePerMinute))
}

// CalculateUnpaidLeaveDeduction prorates baseSalary per working day and charges unpaidDays of it.
// It returns zero when either totalWorkingDays or unpaidDays is zero.
func CalculateUnpaidLeaveDeduction(baseSalary decimal.Decimal, totalWorkingDays int, unpaidDays decimal.Decimal) decimal.Decimal {
	if totalWorkingDays == 0 || unpaidDays.IsZero() {
		return decimal.Zero
	}
	perDay := baseSalary.Div(decimal.NewFromInt(int64(totalWorkingDays)))
	return RoundMoney(perDay.Mul(unpaidDays))
}

// GenerateBreakdown computes the pay breakdown for in.
//
// Every component and every subtotal is rounded on its own, so the same input
// always yields the same output. Net pay is floored at zero.
func GenerateBreakdown(in Input) Breakdown {
	b := Breakdown{
		BaseSalary:  RoundMoney(in.BaseSalary),
		OvertimePay: CalculateOvertimePay(in.OvertimeHours, in.OvertimeRate),
		Incentives:  RoundMoney(in.Incentives),
		Bonus:       RoundMoney(in.Bonus),
		Allowances:  RoundMoney(in.Allowances),

		LatePenalty:          CalculateLatePenalty(in.LateMinutes, in.LatePenaltyRate),
		UnpaidLeaveDeduction: CalculateUnpaidLeaveDeduction(in.BaseSalary, in.TotalWorkingDays, in.UnpaidLeaveDays),
		Advances:             RoundMoney(in.Advances),
		OtherDeductions:      RoundMoney(in.OtherDeductions),
	}

	b.GrossPay = RoundMoney(b.BaseSalary.
		Add(b.OvertimePay).
		Add(b.Incentives).
		Add(b.Bonus).
		Add(b.Allowances))

	b.TotalDeductions = RoundMoney(b.LatePenalty.
		Add(b.UnpaidLeaveDeduction).
		Add(b.Advances).
		Add(b.OtherDeductions))

	b.NetPay = RoundMoney(decimal.Max(decimal.Zero, b.GrossPay.Sub(b.TotalDeductions)))

	return b
}

// Validate reports every negative field. GenerateBreakdown never calls it;
// callers opt in when negative input must be rejected.
func (in Input) Validate() error {
	var errs validator.ValidationErrors

	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"base_salary", in.BaseSalary},
		{"overtime_hours", in.OvertimeHours},
		{"overtime_rate", in.OvertimeRate},
		{"incentives", in.Incentives},
		{"bonus", in.Bonus},
		{"allowances", in.Allowances},
		{"advances", in.Advances},
		{"other_deductions", in.OtherDeductions},
		{"late_penalty_rate", in.LatePenaltyRate},
		{"unpaid_leave_days", in.UnpaidLeaveDays},
	}
	for _, m := range amounts {
		if m.value.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: m.field, Message: m.field + " must be non-negative"})
		}
	}

	counts := []struct {
		field string
		value int
	}{
		{"total_working_days", in.TotalWorkingDays},
		{"present_days", in.PresentDays},
		{"leave_days", in.LeaveDays},
		{"half_days", in.HalfDays},
		{"late_minutes", in.LateMinutes},
	}
	for _, c := range counts {
		if c.value < 0 {
			errs = append(errs, validator.ValidationError{Field: c.field, Message: c.field + " must be non-negative"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
