package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/payroll"
	"github.com/workstream-hq/payroll-engine-go/internal/domain/salary"
	"github.com/workstream-hq/payroll-engine-go/internal/service/structure"
)

// AssemblePayslip partitions prorated component values into earnings and
// deductions, totals them and attaches the period summary. Totals are rounded
// half-up to 2 decimal places after every addition so they are reproducible
// regardless of how amounts were produced.
func AssemblePayslip(runID, employeeID string, values []structure.ComponentValue, proration Proration) payroll.Payslip {
	var earnings, deductions []payroll.PayslipLine
	gross := decimal.Zero
	totalDeductions := decimal.Zero

	for _, v := range values {
		line := payroll.PayslipLine{
			SourceComponentID: v.ComponentID,
			Name:              v.Name,
			Amount:            v.Amount,
		}
		if v.Kind == salary.ComponentKindDeduction {
			deductions = append(deductions, line)
			totalDeductions = totalDeductions.Add(v.Amount).Round(2)
		} else {
			earnings = append(earnings, line)
			gross = gross.Add(v.Amount).Round(2)
		}
	}

	return payroll.Payslip{
		RunID:               runID,
		EmployeeID:          employeeID,
		EarningsBreakdown:   earnings,
		DeductionsBreakdown: deductions,
		GrossEarnings:       gross,
		TotalDeductions:     totalDeductions,
		NetPay:              gross.Sub(totalDeductions).Round(2),
		WorkingDays:         proration.WorkingDays,
		LOPDays:             proration.LOPDays,
	}
}
