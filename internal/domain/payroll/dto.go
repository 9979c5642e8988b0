package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/workstream-hq/payroll-engine-go/internal/pkg/validator"
)

// ========== RUN DTOs ==========

type InitiateRunRequest struct {
	PeriodStart string   `json:"period_start"`
	PeriodEnd   string   `json:"period_end"`
	EmployeeIDs []string `json:"employee_ids,omitempty"`
}

func (r *InitiateRunRequest) Validate() error {
	var errs validator.ValidationErrors

	start, okStart := validator.IsValidDate(r.PeriodStart)
	if !okStart {
		errs = append(errs, validator.ValidationError{Field: "period_start", Message: "must be a YYYY-MM-DD date"})
	}
	end, okEnd := validator.IsValidDate(r.PeriodEnd)
	if !okEnd {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must be a YYYY-MM-DD date"})
	}
	if len(errs) > 0 {
		return errs
	}

	if end.Before(start) {
		return fmt.Errorf("%w: period_end %s is before period_start %s", ErrInvalidPeriod, r.PeriodEnd, r.PeriodStart)
	}
	return nil
}

// Period returns the parsed pay period. Validate must have passed.
func (r *InitiateRunRequest) Period() (start, end time.Time) {
	start, _ = validator.IsValidDate(r.PeriodStart)
	end, _ = validator.IsValidDate(r.PeriodEnd)
	return start, end
}

type RunResponse struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	PeriodStart    string  `json:"period_start"`
	PeriodEnd      string  `json:"period_end"`
	Status         string  `json:"status"`
	PaymentDate    *string `json:"payment_date,omitempty"`
	TotalEmployees int     `json:"total_employees"`
	ProcessedCount int     `json:"processed_count"`
	FailedCount    int     `json:"failed_count"`
}

type RunFailureResponse struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

type RunStatusResponse struct {
	Run      RunResponse          `json:"run"`
	Failures []RunFailureResponse `json:"failures,omitempty"`
}

// ========== PAYSLIP DTOs ==========

type PayslipResponse struct {
	ID                  string          `json:"id"`
	RunID               string          `json:"run_id"`
	EmployeeID          string          `json:"employee_id"`
	EarningsBreakdown   []PayslipLine   `json:"earnings_breakdown"`
	DeductionsBreakdown []PayslipLine   `json:"deductions_breakdown"`
	GrossEarnings       decimal.Decimal `json:"gross_earnings"`
	TotalDeductions     decimal.Decimal `json:"total_deductions"`
	NetPay              decimal.Decimal `json:"net_pay"`
	Summary             PayslipSummary  `json:"summary"`
	Emailed             bool            `json:"emailed"`
}

type PayslipSummary struct {
	WorkingDays int `json:"working_days"`
	LOPDays     int `json:"lop_days"`
}
