package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunStatus enum
type RunStatus string

const (
	RunStatusDraft           RunStatus = "draft"
	RunStatusPendingApproval RunStatus = "pending_approval"
	RunStatusProcessing      RunStatus = "processing"
	RunStatusCompleted       RunStatus = "completed"
	RunStatusFailed          RunStatus = "failed"
)

// CanTransitionTo encodes the run state machine:
// draft → pending_approval → processing → {completed | failed},
// with approval allowed straight from draft.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	switch s {
	case RunStatusDraft:
		return next == RunStatusPendingApproval || next == RunStatusProcessing
	case RunStatusPendingApproval:
		return next == RunStatusProcessing
	case RunStatusProcessing:
		return next == RunStatusCompleted || next == RunStatusFailed
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// Run - one payroll batch for an organization and pay period. EmployeeIDs
// restricts the batch to a subset of the organization's active employees;
// empty means everyone.
type Run struct {
	ID             string
	OrganizationID string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	EmployeeIDs    []string
	Status         RunStatus
	PaymentDate    *time.Time
	TotalEmployees int
	ProcessedCount int
	FailedCount    int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RunFailure records one employee whose work unit failed inside a run.
type RunFailure struct {
	RunID      string
	EmployeeID string
	Reason     string
	CreatedAt  time.Time
}

// PayslipLine is one computed component snapshot on a payslip.
type PayslipLine struct {
	SourceComponentID string          `json:"source_component_id"`
	Name              string          `json:"name"`
	Amount            decimal.Decimal `json:"amount"`
}

// Payslip - immutable per (run, employee) computation result. Only the
// delivery metadata (Emailed) may change after creation.
type Payslip struct {
	ID                  string
	RunID               string
	EmployeeID          string
	EarningsBreakdown   []PayslipLine
	DeductionsBreakdown []PayslipLine
	GrossEarnings       decimal.Decimal
	TotalDeductions     decimal.Decimal
	NetPay              decimal.Decimal
	WorkingDays         int
	LOPDays             int
	Emailed             bool
	CreatedAt           time.Time
}

// EmployeeProcessedEvent is emitted once per work unit for observability.
type EmployeeProcessedEvent struct {
	RunID      string
	EmployeeID string
	Success    bool
	Err        error
}
