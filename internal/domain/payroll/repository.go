package payroll

import (
	"context"
	"time"
)

// PayrollRepository is the persistence boundary of the engine. CreateRun must
// reject a second non-failed run for the same organization and exact period
// with ErrDuplicateRunConflict; CreatePayslip is one atomic write per
// employee.
type PayrollRepository interface {
	CreateRun(ctx context.Context, run Run) (Run, error)
	GetRunByID(ctx context.Context, id string, organizationID string) (Run, error)
	ListRuns(ctx context.Context, organizationID string) ([]Run, error)
	UpdateRunStatus(ctx context.Context, id string, organizationID string, status RunStatus) error
	// TransitionRunStatus updates the status only while the run is still in
	// the from state; a lost race returns ErrInvalidTransition.
	TransitionRunStatus(ctx context.Context, id string, organizationID string, from, to RunStatus) error
	UpdateRunCounts(ctx context.Context, id string, total, processed, failed int) error

	CreatePayslip(ctx context.Context, payslip Payslip) (Payslip, error)
	GetPayslipByID(ctx context.Context, id string, organizationID string) (Payslip, error)
	ListPayslipsByRun(ctx context.Context, runID string, organizationID string) ([]Payslip, error)
	MarkPayslipEmailed(ctx context.Context, id string, organizationID string) error

	RecordFailure(ctx context.Context, failure RunFailure) error
	ListFailuresByRun(ctx context.Context, runID string) ([]RunFailure, error)
}

// AttendanceLog is the read-only view of attendance records: the calendar days
// an employee was marked absent inside a range.
type AttendanceLog interface {
	AbsenceDatesInRange(ctx context.Context, employeeID string, start, end time.Time) ([]time.Time, error)
}

// LeaveLog is the read-only view of approved unpaid leave: the calendar days
// covered by approved applications of unpaid leave types inside a range.
type LeaveLog interface {
	UnpaidLeaveDaysInRange(ctx context.Context, employeeID string, start, end time.Time) ([]time.Time, error)
}
