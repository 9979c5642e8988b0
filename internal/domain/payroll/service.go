package payroll

import "context"

// PayrollService drives payroll runs. The organization id comes from the
// caller's token claims on the context.
type PayrollService interface {
	InitiateRun(ctx context.Context, req InitiateRunRequest) (RunResponse, error)
	SubmitRun(ctx context.Context, runID string) (RunResponse, error)
	ApproveRun(ctx context.Context, runID string) (RunResponse, error)
	AbortRun(ctx context.Context, runID string) error
	GetRunStatus(ctx context.Context, runID string) (RunStatusResponse, error)
	ListRuns(ctx context.Context) ([]RunResponse, error)
	ListRunPayslips(ctx context.Context, runID string) ([]PayslipResponse, error)
	GetPayslip(ctx context.Context, payslipID string) (PayslipResponse, error)
	// MarkPayslipEmailed records that the surrounding application delivered
	// the payslip. The computed amounts stay immutable.
	MarkPayslipEmailed(ctx context.Context, payslipID string) error
}
