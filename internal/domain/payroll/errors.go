package payroll

import "errors"

var (
	ErrRunNotFound          = errors.New("payroll run not found")
	ErrDuplicateRunConflict = errors.New("a payroll run for this period already exists")
	ErrInvalidTransition    = errors.New("invalid payroll run status transition")
	ErrInvalidPeriod        = errors.New("invalid pay period")
	ErrPayslipNotFound      = errors.New("payslip not found")
	ErrPayslipExists        = errors.New("payslip already exists for this run and employee")
	ErrDataFetchTimeout     = errors.New("employee data fetch failed after retries")
	ErrRunAborted           = errors.New("payroll run aborted")
)
