package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"

	"github.com/workstream-hq/payroll-engine-go/internal/config"
	"github.com/workstream-hq/payroll-engine-go/internal/domain/employee"
	"github.com/workstream-hq/payroll-engine-go/internal/domain/payroll"
	"github.com/workstream-hq/payroll-engine-go/internal/domain/salary"
	"github.com/workstream-hq/payroll-engine-go/internal/service/structure"
)

// PayrollServiceImpl orchestrates payroll runs: it owns the run state machine
// and fans per-employee work units out across a bounded worker pool. Each
// work unit fetches its inputs up front, evaluates the employee's structure,
// prorates earnings and persists the payslip in a single write; failures are
// recorded per employee and never abort sibling units.
type PayrollServiceImpl struct {
	cfg            config.PayrollConfig
	logger         *slog.Logger
	payrollRepo    payroll.PayrollRepository
	directory      employee.Directory
	assignmentRepo salary.AssignmentRepository
	structureRepo  salary.StructureRepository
	attendanceLog  payroll.AttendanceLog
	leaveLog       payroll.LeaveLog
	events         EventSink

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewPayrollService(
	cfg config.PayrollConfig,
	logger *slog.Logger,
	payrollRepo payroll.PayrollRepository,
	directory employee.Directory,
	assignmentRepo salary.AssignmentRepository,
	structureRepo salary.StructureRepository,
	attendanceLog payroll.AttendanceLog,
	leaveLog payroll.LeaveLog,
	events EventSink,
) *PayrollServiceImpl {
	if events == nil {
		events = LogSink{Logger: logger}
	}
	return &PayrollServiceImpl{
		cfg:            cfg,
		logger:         logger,
		payrollRepo:    payrollRepo,
		directory:      directory,
		assignmentRepo: assignmentRepo,
		structureRepo:  structureRepo,
		attendanceLog:  attendanceLog,
		leaveLog:       leaveLog,
		events:         events,
		cancels:        make(map[string]context.CancelFunc),
	}
}

// Helper to get organization_id and user_id from JWT context
func getClaimsFromContext(ctx context.Context) (organizationID, userID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	organizationID, ok := claims["organization_id"].(string)
	if !ok || organizationID == "" {
		return "", "", fmt.Errorf("organization_id claim is missing or invalid")
	}

	userID, _ = claims["user_id"].(string)

	return organizationID, userID, nil
}

// ========== RUN LIFECYCLE ==========

func (s *PayrollServiceImpl) InitiateRun(ctx context.Context, req payroll.InitiateRunRequest) (payroll.RunResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RunResponse{}, err
	}

	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	start, end := req.Period()
	run := payroll.Run{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		PeriodStart:    start,
		PeriodEnd:      end,
		EmployeeIDs:    req.EmployeeIDs,
		Status:         payroll.RunStatusDraft,
	}

	created, err := s.payrollRepo.CreateRun(ctx, run)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	s.logger.Info("payroll run created",
		"run_id", created.ID,
		"organization_id", organizationID,
		"period_start", req.PeriodStart,
		"period_end", req.PeriodEnd)

	return mapToRunResponse(created), nil
}

func (s *PayrollServiceImpl) SubmitRun(ctx context.Context, runID string) (payroll.RunResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	run, err := s.payrollRepo.GetRunByID(ctx, runID, organizationID)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	if !run.Status.CanTransitionTo(payroll.RunStatusPendingApproval) {
		return payroll.RunResponse{}, fmt.Errorf("%w: %s to %s", payroll.ErrInvalidTransition, run.Status, payroll.RunStatusPendingApproval)
	}

	if err := s.payrollRepo.TransitionRunStatus(ctx, runID, organizationID, run.Status, payroll.RunStatusPendingApproval); err != nil {
		return payroll.RunResponse{}, err
	}
	run.Status = payroll.RunStatusPendingApproval

	return mapToRunResponse(run), nil
}

// ApproveRun moves the run into processing and starts the batch in the
// background. GetRunStatus reports progress and the final outcome.
func (s *PayrollServiceImpl) ApproveRun(ctx context.Context, runID string) (payroll.RunResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	run, err := s.payrollRepo.GetRunByID(ctx, runID, organizationID)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	if !run.Status.CanTransitionTo(payroll.RunStatusProcessing) {
		return payroll.RunResponse{}, fmt.Errorf("%w: %s to %s", payroll.ErrInvalidTransition, run.Status, payroll.RunStatusProcessing)
	}

	// Conditional on the status we read, so two concurrent approvals cannot
	// both start the batch.
	if err := s.payrollRepo.TransitionRunStatus(ctx, runID, organizationID, run.Status, payroll.RunStatusProcessing); err != nil {
		return payroll.RunResponse{}, err
	}
	run.Status = payroll.RunStatusProcessing

	// The batch outlives the request; keep context values (claims) but not
	// the request's cancellation.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.cancels[run.ID] = cancel
	s.mu.Unlock()

	go s.processRun(runCtx, run)

	return mapToRunResponse(run), nil
}

// AbortRun stops dispatching new work for the run. In-flight employees finish
// their current unit; the run ends up failed.
func (s *PayrollServiceImpl) AbortRun(ctx context.Context, runID string) error {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	run, err := s.payrollRepo.GetRunByID(ctx, runID, organizationID)
	if err != nil {
		return err
	}
	if run.Status != payroll.RunStatusProcessing {
		return fmt.Errorf("%w: cannot abort a %s run", payroll.ErrInvalidTransition, run.Status)
	}

	s.mu.Lock()
	cancel, ok := s.cancels[runID]
	s.mu.Unlock()
	if ok {
		cancel()
	}

	s.logger.Info("payroll run abort requested", "run_id", runID)
	return nil
}

func (s *PayrollServiceImpl) GetRunStatus(ctx context.Context, runID string) (payroll.RunStatusResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RunStatusResponse{}, err
	}

	run, err := s.payrollRepo.GetRunByID(ctx, runID, organizationID)
	if err != nil {
		return payroll.RunStatusResponse{}, err
	}

	failures, err := s.payrollRepo.ListFailuresByRun(ctx, runID)
	if err != nil {
		return payroll.RunStatusResponse{}, err
	}

	result := payroll.RunStatusResponse{Run: mapToRunResponse(run)}
	for _, f := range failures {
		result.Failures = append(result.Failures, payroll.RunFailureResponse{
			EmployeeID: f.EmployeeID,
			Reason:     f.Reason,
		})
	}

	return result, nil
}

func (s *PayrollServiceImpl) ListRuns(ctx context.Context) ([]payroll.RunResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	runs, err := s.payrollRepo.ListRuns(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.RunResponse, 0, len(runs))
	for _, run := range runs {
		result = append(result, mapToRunResponse(run))
	}

	return result, nil
}

// ========== BATCH PROCESSING ==========

type unitResult struct {
	employeeID string
	err        error
}

func (s *PayrollServiceImpl) processRun(ctx context.Context, run payroll.Run) {
	defer func() {
		s.mu.Lock()
		if cancel, ok := s.cancels[run.ID]; ok {
			cancel()
			delete(s.cancels, run.ID)
		}
		s.mu.Unlock()
	}()

	// Final writes must land even after an abort cancelled ctx.
	persistCtx := context.WithoutCancel(ctx)

	employees, err := s.directory.ActiveEmployees(ctx, run.OrganizationID, run.EmployeeIDs)
	if err != nil {
		s.logger.Error("failed to resolve run employees", "run_id", run.ID, "error", err)
		s.finishRun(persistCtx, run, 0, 0, 0, fmt.Errorf("resolving run employees: %w", err))
		return
	}

	total := len(employees)
	if err := s.payrollRepo.UpdateRunCounts(persistCtx, run.ID, total, 0, 0); err != nil {
		s.logger.Warn("failed to update run counts", "run_id", run.ID, "error", err)
	}

	workers := s.cfg.WorkerPoolSize
	if workers > total {
		workers = total
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan employee.EmployeeRef)
	results := make(chan unitResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for emp := range jobs {
				results <- s.processEmployee(ctx, persistCtx, run, emp)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, emp := range employees {
			select {
			case <-ctx.Done():
				return
			case jobs <- emp:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]unitResult, 0, total)
	for r := range results {
		collected = append(collected, r)
		s.events.EmployeeProcessed(persistCtx, payroll.EmployeeProcessedEvent{
			RunID:      run.ID,
			EmployeeID: r.employeeID,
			Success:    r.err == nil,
			Err:        r.err,
		})
	}

	// Aggregation is independent of worker scheduling.
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].employeeID < collected[j].employeeID
	})

	processed, failed := 0, 0
	for _, r := range collected {
		if r.err == nil {
			processed++
			continue
		}
		failed++
		if err := s.payrollRepo.RecordFailure(persistCtx, payroll.RunFailure{
			RunID:      run.ID,
			EmployeeID: r.employeeID,
			Reason:     r.err.Error(),
		}); err != nil {
			s.logger.Warn("failed to record run failure", "run_id", run.ID, "employee_id", r.employeeID, "error", err)
		}
	}

	var cause error
	if ctx.Err() != nil {
		cause = payroll.ErrRunAborted
	}
	s.finishRun(persistCtx, run, total, processed, failed, cause)
}

// finishRun persists the final counts and status. A non-nil cause forces the
// run to failed regardless of the failure threshold.
func (s *PayrollServiceImpl) finishRun(ctx context.Context, run payroll.Run, total, processed, failed int, cause error) {
	if err := s.payrollRepo.UpdateRunCounts(ctx, run.ID, total, processed, failed); err != nil {
		s.logger.Warn("failed to update run counts", "run_id", run.ID, "error", err)
	}

	status := payroll.RunStatusCompleted
	switch {
	case cause != nil:
		status = payroll.RunStatusFailed
	case total > 0 && float64(failed)/float64(total) > s.cfg.FailureThreshold:
		status = payroll.RunStatusFailed
	}

	if err := s.payrollRepo.UpdateRunStatus(ctx, run.ID, run.OrganizationID, status); err != nil {
		s.logger.Error("failed to finalize run status", "run_id", run.ID, "error", err)
		return
	}

	logArgs := []any{
		"run_id", run.ID,
		"status", status,
		"total", total,
		"processed", processed,
		"failed", failed,
	}
	if cause != nil {
		logArgs = append(logArgs, "cause", cause.Error())
	}
	s.logger.Info("payroll run finished", logArgs...)
}

// processEmployee runs one full work unit: fetch inputs (with retries),
// evaluate, prorate, assemble and persist. Errors are returned, never thrown
// past the worker.
func (s *PayrollServiceImpl) processEmployee(ctx, persistCtx context.Context, run payroll.Run, emp employee.EmployeeRef) unitResult {
	var (
		assignment salary.SalaryAssignment
		st         salary.SalaryStructure
		absences   []time.Time
		leaveDays  []time.Time
	)

	err := s.fetchWithRetry(ctx, "active assignment", func(ctx context.Context) error {
		var err error
		assignment, err = s.assignmentRepo.ActiveAssignment(ctx, emp.ID)
		return err
	})
	if err == nil {
		err = s.fetchWithRetry(ctx, "salary structure", func(ctx context.Context) error {
			var err error
			st, err = s.structureRepo.GetByID(ctx, assignment.StructureID, run.OrganizationID)
			return err
		})
	}
	if err == nil {
		err = s.fetchWithRetry(ctx, "absences", func(ctx context.Context) error {
			var err error
			absences, err = s.attendanceLog.AbsenceDatesInRange(ctx, emp.ID, run.PeriodStart, run.PeriodEnd)
			return err
		})
	}
	if err == nil {
		err = s.fetchWithRetry(ctx, "unpaid leave days", func(ctx context.Context) error {
			var err error
			leaveDays, err = s.leaveLog.UnpaidLeaveDaysInRange(ctx, emp.ID, run.PeriodStart, run.PeriodEnd)
			return err
		})
	}
	if err != nil {
		return unitResult{employeeID: emp.ID, err: err}
	}

	// Pure computation from here: no storage access until the final write.
	values, err := structure.Evaluate(structure.Input{
		BasicSalary: assignment.BasicSalary,
		Structure:   st,
		Overrides:   assignment.Overrides,
	})
	if err != nil {
		return unitResult{employeeID: emp.ID, err: err}
	}

	workingDays := WorkingDaysInPeriod(run.PeriodStart, run.PeriodEnd, s.cfg.NonWorkingDays)
	proration := CalculateProration(s.logger, workingDays, run.PeriodStart, run.PeriodEnd, absences, leaveDays)
	values = proration.Apply(values)

	payslip := AssemblePayslip(run.ID, emp.ID, values, proration)
	payslip.ID = uuid.NewString()

	if _, err := s.payrollRepo.CreatePayslip(persistCtx, payslip); err != nil {
		return unitResult{employeeID: emp.ID, err: err}
	}

	return unitResult{employeeID: emp.ID}
}

// fetchWithRetry retries transient fetch errors with doubling backoff up to
// the configured attempt limit, then wraps the last error as a fetch timeout.
// Definitive not-found answers are returned immediately.
func (s *PayrollServiceImpl) fetchWithRetry(ctx context.Context, operation string, fn func(context.Context) error) error {
	delay := s.cfg.FetchRetryBaseDelay
	var err error
	for attempt := 1; attempt <= s.cfg.FetchRetryAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		if attempt == s.cfg.FetchRetryAttempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", payroll.ErrRunAborted, operation)
		}
		delay *= 2
	}
	return fmt.Errorf("%w: %s: %v", payroll.ErrDataFetchTimeout, operation, err)
}

func isRetryable(err error) bool {
	switch {
	case errors.Is(err, salary.ErrNoActiveAssignment),
		errors.Is(err, salary.ErrAssignmentNotFound),
		errors.Is(err, salary.ErrStructureNotFound):
		return false
	}
	return true
}

// ========== PAYSLIPS ==========

func (s *PayrollServiceImpl) ListRunPayslips(ctx context.Context, runID string) ([]payroll.PayslipResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	payslips, err := s.payrollRepo.ListPayslipsByRun(ctx, runID, organizationID)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.PayslipResponse, 0, len(payslips))
	for _, p := range payslips {
		result = append(result, mapToPayslipResponse(p))
	}

	return result, nil
}

func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, payslipID string) (payroll.PayslipResponse, error) {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	payslip, err := s.payrollRepo.GetPayslipByID(ctx, payslipID, organizationID)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	return mapToPayslipResponse(payslip), nil
}

func (s *PayrollServiceImpl) MarkPayslipEmailed(ctx context.Context, payslipID string) error {
	organizationID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	return s.payrollRepo.MarkPayslipEmailed(ctx, payslipID, organizationID)
}

// ========== HELPERS ==========

func mapToRunResponse(r payroll.Run) payroll.RunResponse {
	var paymentDateStr *string
	if r.PaymentDate != nil {
		str := r.PaymentDate.Format("2006-01-02")
		paymentDateStr = &str
	}

	return payroll.RunResponse{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		PeriodStart:    r.PeriodStart.Format("2006-01-02"),
		PeriodEnd:      r.PeriodEnd.Format("2006-01-02"),
		Status:         string(r.Status),
		PaymentDate:    paymentDateStr,
		TotalEmployees: r.TotalEmployees,
		ProcessedCount: r.ProcessedCount,
		FailedCount:    r.FailedCount,
	}
}

func mapToPayslipResponse(p payroll.Payslip) payroll.PayslipResponse {
	return payroll.PayslipResponse{
		ID:                  p.ID,
		RunID:               p.RunID,
		EmployeeID:          p.EmployeeID,
		EarningsBreakdown:   p.EarningsBreakdown,
		DeductionsBreakdown: p.DeductionsBreakdown,
		GrossEarnings:       p.GrossEarnings,
		TotalDeductions:     p.TotalDeductions,
		NetPay:              p.NetPay,
		Summary: payroll.PayslipSummary{
			WorkingDays: p.WorkingDays,
			LOPDays:     p.LOPDays,
		},
		Emailed: p.Emailed,
	}
}
