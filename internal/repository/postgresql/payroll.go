package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/payroll"
	"github.com/workstream-hq/payroll-engine-go/internal/pkg/database"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// ========== RUNS ==========

func (r *payrollRepository) CreateRun(ctx context.Context, run payroll.Run) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	employeeIDs, err := json.Marshal(run.EmployeeIDs)
	if err != nil {
		return payroll.Run{}, fmt.Errorf("failed to marshal run employee ids: %w", err)
	}

	query := `
		INSERT INTO payroll_runs (id, organization_id, period_start, period_end, employee_ids, status, payment_date, total_employees, processed_count, failed_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		run.ID, run.OrganizationID, run.PeriodStart, run.PeriodEnd, employeeIDs,
		run.Status, run.PaymentDate, run.TotalEmployees, run.ProcessedCount, run.FailedCount,
	).Scan(&run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "uk_payroll_run_period") {
			return payroll.Run{}, payroll.ErrDuplicateRunConflict
		}
		return payroll.Run{}, fmt.Errorf("failed to create payroll run: %w", err)
	}

	return run, nil
}

func (r *payrollRepository) GetRunByID(ctx context.Context, id string, organizationID string) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, period_start, period_end, employee_ids, status, payment_date,
			   total_employees, processed_count, failed_count, created_at, updated_at
		FROM payroll_runs
		WHERE id = $1 AND organization_id = $2
	`

	run, err := scanRun(q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Run{}, payroll.ErrRunNotFound
		}
		return payroll.Run{}, fmt.Errorf("failed to get payroll run: %w", err)
	}

	return run, nil
}

func (r *payrollRepository) ListRuns(ctx context.Context, organizationID string) ([]payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, period_start, period_end, employee_ids, status, payment_date,
			   total_employees, processed_count, failed_count, created_at, updated_at
		FROM payroll_runs
		WHERE organization_id = $1
		ORDER BY period_start DESC, created_at DESC
	`

	rows, err := q.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	defer rows.Close()

	var runs []payroll.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (r *payrollRepository) UpdateRunStatus(ctx context.Context, id string, organizationID string, status payroll.RunStatus) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx,
		`UPDATE payroll_runs SET status = $3, updated_at = NOW() WHERE id = $1 AND organization_id = $2`,
		id, organizationID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update payroll run status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrRunNotFound
	}

	return nil
}

func (r *payrollRepository) TransitionRunStatus(ctx context.Context, id string, organizationID string, from, to payroll.RunStatus) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx,
		`UPDATE payroll_runs SET status = $4, updated_at = NOW() WHERE id = $1 AND organization_id = $2 AND status = $3`,
		id, organizationID, from, to,
	)
	if err != nil {
		return fmt.Errorf("failed to transition payroll run status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: run is no longer %s", payroll.ErrInvalidTransition, from)
	}

	return nil
}

func (r *payrollRepository) UpdateRunCounts(ctx context.Context, id string, total, processed, failed int) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx,
		`UPDATE payroll_runs SET total_employees = $2, processed_count = $3, failed_count = $4, updated_at = NOW() WHERE id = $1`,
		id, total, processed, failed,
	)
	if err != nil {
		return fmt.Errorf("failed to update payroll run counts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrRunNotFound
	}

	return nil
}

// ========== PAYSLIPS ==========

func (r *payrollRepository) CreatePayslip(ctx context.Context, payslip payroll.Payslip) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	earnings, err := json.Marshal(payslip.EarningsBreakdown)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to marshal earnings breakdown: %w", err)
	}
	deductions, err := json.Marshal(payslip.DeductionsBreakdown)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to marshal deductions breakdown: %w", err)
	}

	query := `
		INSERT INTO payslips (id, run_id, employee_id, earnings_breakdown, deductions_breakdown,
							  gross_earnings, total_deductions, net_pay, working_days, lop_days, emailed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false)
		RETURNING created_at
	`

	err = q.QueryRow(ctx, query,
		payslip.ID, payslip.RunID, payslip.EmployeeID, earnings, deductions,
		payslip.GrossEarnings, payslip.TotalDeductions, payslip.NetPay,
		payslip.WorkingDays, payslip.LOPDays,
	).Scan(&payslip.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "uk_payslip_run_employee") {
			return payroll.Payslip{}, payroll.ErrPayslipExists
		}
		return payroll.Payslip{}, fmt.Errorf("failed to create payslip: %w", err)
	}

	return payslip, nil
}

func (r *payrollRepository) GetPayslipByID(ctx context.Context, id string, organizationID string) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT p.id, p.run_id, p.employee_id, p.earnings_breakdown, p.deductions_breakdown,
			   p.gross_earnings, p.total_deductions, p.net_pay, p.working_days, p.lop_days, p.emailed, p.created_at
		FROM payslips p
		JOIN payroll_runs r ON r.id = p.run_id
		WHERE p.id = $1 AND r.organization_id = $2
	`

	payslip, err := scanPayslip(q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Payslip{}, payroll.ErrPayslipNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}

	return payslip, nil
}

func (r *payrollRepository) ListPayslipsByRun(ctx context.Context, runID string, organizationID string) ([]payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT p.id, p.run_id, p.employee_id, p.earnings_breakdown, p.deductions_breakdown,
			   p.gross_earnings, p.total_deductions, p.net_pay, p.working_days, p.lop_days, p.emailed, p.created_at
		FROM payslips p
		JOIN payroll_runs r ON r.id = p.run_id
		WHERE p.run_id = $1 AND r.organization_id = $2
		ORDER BY p.employee_id ASC
	`

	rows, err := q.Query(ctx, query, runID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	var payslips []payroll.Payslip
	for rows.Next() {
		payslip, err := scanPayslip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		payslips = append(payslips, payslip)
	}

	return payslips, rows.Err()
}

func (r *payrollRepository) MarkPayslipEmailed(ctx context.Context, id string, organizationID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payslips SET emailed = true
		WHERE id = $1 AND run_id IN (SELECT id FROM payroll_runs WHERE organization_id = $2)
	`

	tag, err := q.Exec(ctx, query, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to mark payslip emailed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayslipNotFound
	}

	return nil
}

// ========== FAILURES ==========

func (r *payrollRepository) RecordFailure(ctx context.Context, failure payroll.RunFailure) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx,
		`INSERT INTO payroll_run_failures (run_id, employee_id, reason) VALUES ($1, $2, $3)`,
		failure.RunID, failure.EmployeeID, failure.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to record run failure: %w", err)
	}

	return nil
}

func (r *payrollRepository) ListFailuresByRun(ctx context.Context, runID string) ([]payroll.RunFailure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT run_id, employee_id, reason, created_at
		FROM payroll_run_failures
		WHERE run_id = $1
		ORDER BY employee_id ASC
	`

	rows, err := q.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list run failures: %w", err)
	}
	defer rows.Close()

	var failures []payroll.RunFailure
	for rows.Next() {
		var f payroll.RunFailure
		if err := rows.Scan(&f.RunID, &f.EmployeeID, &f.Reason, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run failure: %w", err)
		}
		failures = append(failures, f)
	}

	return failures, rows.Err()
}

func scanRun(row pgx.Row) (payroll.Run, error) {
	var run payroll.Run
	var employeeIDs []byte
	err := row.Scan(
		&run.ID, &run.OrganizationID, &run.PeriodStart, &run.PeriodEnd, &employeeIDs,
		&run.Status, &run.PaymentDate, &run.TotalEmployees, &run.ProcessedCount, &run.FailedCount,
		&run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return payroll.Run{}, err
	}
	if len(employeeIDs) > 0 {
		if err := json.Unmarshal(employeeIDs, &run.EmployeeIDs); err != nil {
			return payroll.Run{}, fmt.Errorf("failed to unmarshal run employee ids: %w", err)
		}
	}
	return run, nil
}

func scanPayslip(row pgx.Row) (payroll.Payslip, error) {
	var p payroll.Payslip
	var earnings, deductions []byte
	err := row.Scan(
		&p.ID, &p.RunID, &p.EmployeeID, &earnings, &deductions,
		&p.GrossEarnings, &p.TotalDeductions, &p.NetPay,
		&p.WorkingDays, &p.LOPDays, &p.Emailed, &p.CreatedAt,
	)
	if err != nil {
		return payroll.Payslip{}, err
	}
	if err := json.Unmarshal(earnings, &p.EarningsBreakdown); err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to unmarshal earnings breakdown: %w", err)
	}
	if err := json.Unmarshal(deductions, &p.DeductionsBreakdown); err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to unmarshal deductions breakdown: %w", err)
	}
	return p, nil
}
