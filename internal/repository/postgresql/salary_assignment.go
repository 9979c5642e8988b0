package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/salary"
	"github.com/workstream-hq/payroll-engine-go/internal/pkg/database"
)

type assignmentRepository struct {
	db *database.DB
}

func NewAssignmentRepository(db *database.DB) salary.AssignmentRepository {
	return &assignmentRepository{db: db}
}

// CreateAndActivate deactivates the employee's current assignment (if any) and
// inserts the new one as active, in one transaction.
func (r *assignmentRepository) CreateAndActivate(ctx context.Context, assignment salary.SalaryAssignment) (salary.SalaryAssignment, error) {
	overrides, err := marshalOverrides(assignment.Overrides)
	if err != nil {
		return salary.SalaryAssignment{}, err
	}

	var created salary.SalaryAssignment
	err = WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE salary_assignments SET is_active = false, updated_at = NOW()
			 WHERE employee_id = $1 AND is_active = true`,
			assignment.EmployeeID,
		)
		if err != nil {
			return fmt.Errorf("failed to deactivate prior assignment: %w", err)
		}

		query := `
			INSERT INTO salary_assignments (organization_id, employee_id, structure_id, basic_salary, effective_date, is_active, overrides)
			VALUES ($1, $2, $3, $4, $5, true, $6)
			RETURNING id, organization_id, employee_id, structure_id, basic_salary, effective_date, is_active, overrides, created_at, updated_at
		`
		var raw []byte
		err = tx.QueryRow(ctx, query,
			assignment.OrganizationID, assignment.EmployeeID, assignment.StructureID,
			assignment.BasicSalary, assignment.EffectiveDate, overrides,
		).Scan(
			&created.ID, &created.OrganizationID, &created.EmployeeID, &created.StructureID,
			&created.BasicSalary, &created.EffectiveDate, &created.IsActive, &raw,
			&created.CreatedAt, &created.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create salary assignment: %w", err)
		}
		created.Overrides, err = unmarshalOverrides(raw)
		return err
	})
	if err != nil {
		return salary.SalaryAssignment{}, err
	}

	return created, nil
}

func (r *assignmentRepository) ActiveAssignment(ctx context.Context, employeeID string) (salary.SalaryAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, employee_id, structure_id, basic_salary, effective_date, is_active, overrides, created_at, updated_at
		FROM salary_assignments
		WHERE employee_id = $1 AND is_active = true
	`

	var a salary.SalaryAssignment
	var raw []byte
	err := q.QueryRow(ctx, query, employeeID).Scan(
		&a.ID, &a.OrganizationID, &a.EmployeeID, &a.StructureID,
		&a.BasicSalary, &a.EffectiveDate, &a.IsActive, &raw,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return salary.SalaryAssignment{}, salary.ErrNoActiveAssignment
		}
		return salary.SalaryAssignment{}, fmt.Errorf("failed to get active assignment: %w", err)
	}
	if a.Overrides, err = unmarshalOverrides(raw); err != nil {
		return salary.SalaryAssignment{}, err
	}

	return a, nil
}

func (r *assignmentRepository) GetByEmployeeID(ctx context.Context, employeeID string, organizationID string) ([]salary.SalaryAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, employee_id, structure_id, basic_salary, effective_date, is_active, overrides, created_at, updated_at
		FROM salary_assignments
		WHERE employee_id = $1 AND organization_id = $2
		ORDER BY effective_date DESC
	`

	rows, err := q.Query(ctx, query, employeeID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary assignments: %w", err)
	}
	defer rows.Close()

	var assignments []salary.SalaryAssignment
	for rows.Next() {
		var a salary.SalaryAssignment
		var raw []byte
		if err := rows.Scan(
			&a.ID, &a.OrganizationID, &a.EmployeeID, &a.StructureID,
			&a.BasicSalary, &a.EffectiveDate, &a.IsActive, &raw,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan salary assignment: %w", err)
		}
		if a.Overrides, err = unmarshalOverrides(raw); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

func marshalOverrides(overrides map[string]decimal.Decimal) ([]byte, error) {
	if len(overrides) == 0 {
		return []byte("{}"), nil
	}
	raw, err := json.Marshal(overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal assignment overrides: %w", err)
	}
	return raw, nil
}

func unmarshalOverrides(raw []byte) (map[string]decimal.Decimal, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var overrides map[string]decimal.Decimal
	if err := json.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assignment overrides: %w", err)
	}
	if len(overrides) == 0 {
		return nil, nil
	}
	return overrides, nil
}
