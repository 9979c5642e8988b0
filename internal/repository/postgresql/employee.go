package postgresql

import (
	"context"
	"fmt"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/employee"
	"github.com/workstream-hq/payroll-engine-go/internal/pkg/database"
)

type employeeDirectory struct {
	db *database.DB
}

func NewEmployeeDirectory(db *database.DB) employee.Directory {
	return &employeeDirectory{db: db}
}

func (r *employeeDirectory) ActiveEmployees(ctx context.Context, organizationID string, employeeIDs []string) ([]employee.EmployeeRef, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, employee_code, full_name
		FROM employees
		WHERE organization_id = $1 AND employment_status = 'active'
	`
	args := []any{organizationID}
	if len(employeeIDs) > 0 {
		query += " AND id = ANY($2)"
		args = append(args, employeeIDs)
	}
	query += " ORDER BY id ASC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.EmployeeRef
	for rows.Next() {
		var e employee.EmployeeRef
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.EmployeeCode, &e.FullName); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	return employees, rows.Err()
}
