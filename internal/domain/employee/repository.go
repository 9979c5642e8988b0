package employee

import "context"

// Directory is the read-only view of the organization's employees.
// When employeeIDs is non-empty the result is restricted to those ids.
type Directory interface {
	ActiveEmployees(ctx context.Context, organizationID string, employeeIDs []string) ([]EmployeeRef, error)
}
