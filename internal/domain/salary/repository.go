package salary

import "context"

// ComponentRepository defines data access for the salary component catalog.
// Every method takes the organization id so one tenant can never read another.
type ComponentRepository interface {
	Create(ctx context.Context, component SalaryComponent) (SalaryComponent, error)
	GetByID(ctx context.Context, id string, organizationID string) (SalaryComponent, error)
	GetByOrganizationID(ctx context.Context, organizationID string, activeOnly bool) ([]SalaryComponent, error)
	Update(ctx context.Context, organizationID string, req UpdateComponentRequest) error
	Delete(ctx context.Context, id string, organizationID string) error
}

// StructureRepository defines data access for salary structures. Get and
// GetByID load the structure with its mappings joined to component details.
type StructureRepository interface {
	Create(ctx context.Context, structure SalaryStructure) (SalaryStructure, error)
	GetByID(ctx context.Context, id string, organizationID string) (SalaryStructure, error)
	GetByOrganizationID(ctx context.Context, organizationID string, activeOnly bool) ([]SalaryStructure, error)
	// ReplaceMappings swaps the structure's mapping set atomically.
	ReplaceMappings(ctx context.Context, structureID string, organizationID string, mappings []ComponentMapping) error
	Update(ctx context.Context, organizationID string, req UpdateStructureRequest) error
	Delete(ctx context.Context, id string, organizationID string) error
}

// AssignmentRepository defines data access for salary assignments.
type AssignmentRepository interface {
	// CreateAndActivate inserts the assignment and deactivates any prior
	// active assignment of the same employee in one transaction.
	CreateAndActivate(ctx context.Context, assignment SalaryAssignment) (SalaryAssignment, error)
	ActiveAssignment(ctx context.Context, employeeID string) (SalaryAssignment, error)
	GetByEmployeeID(ctx context.Context, employeeID string, organizationID string) ([]SalaryAssignment, error)
}
