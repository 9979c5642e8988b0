package salary

import "context"

// CatalogService manages the salary component catalog, structures and
// assignments. Structure writes are validated at save time: reference,
// duplicate, cycle and formula checks all run before anything is stored.
type CatalogService interface {
	CreateComponent(ctx context.Context, req CreateComponentRequest) (ComponentResponse, error)
	GetComponent(ctx context.Context, id string) (ComponentResponse, error)
	ListComponents(ctx context.Context, activeOnly bool) ([]ComponentResponse, error)
	UpdateComponent(ctx context.Context, req UpdateComponentRequest) error
	DeleteComponent(ctx context.Context, id string) error

	CreateStructure(ctx context.Context, req CreateStructureRequest) (StructureResponse, error)
	GetStructure(ctx context.Context, id string) (StructureResponse, error)
	ListStructures(ctx context.Context, activeOnly bool) ([]StructureResponse, error)
	UpdateStructure(ctx context.Context, req UpdateStructureRequest) (StructureResponse, error)
	DeleteStructure(ctx context.Context, id string) error

	CreateAssignment(ctx context.Context, req CreateAssignmentRequest) (AssignmentResponse, error)
	GetActiveAssignment(ctx context.Context, employeeID string) (AssignmentResponse, error)
}
