package salary

import "errors"

var (
	ErrComponentNotFound   = errors.New("salary component not found")
	ErrComponentNameExists = errors.New("salary component name already exists")
	ErrComponentInUse      = errors.New("salary component is referenced by a structure")
	ErrStructureNotFound   = errors.New("salary structure not found")
	ErrStructureNameExists = errors.New("salary structure name already exists")
	ErrStructureInUse      = errors.New("salary structure is referenced by an assignment")
	ErrAssignmentNotFound  = errors.New("salary assignment not found")
	ErrNoActiveAssignment  = errors.New("employee has no active salary assignment")
	ErrInvalidCalcType     = errors.New("invalid component calculation type")
	ErrMissingFormula      = errors.New("formula component has no formula")
	ErrEmptyStructure      = errors.New("salary structure must have at least one component mapping")
	ErrDuplicateMapping    = errors.New("salary structure maps the same component twice")
	ErrInvalidReference    = errors.New("percentage base references a component outside the structure")
	ErrCyclicDependency    = errors.New("cyclic dependency between salary components")
	ErrFormulaSyntax       = errors.New("formula syntax error")
	ErrUnknownIdentifier   = errors.New("formula references an unknown identifier")
	ErrDivisionByZero      = errors.New("formula divides by zero")
	ErrNegativeBasicSalary = errors.New("basic salary must be non-negative")
)
