package response

import (
	"errors"
	"net/http"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/payroll"
	"github.com/workstream-hq/payroll-engine-go/internal/domain/salary"
	"github.com/workstream-hq/payroll-engine-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Salary catalog errors
	case errors.Is(err, salary.ErrComponentNotFound):
		NotFound(w, "Salary component not found")
	case errors.Is(err, salary.ErrComponentNameExists):
		Conflict(w, "Salary component name already exists")
	case errors.Is(err, salary.ErrComponentInUse):
		Conflict(w, "Salary component is referenced by a structure")
	case errors.Is(err, salary.ErrStructureNotFound):
		NotFound(w, "Salary structure not found")
	case errors.Is(err, salary.ErrStructureNameExists):
		Conflict(w, "Salary structure name already exists")
	case errors.Is(err, salary.ErrStructureInUse):
		Conflict(w, "Salary structure is referenced by an assignment")
	case errors.Is(err, salary.ErrAssignmentNotFound):
		NotFound(w, "Salary assignment not found")
	case errors.Is(err, salary.ErrNoActiveAssignment):
		NotFound(w, "Employee has no active salary assignment")

	// Structure definition errors
	case errors.Is(err, salary.ErrEmptyStructure),
		errors.Is(err, salary.ErrDuplicateMapping),
		errors.Is(err, salary.ErrInvalidReference),
		errors.Is(err, salary.ErrCyclicDependency),
		errors.Is(err, salary.ErrFormulaSyntax),
		errors.Is(err, salary.ErrUnknownIdentifier),
		errors.Is(err, salary.ErrMissingFormula),
		errors.Is(err, salary.ErrInvalidCalcType),
		errors.Is(err, salary.ErrNegativeBasicSalary):
		BadRequest(w, err.Error(), nil)

	// Payroll run errors
	case errors.Is(err, payroll.ErrRunNotFound):
		NotFound(w, "Payroll run not found")
	case errors.Is(err, payroll.ErrDuplicateRunConflict):
		Conflict(w, "A payroll run for this period already exists")
	case errors.Is(err, payroll.ErrInvalidTransition):
		Conflict(w, "Payroll run is not in a state that allows this operation")
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, "Invalid pay period", nil)
	case errors.Is(err, payroll.ErrPayslipNotFound):
		NotFound(w, "Payslip not found")
	case errors.Is(err, payroll.ErrPayslipExists):
		Conflict(w, "Payslip already exists for this run and employee")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
