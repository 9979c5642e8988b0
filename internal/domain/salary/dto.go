package salary

import (
	"github.com/shopspring/decimal"

	"github.com/workstream-hq/payroll-engine-go/internal/pkg/validator"
)

// ========== COMPONENT DTOs ==========

type CreateComponentRequest struct {
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`      // "earning" or "deduction"
	CalcType  string  `json:"calc_type"` // "fixed", "percentage" or "formula"
	Formula   *string `json:"formula,omitempty"`
	IsTaxable *bool   `json:"is_taxable,omitempty"`
}

func (r *CreateComponentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	if r.Kind != string(ComponentKindEarning) && r.Kind != string(ComponentKindDeduction) {
		errs = append(errs, validator.ValidationError{Field: "kind", Message: "must be 'earning' or 'deduction'"})
	}
	if !validator.IsInSlice(r.CalcType, []string{string(CalcTypeFixed), string(CalcTypePercentage), string(CalcTypeFormula)}) {
		errs = append(errs, validator.ValidationError{Field: "calc_type", Message: "must be 'fixed', 'percentage' or 'formula'"})
	}
	if r.CalcType == string(CalcTypeFormula) && (r.Formula == nil || validator.IsEmpty(*r.Formula)) {
		errs = append(errs, validator.ValidationError{Field: "formula", Message: "is required for formula components"})
	}
	if r.CalcType != string(CalcTypeFormula) && r.Formula != nil {
		errs = append(errs, validator.ValidationError{Field: "formula", Message: "is only allowed on formula components"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateComponentRequest struct {
	ID        string
	Name      *string `json:"name,omitempty"`
	Formula   *string `json:"formula,omitempty"`
	IsTaxable *bool   `json:"is_taxable,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

type ComponentResponse struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	Name           string  `json:"name"`
	Kind           string  `json:"kind"`
	CalcType       string  `json:"calc_type"`
	Formula        *string `json:"formula,omitempty"`
	IsTaxable      bool    `json:"is_taxable"`
	IsActive       bool    `json:"is_active"`
}

// ========== STRUCTURE DTOs ==========

type MappingRequest struct {
	ComponentID             string           `json:"component_id"`
	DefinedValue            *decimal.Decimal `json:"defined_value,omitempty"`
	PercentageOfComponentID *string          `json:"percentage_of_component_id,omitempty"`
}

type CreateStructureRequest struct {
	Name     string           `json:"name"`
	Mappings []MappingRequest `json:"mappings"`
}

func (r *CreateStructureRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	if len(r.Mappings) == 0 {
		errs = append(errs, validator.ValidationError{Field: "mappings", Message: "at least one component mapping is required"})
	}
	for _, m := range r.Mappings {
		if validator.IsEmpty(m.ComponentID) {
			errs = append(errs, validator.ValidationError{Field: "mappings", Message: "component_id is required on every mapping"})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateStructureRequest struct {
	ID       string
	Name     *string          `json:"name,omitempty"`
	IsActive *bool            `json:"is_active,omitempty"`
	Mappings []MappingRequest `json:"mappings,omitempty"`
}

type MappingResponse struct {
	ID                      string           `json:"id"`
	ComponentID             string           `json:"component_id"`
	ComponentName           string           `json:"component_name"`
	Kind                    string           `json:"kind"`
	CalcType                string           `json:"calc_type"`
	DefinedValue            *decimal.Decimal `json:"defined_value,omitempty"`
	PercentageOfComponentID *string          `json:"percentage_of_component_id,omitempty"`
}

type StructureResponse struct {
	ID             string            `json:"id"`
	OrganizationID string            `json:"organization_id"`
	Name           string            `json:"name"`
	IsActive       bool              `json:"is_active"`
	Mappings       []MappingResponse `json:"mappings"`
}

// ========== ASSIGNMENT DTOs ==========

type CreateAssignmentRequest struct {
	EmployeeID    string                     `json:"employee_id"`
	StructureID   string                     `json:"structure_id"`
	BasicSalary   decimal.Decimal            `json:"basic_salary"`
	EffectiveDate string                     `json:"effective_date"`
	Overrides     map[string]decimal.Decimal `json:"overrides,omitempty"`
}

func (r *CreateAssignmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if validator.IsEmpty(r.StructureID) {
		errs = append(errs, validator.ValidationError{Field: "structure_id", Message: "is required"})
	}
	if r.BasicSalary.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "basic_salary", Message: "must be non-negative"})
	}
	if _, ok := validator.IsValidDate(r.EffectiveDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "effective_date", Message: "must be a YYYY-MM-DD date"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AssignmentResponse struct {
	ID            string                     `json:"id"`
	EmployeeID    string                     `json:"employee_id"`
	StructureID   string                     `json:"structure_id"`
	BasicSalary   decimal.Decimal            `json:"basic_salary"`
	EffectiveDate string                     `json:"effective_date"`
	IsActive      bool                       `json:"is_active"`
	Overrides     map[string]decimal.Decimal `json:"overrides,omitempty"`
}
