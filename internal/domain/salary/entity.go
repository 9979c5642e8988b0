package salary

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComponentKind enum
type ComponentKind string

const (
	ComponentKindEarning   ComponentKind = "earning"
	ComponentKindDeduction ComponentKind = "deduction"
)

// CalcType enum
type CalcType string

const (
	CalcTypeFixed      CalcType = "fixed"
	CalcTypePercentage CalcType = "percentage"
	CalcTypeFormula    CalcType = "formula"
)

// SalaryComponent - Master salary component, organization scoped.
// Edits are in-place; payslips store computed snapshots, never live references.
type SalaryComponent struct {
	ID             string
	OrganizationID string
	Name           string
	Kind           ComponentKind
	CalcType       CalcType
	Formula        *string // only for formula components
	IsTaxable      bool
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ComponentMapping binds one component into one structure, optionally carrying
// a defined value (fixed amount, or percentage rate as a fraction) and the
// component whose computed value a percentage is based on. A nil base means
// the percentage applies to the assignment's basic salary.
type ComponentMapping struct {
	ID                      string
	StructureID             string
	ComponentID             string
	DefinedValue            *decimal.Decimal
	PercentageOfComponentID *string
	CreatedAt               time.Time
	UpdatedAt               time.Time

	// Joined fields
	ComponentName string
	Kind          ComponentKind
	CalcType      CalcType
	Formula       *string
	IsTaxable     bool
}

// SalaryStructure - named set of component mappings.
type SalaryStructure struct {
	ID             string
	OrganizationID string
	Name           string
	IsActive       bool
	Mappings       []ComponentMapping
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SalaryAssignment binds one employee to one structure with a basic salary.
// At most one assignment per employee is active at any time.
type SalaryAssignment struct {
	ID             string
	OrganizationID string
	EmployeeID     string
	StructureID    string
	BasicSalary    decimal.Decimal
	EffectiveDate  time.Time
	IsActive       bool
	// Overrides replaces the defined value of fixed components, keyed by
	// component id.
	Overrides map[string]decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalcRule is the tagged calculation rule resolved from a mapping. Exactly one
// concrete rule type exists per calc type, so invalid combinations cannot be
// built.
type CalcRule interface {
	calcRule()
}

// FixedRule pays a flat amount.
type FixedRule struct {
	Amount decimal.Decimal
}

// PercentageRule pays Rate (a fraction, 0.40 means 40%) of a base: the
// computed value of BaseComponentID, or the basic salary when empty.
type PercentageRule struct {
	Rate            decimal.Decimal
	BaseComponentID string
}

// FormulaRule evaluates a restricted arithmetic expression.
type FormulaRule struct {
	Expr string
}

func (FixedRule) calcRule()      {}
func (PercentageRule) calcRule() {}
func (FormulaRule) calcRule()    {}

// Rule resolves the mapping into its tagged calculation rule. The assignment
// override, when present, wins over the mapping's defined value for fixed
// components.
func (m ComponentMapping) Rule(override *decimal.Decimal) (CalcRule, error) {
	switch m.CalcType {
	case CalcTypeFixed:
		amount := decimal.Zero
		if m.DefinedValue != nil {
			amount = *m.DefinedValue
		}
		if override != nil {
			amount = *override
		}
		return FixedRule{Amount: amount}, nil
	case CalcTypePercentage:
		rate := decimal.Zero
		if m.DefinedValue != nil {
			rate = *m.DefinedValue
		}
		base := ""
		if m.PercentageOfComponentID != nil {
			base = *m.PercentageOfComponentID
		}
		return PercentageRule{Rate: rate, BaseComponentID: base}, nil
	case CalcTypeFormula:
		if m.Formula == nil || *m.Formula == "" {
			return nil, ErrMissingFormula
		}
		return FormulaRule{Expr: *m.Formula}, nil
	default:
		return nil, ErrInvalidCalcType
	}
}
