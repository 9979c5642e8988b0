package structure

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/salary"
)

// Input is everything one employee's structure evaluation needs. Evaluation is
// pure: it never touches storage.
type Input struct {
	BasicSalary decimal.Decimal
	Structure   salary.SalaryStructure
	// Overrides replaces the defined value of fixed components, keyed by
	// component id.
	Overrides map[string]decimal.Decimal
}

// ComponentValue is one computed salary line, rounded to 2 decimal places.
type ComponentValue struct {
	ComponentID string
	Name        string
	Kind        salary.ComponentKind
	IsTaxable   bool
	Amount      decimal.Decimal
}

// Evaluate computes a value for every component of the structure, in
// topological order so percentage bases and formula references are always
// computed before their dependents. The returned order is deterministic for
// identical inputs.
func Evaluate(in Input) ([]ComponentValue, error) {
	if in.BasicSalary.IsNegative() {
		return nil, salary.ErrNegativeBasicSalary
	}

	mappings := in.Structure.Mappings
	if err := validateMappings(mappings); err != nil {
		return nil, err
	}

	adj, err := buildGraph(mappings)
	if err != nil {
		return nil, err
	}
	order, err := topologicalOrder(adj)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]salary.ComponentMapping, len(mappings))
	for _, m := range mappings {
		byID[m.ComponentID] = m
	}

	valueByID := make(map[string]decimal.Decimal, len(order))
	scope := map[string]decimal.Decimal{"basicSalary": in.BasicSalary}
	result := make([]ComponentValue, 0, len(order))

	for _, id := range order {
		m := byID[id]

		var override *decimal.Decimal
		if v, ok := in.Overrides[id]; ok {
			value := v
			override = &value
		}

		rule, err := m.Rule(override)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", m.ComponentName, err)
		}

		var amount decimal.Decimal
		switch rule := rule.(type) {
		case salary.FixedRule:
			amount = rule.Amount
		case salary.PercentageRule:
			base := in.BasicSalary
			if rule.BaseComponentID != "" {
				// Present by construction: topological order puts the base
				// before its dependents.
				base = valueByID[rule.BaseComponentID]
			}
			amount = base.Mul(rule.Rate)
		case salary.FormulaRule:
			amount, err = EvaluateFormula(rule.Expr, scope)
			if err != nil {
				return nil, fmt.Errorf("component %q: %w", m.ComponentName, err)
			}
		}

		amount = amount.Round(2)
		valueByID[id] = amount
		scope[m.ComponentName] = amount

		result = append(result, ComponentValue{
			ComponentID: m.ComponentID,
			Name:        m.ComponentName,
			Kind:        m.Kind,
			IsTaxable:   m.IsTaxable,
			Amount:      amount,
		})
	}

	return result, nil
}

// Validate checks a structure definition without computing values: mapping
// invariants, reference integrity, acyclicity, formula syntax and identifier
// resolution. Run at structure save time and again defensively before each
// evaluation, since structures can be edited after assignment.
func Validate(structure salary.SalaryStructure) error {
	if err := validateMappings(structure.Mappings); err != nil {
		return err
	}

	adj, err := buildGraph(structure.Mappings)
	if err != nil {
		return err
	}
	order, err := topologicalOrder(adj)
	if err != nil {
		return err
	}

	byID := make(map[string]salary.ComponentMapping, len(structure.Mappings))
	for _, m := range structure.Mappings {
		byID[m.ComponentID] = m
	}

	// A formula may only reference basicSalary or components evaluated
	// earlier in the topological order; forward references fail.
	known := map[string]struct{}{"basicSalary": {}}
	for _, id := range order {
		m := byID[id]
		if m.CalcType == salary.CalcTypeFormula {
			if m.Formula == nil || *m.Formula == "" {
				return fmt.Errorf("component %q: %w", m.ComponentName, salary.ErrMissingFormula)
			}
			idents, err := FormulaIdentifiers(*m.Formula)
			if err != nil {
				return fmt.Errorf("component %q: %w", m.ComponentName, err)
			}
			for _, ident := range idents {
				if _, ok := known[ident]; !ok {
					return fmt.Errorf("component %q: %w: %q", m.ComponentName, salary.ErrUnknownIdentifier, ident)
				}
			}
		}
		known[m.ComponentName] = struct{}{}
	}

	return nil
}

func validateMappings(mappings []salary.ComponentMapping) error {
	if len(mappings) == 0 {
		return salary.ErrEmptyStructure
	}
	seen := make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		if _, ok := seen[m.ComponentID]; ok {
			return fmt.Errorf("%w: %q", salary.ErrDuplicateMapping, m.ComponentID)
		}
		seen[m.ComponentID] = struct{}{}
	}
	return nil
}
