package structure

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/salary"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func fixedMapping(id, name string, amount string) salary.ComponentMapping {
	return salary.ComponentMapping{
		ComponentID:   id,
		ComponentName: name,
		Kind:          salary.ComponentKindEarning,
		CalcType:      salary.CalcTypeFixed,
		DefinedValue:  decPtr(amount),
	}
}

func testStructure(mappings ...salary.ComponentMapping) salary.SalaryStructure {
	return salary.SalaryStructure{
		ID:       "structure-1",
		Name:     "Standard",
		IsActive: true,
		Mappings: mappings,
	}
}

func amountOf(t *testing.T, values []ComponentValue, name string) decimal.Decimal {
	t.Helper()
	for _, v := range values {
		if v.Name == name {
			return v.Amount
		}
	}
	t.Fatalf("component %q not in result", name)
	return decimal.Zero
}

func TestEvaluate_PercentageOfBasicSalary(t *testing.T) {
	t.Parallel()

	structure := testStructure(
		salary.ComponentMapping{
			ComponentID:   "hra",
			ComponentName: "HRA",
			Kind:          salary.ComponentKindEarning,
			CalcType:      salary.CalcTypePercentage,
			DefinedValue:  decPtr("0.40"),
		},
	)

	values, err := Evaluate(Input{
		BasicSalary: decimal.NewFromInt(5000),
		Structure:   structure,
	})
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.True(t, values[0].Amount.Equal(decimal.NewFromInt(2000)), "got %s", values[0].Amount)
}

func TestEvaluate_PercentageOfComponent(t *testing.T) {
	t.Parallel()

	structure := testStructure(
		fixedMapping("base-pay", "BasePay", "3000"),
		salary.ComponentMapping{
			ComponentID:             "bonus",
			ComponentName:           "Bonus",
			Kind:                    salary.ComponentKindEarning,
			CalcType:                salary.CalcTypePercentage,
			DefinedValue:            decPtr("0.10"),
			PercentageOfComponentID: strPtr("base-pay"),
		},
	)

	values, err := Evaluate(Input{
		BasicSalary: decimal.NewFromInt(5000),
		Structure:   structure,
	})
	require.NoError(t, err)
	assert.True(t, amountOf(t, values, "Bonus").Equal(decimal.NewFromInt(300)))
}

func TestEvaluate_FormulaReferencesEarlierComponents(t *testing.T) {
	t.Parallel()

	structure := testStructure(
		salary.ComponentMapping{
			ComponentID:   "hra",
			ComponentName: "HRA",
			Kind:          salary.ComponentKindEarning,
			CalcType:      salary.CalcTypePercentage,
			DefinedValue:  decPtr("0.40"),
		},
		salary.ComponentMapping{
			ComponentID:   "special",
			ComponentName: "SpecialAllowance",
			Kind:          salary.ComponentKindEarning,
			CalcType:      salary.CalcTypeFormula,
			Formula:       strPtr("(basicSalary + HRA) * 0.1"),
		},
	)

	values, err := Evaluate(Input{
		BasicSalary: decimal.NewFromInt(5000),
		Structure:   structure,
	})
	require.NoError(t, err)
	// HRA = 2000, formula = (5000 + 2000) * 0.1 = 700
	assert.True(t, amountOf(t, values, "SpecialAllowance").Equal(decimal.NewFromInt(700)))
}

func TestEvaluate_OverrideWinsForFixedComponent(t *testing.T) {
	t.Parallel()

	structure := testStructure(fixedMapping("transport", "Transport", "500"))

	values, err := Evaluate(Input{
		BasicSalary: decimal.NewFromInt(5000),
		Structure:   structure,
		Overrides:   map[string]decimal.Decimal{"transport": decimal.NewFromInt(750)},
	})
	require.NoError(t, err)
	assert.True(t, values[0].Amount.Equal(decimal.NewFromInt(750)))
}

func TestEvaluate_RoundsToTwoDecimalPlaces(t *testing.T) {
	t.Parallel()

	structure := testStructure(
		salary.ComponentMapping{
			ComponentID:   "oddity",
			ComponentName: "Oddity",
			Kind:          salary.ComponentKindEarning,
			CalcType:      salary.CalcTypeFormula,
			Formula:       strPtr("10 / 3"),
		},
	)

	values, err := Evaluate(Input{
		BasicSalary: decimal.NewFromInt(1000),
		Structure:   structure,
	})
	require.NoError(t, err)
	assert.Equal(t, "3.33", values[0].Amount.String())
}

func TestEvaluate_NegativeBasicSalary(t *testing.T) {
	t.Parallel()

	structure := testStructure(fixedMapping("a", "A", "100"))

	_, err := Evaluate(Input{
		BasicSalary: decimal.NewFromInt(-1),
		Structure:   structure,
	})
	assert.ErrorIs(t, err, salary.ErrNegativeBasicSalary)
}

func TestEvaluate_EmptyStructure(t *testing.T) {
	t.Parallel()

	_, err := Evaluate(Input{
		BasicSalary: decimal.NewFromInt(1000),
		Structure:   testStructure(),
	})
	assert.ErrorIs(t, err, salary.ErrEmptyStructure)
}

func TestEvaluate_DuplicateMapping(t *testing.T) {
	t.Parallel()

	_, err := Evaluate(Input{
		BasicSalary: decimal.NewFromInt(1000),
		Structure: testStructure(
			fixedMapping("a", "A", "100"),
			fixedMapping("a", "A", "200"),
		),
	})
	assert.ErrorIs(t, err, salary.ErrDuplicateMapping)
}

func TestEvaluate_DeterministicOrder(t *testing.T) {
	t.Parallel()

	structure := testStructure(
		fixedMapping("c", "C", "30"),
		fixedMapping("a", "A", "10"),
		fixedMapping("b", "B", "20"),
	)
	in := Input{BasicSalary: decimal.NewFromInt(1000), Structure: structure}

	first, err := Evaluate(in)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Evaluate(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestValidate_ForwardFormulaReference(t *testing.T) {
	t.Parallel()

	structure := testStructure(
		salary.ComponentMapping{
			// Evaluated after ZAllowance in sorted seed order, but the
			// formula needs it first.
			ComponentID:   "a-formula",
			ComponentName: "AFormula",
			Kind:          salary.ComponentKindEarning,
			CalcType:      salary.CalcTypeFormula,
			Formula:       strPtr("ZAllowance * 2"),
		},
		fixedMapping("z-allowance", "ZAllowance", "100"),
	)

	err := Validate(structure)
	assert.ErrorIs(t, err, salary.ErrUnknownIdentifier)
}

func TestValidate_AcceptsBasicSalaryReference(t *testing.T) {
	t.Parallel()

	structure := testStructure(
		salary.ComponentMapping{
			ComponentID:   "f",
			ComponentName: "F",
			Kind:          salary.ComponentKindEarning,
			CalcType:      salary.CalcTypeFormula,
			Formula:       strPtr("basicSalary * 0.5"),
		},
	)

	assert.NoError(t, Validate(structure))
}

func TestValidate_CycleReported(t *testing.T) {
	t.Parallel()

	structure := testStructure(
		percentMapping("a", strPtr("b")),
		percentMapping("b", strPtr("a")),
	)

	err := Validate(structure)
	assert.ErrorIs(t, err, salary.ErrCyclicDependency)
}
