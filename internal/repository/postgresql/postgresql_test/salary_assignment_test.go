package postgresql_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/salary"
	"github.com/workstream-hq/payroll-engine-go/internal/repository/postgresql"
)

func TestAssignmentRepository_CreateAndActivate_DeactivatesPrior(t *testing.T) {
	db := testDatabase(t)
	defer cleanupTestData(t, db)

	ctx := context.Background()
	repo := postgresql.NewAssignmentRepository(db)
	organizationID := uuid.NewString()
	employeeID := createTestEmployee(t, ctx, db, organizationID)
	structureID := createTestStructure(t, ctx, db, organizationID)

	first, err := repo.CreateAndActivate(ctx, salary.SalaryAssignment{
		OrganizationID: organizationID,
		EmployeeID:     employeeID,
		StructureID:    structureID,
		BasicSalary:    decimal.RequireFromString("5000"),
		EffectiveDate:  date(2025, 1, 1),
	})
	require.NoError(t, err)
	assert.True(t, first.IsActive)

	second, err := repo.CreateAndActivate(ctx, salary.SalaryAssignment{
		OrganizationID: organizationID,
		EmployeeID:     employeeID,
		StructureID:    structureID,
		BasicSalary:    decimal.RequireFromString("6000"),
		EffectiveDate:  date(2025, 6, 1),
	})
	require.NoError(t, err)
	assert.True(t, second.IsActive)

	// The replacement must not trip uk_salary_assignment_active; the prior
	// assignment flips to inactive in the same transaction.
	active, err := repo.ActiveAssignment(ctx, employeeID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, "6000", active.BasicSalary.String())

	all, err := repo.GetByEmployeeID(ctx, employeeID, organizationID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	activeCount := 0
	for _, a := range all {
		if a.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestAssignmentRepository_CreateAndActivate_OverridesRoundTrip(t *testing.T) {
	db := testDatabase(t)
	defer cleanupTestData(t, db)

	ctx := context.Background()
	repo := postgresql.NewAssignmentRepository(db)
	organizationID := uuid.NewString()
	employeeID := createTestEmployee(t, ctx, db, organizationID)
	structureID := createTestStructure(t, ctx, db, organizationID)

	componentID := uuid.NewString()
	_, err := repo.CreateAndActivate(ctx, salary.SalaryAssignment{
		OrganizationID: organizationID,
		EmployeeID:     employeeID,
		StructureID:    structureID,
		BasicSalary:    decimal.RequireFromString("5000"),
		EffectiveDate:  date(2025, 1, 1),
		Overrides: map[string]decimal.Decimal{
			componentID: decimal.RequireFromString("750.50"),
		},
	})
	require.NoError(t, err)

	active, err := repo.ActiveAssignment(ctx, employeeID)
	require.NoError(t, err)
	require.Contains(t, active.Overrides, componentID)
	assert.Equal(t, "750.5", active.Overrides[componentID].String())
}

func TestAssignmentRepository_ActiveAssignment_NotFound(t *testing.T) {
	db := testDatabase(t)
	defer cleanupTestData(t, db)

	ctx := context.Background()
	repo := postgresql.NewAssignmentRepository(db)

	_, err := repo.ActiveAssignment(ctx, uuid.NewString())
	assert.ErrorIs(t, err, salary.ErrNoActiveAssignment)
}
