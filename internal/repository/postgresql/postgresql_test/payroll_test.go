package postgresql_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/payroll"
	"github.com/workstream-hq/payroll-engine-go/internal/repository/postgresql"
)

func draftRun(organizationID string) payroll.Run {
	return payroll.Run{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		PeriodStart:    date(2025, 6, 1),
		PeriodEnd:      date(2025, 6, 30),
		Status:         payroll.RunStatusDraft,
	}
}

func TestPayrollRepository_CreateRun_DuplicatePeriodConflict(t *testing.T) {
	db := testDatabase(t)
	defer cleanupTestData(t, db)

	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)
	organizationID := uuid.NewString()

	_, err := repo.CreateRun(ctx, draftRun(organizationID))
	require.NoError(t, err)

	_, err = repo.CreateRun(ctx, draftRun(organizationID))
	assert.ErrorIs(t, err, payroll.ErrDuplicateRunConflict)
}

func TestPayrollRepository_CreateRun_AllowsRetryAfterFailedRun(t *testing.T) {
	db := testDatabase(t)
	defer cleanupTestData(t, db)

	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)
	organizationID := uuid.NewString()

	first, err := repo.CreateRun(ctx, draftRun(organizationID))
	require.NoError(t, err)

	err = repo.UpdateRunStatus(ctx, first.ID, organizationID, payroll.RunStatusFailed)
	require.NoError(t, err)

	// The partial unique index only covers non-failed runs.
	_, err = repo.CreateRun(ctx, draftRun(organizationID))
	assert.NoError(t, err)
}

func TestPayrollRepository_CreateRun_SamePeriodOtherOrganization(t *testing.T) {
	db := testDatabase(t)
	defer cleanupTestData(t, db)

	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)

	_, err := repo.CreateRun(ctx, draftRun(uuid.NewString()))
	require.NoError(t, err)

	_, err = repo.CreateRun(ctx, draftRun(uuid.NewString()))
	assert.NoError(t, err)
}

func TestPayrollRepository_TransitionRunStatus_SingleWinner(t *testing.T) {
	db := testDatabase(t)
	defer cleanupTestData(t, db)

	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)
	organizationID := uuid.NewString()

	run, err := repo.CreateRun(ctx, draftRun(organizationID))
	require.NoError(t, err)

	err = repo.TransitionRunStatus(ctx, run.ID, organizationID, payroll.RunStatusDraft, payroll.RunStatusProcessing)
	require.NoError(t, err)

	// A second caller holding the same stale status loses the race.
	err = repo.TransitionRunStatus(ctx, run.ID, organizationID, payroll.RunStatusDraft, payroll.RunStatusProcessing)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	stored, err := repo.GetRunByID(ctx, run.ID, organizationID)
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusProcessing, stored.Status)
}

func TestPayrollRepository_CreatePayslip_DuplicateEmployee(t *testing.T) {
	db := testDatabase(t)
	defer cleanupTestData(t, db)

	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)
	organizationID := uuid.NewString()
	employeeID := createTestEmployee(t, ctx, db, organizationID)

	run, err := repo.CreateRun(ctx, draftRun(organizationID))
	require.NoError(t, err)

	payslip := payroll.Payslip{
		ID:         uuid.NewString(),
		RunID:      run.ID,
		EmployeeID: employeeID,
		EarningsBreakdown: []payroll.PayslipLine{
			{SourceComponentID: uuid.NewString(), Name: "HRA", Amount: decimal.RequireFromString("2000")},
		},
		GrossEarnings:   decimal.RequireFromString("2000"),
		TotalDeductions: decimal.Zero,
		NetPay:          decimal.RequireFromString("2000"),
		WorkingDays:     21,
	}
	created, err := repo.CreatePayslip(ctx, payslip)
	require.NoError(t, err)
	assert.False(t, created.Emailed)

	duplicate := payslip
	duplicate.ID = uuid.NewString()
	_, err = repo.CreatePayslip(ctx, duplicate)
	assert.ErrorIs(t, err, payroll.ErrPayslipExists)

	stored, err := repo.GetPayslipByID(ctx, payslip.ID, organizationID)
	require.NoError(t, err)
	assert.Equal(t, employeeID, stored.EmployeeID)
	require.Len(t, stored.EarningsBreakdown, 1)
	assert.Equal(t, "2000", stored.EarningsBreakdown[0].Amount.String())
	assert.Equal(t, "2000", stored.NetPay.String())
}
