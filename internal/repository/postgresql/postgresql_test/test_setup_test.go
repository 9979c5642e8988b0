package postgresql_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/workstream-hq/payroll-engine-go/internal/pkg/database"
)

var (
	testDB      *database.DB
	connectErr  error
	connectOnce sync.Once
)

// testDatabase connects to the database named by TEST_DATABASE_URL and skips
// the test when the variable is unset. The schema from
// migrations/001_init.sql must already be applied.
func testDatabase(t *testing.T) *database.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	connectOnce.Do(func() {
		testDB, connectErr = database.NewPostgreSQLDB(dsn)
	})
	require.NoError(t, connectErr)
	return testDB
}

func cleanupTestData(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()

	tables := []string{
		"payroll_run_failures",
		"payslips",
		"payroll_runs",
		"salary_assignments",
		"structure_components",
		"salary_structures",
		"salary_components",
		"leave_requests",
		"leave_types",
		"attendances",
		"employees",
	}
	for _, table := range tables {
		_, err := db.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		require.NoError(t, err)
	}
}

func createTestEmployee(t *testing.T, ctx context.Context, db *database.DB, organizationID string) string {
	t.Helper()
	var id string
	err := db.QueryRow(ctx, `
		INSERT INTO employees (organization_id, employee_code, full_name, employment_status)
		VALUES ($1, $2, 'Test Employee', 'active')
		RETURNING id
	`, organizationID, "EMP-"+uuid.NewString()[:8]).Scan(&id)
	require.NoError(t, err)
	return id
}

func createTestStructure(t *testing.T, ctx context.Context, db *database.DB, organizationID string) string {
	t.Helper()
	var id string
	err := db.QueryRow(ctx, `
		INSERT INTO salary_structures (organization_id, name)
		VALUES ($1, $2)
		RETURNING id
	`, organizationID, "Structure "+uuid.NewString()[:8]).Scan(&id)
	require.NoError(t, err)
	return id
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
