package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/payroll"
	"github.com/workstream-hq/payroll-engine-go/internal/pkg/database"
)

type leaveLog struct {
	db *database.DB
}

func NewLeaveLog(db *database.DB) payroll.LeaveLog {
	return &leaveLog{db: db}
}

// UnpaidLeaveDaysInRange expands approved unpaid leave requests into their
// individual calendar days, clipped to [start, end].
func (r *leaveLog) UnpaidLeaveDaysInRange(ctx context.Context, employeeID string, start, end time.Time) ([]time.Time, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT d.day::date
		FROM leave_requests lr
		JOIN leave_types lt ON lt.id = lr.leave_type_id
		CROSS JOIN LATERAL generate_series(
			GREATEST(lr.start_date, $2::date),
			LEAST(lr.end_date, $3::date),
			'1 day'::interval
		) AS d(day)
		WHERE lr.employee_id = $1
		  AND lr.status = 'approved'
		  AND lt.is_paid = false
		  AND lr.start_date <= $3 AND lr.end_date >= $2
		ORDER BY d.day::date ASC
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpaid leave days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan unpaid leave day: %w", err)
		}
		days = append(days, d)
	}

	return days, rows.Err()
}
