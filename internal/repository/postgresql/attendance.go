package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/payroll"
	"github.com/workstream-hq/payroll-engine-go/internal/pkg/database"
)

type attendanceLog struct {
	db *database.DB
}

func NewAttendanceLog(db *database.DB) payroll.AttendanceLog {
	return &attendanceLog{db: db}
}

func (r *attendanceLog) AbsenceDatesInRange(ctx context.Context, employeeID string, start, end time.Time) ([]time.Time, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT date
		FROM attendances
		WHERE employee_id = $1 AND status = 'absent' AND date BETWEEN $2 AND $3
		ORDER BY date ASC
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list absence dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan absence date: %w", err)
		}
		dates = append(dates, d)
	}

	return dates, rows.Err()
}
