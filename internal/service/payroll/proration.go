package payroll

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/salary"
	"github.com/workstream-hq/payroll-engine-go/internal/service/structure"
)

// Proration is the loss-of-pay summary for one employee and pay period.
type Proration struct {
	WorkingDays int
	LOPDays     int
	Factor      decimal.Decimal
}

// WorkingDaysInPeriod counts the calendar days in [start, end] that are not
// configured non-working weekdays.
func WorkingDaysInPeriod(start, end time.Time, nonWorkingDays []time.Weekday) int {
	nonWorking := make(map[time.Weekday]bool, len(nonWorkingDays))
	for _, day := range nonWorkingDays {
		nonWorking[day] = true
	}

	count := 0
	for d := dateOnly(start); !d.After(dateOnly(end)); d = d.AddDate(0, 0, 1) {
		if !nonWorking[d.Weekday()] {
			count++
		}
	}
	return count
}

// CalculateProration derives the LOP day count from absence and unpaid-leave
// dates, de-duplicated by calendar day and restricted to the pay period, and
// turns it into a scaling factor (workingDays - lopDays) / workingDays. The
// count is clamped to [0, workingDays]; a period with no working days yields
// factor 1 and a warning instead of a division by zero.
func CalculateProration(logger *slog.Logger, workingDays int, periodStart, periodEnd time.Time, absences, unpaidLeaveDays []time.Time) Proration {
	days := make(map[string]struct{})
	for _, list := range [][]time.Time{absences, unpaidLeaveDays} {
		for _, day := range list {
			d := dateOnly(day)
			if d.Before(dateOnly(periodStart)) || d.After(dateOnly(periodEnd)) {
				continue
			}
			days[d.Format("2006-01-02")] = struct{}{}
		}
	}

	lopDays := len(days)
	if lopDays > workingDays {
		lopDays = workingDays
	}

	if workingDays <= 0 {
		logger.Warn("pay period has no working days, skipping proration",
			"period_start", periodStart.Format("2006-01-02"),
			"period_end", periodEnd.Format("2006-01-02"))
		return Proration{WorkingDays: 0, LOPDays: 0, Factor: decimal.NewFromInt(1)}
	}

	factor := decimal.NewFromInt(int64(workingDays - lopDays)).Div(decimal.NewFromInt(int64(workingDays)))
	return Proration{WorkingDays: workingDays, LOPDays: lopDays, Factor: factor}
}

// Apply scales every earning line by the proration factor. Deductions are
// never prorated.
func (p Proration) Apply(values []structure.ComponentValue) []structure.ComponentValue {
	result := make([]structure.ComponentValue, len(values))
	for i, v := range values {
		if v.Kind == salary.ComponentKindEarning {
			v.Amount = v.Amount.Mul(p.Factor).Round(2)
		}
		result[i] = v
	}
	return result
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
