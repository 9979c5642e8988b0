package payroll

import (
	"context"
	"log/slog"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/payroll"
)

// EventSink receives one event per processed employee. The surrounding
// application hooks notification delivery here; the engine itself only
// guarantees emission.
type EventSink interface {
	EmployeeProcessed(ctx context.Context, event payroll.EmployeeProcessedEvent)
}

// LogSink is the default sink: it writes each event to the structured log.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) EmployeeProcessed(ctx context.Context, event payroll.EmployeeProcessedEvent) {
	if event.Success {
		s.Logger.InfoContext(ctx, "employee processed",
			"run_id", event.RunID,
			"employee_id", event.EmployeeID)
		return
	}
	s.Logger.WarnContext(ctx, "employee processing failed",
		"run_id", event.RunID,
		"employee_id", event.EmployeeID,
		"error", event.Err)
}
