package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/elibrary/internal/database/loans"
	"github.com/mrlokans/elibrary/internal/metrics"
)

const QueueScanOverdueLoans = "scan_overdue_loans"

// OverdueReporter lists active loans that are past due.
type OverdueReporter interface {
	OverdueReport(ctx context.Context) ([]loans.OverdueRow, error)
}

// ScanOverdueLoansTask counts overdue loans, publishes the count as a gauge
// and records the loan IDs in the audit log.
type ScanOverdueLoansTask struct{}

func (t ScanOverdueLoansTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        QueueScanOverdueLoans,
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ScanOverdueLoansProcessor creates a processor function for
// ScanOverdueLoansTask. recorder may be nil.
func ScanOverdueLoansProcessor(reporter OverdueReporter, recorder MaintenanceRecorder) backlite.QueueProcessor[ScanOverdueLoansTask] {
	return func(ctx context.Context, _ ScanOverdueLoansTask) (err error) {
		defer func() { metrics.ObserveTask(QueueScanOverdueLoans, err) }()

		if reporter == nil {
			return fmt.Errorf("overdue reporter not configured")
		}

		rows, err := reporter.OverdueReport(ctx)
		if err != nil {
			if recorder != nil {
				recorder.LogMaintenance(QueueScanOverdueLoans, "Overdue scan failed", nil, err)
			}
			return fmt.Errorf("scan overdue loans: %w", err)
		}

		metrics.SetOverdueLoans(len(rows))

		loanIDs := make([]uint, 0, len(rows))
		for _, row := range rows {
			loanIDs = append(loanIDs, row.LoanID)
		}
		if recorder != nil {
			recorder.LogMaintenance(QueueScanOverdueLoans,
				fmt.Sprintf("Found %d overdue loans", len(rows)),
				map[string]any{"overdue": len(rows), "loan_ids": loanIDs}, nil)
		}

		log.Printf("[TASK] Overdue scan found %d loans", len(rows))
		return nil
	}
}

func NewScanOverdueLoansQueue(reporter OverdueReporter, recorder MaintenanceRecorder) backlite.Queue {
	return backlite.NewQueue(ScanOverdueLoansProcessor(reporter, recorder))
}
