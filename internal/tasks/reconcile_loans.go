package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/library/internal/database/loans"
)

// ConsistencyChecker finds disagreements between books and borrow records.
type ConsistencyChecker interface {
	CheckConsistency(ctx context.Context) ([]loans.Drift, error)
}

// ReconcileReporter receives the findings of each run.
type ReconcileReporter interface {
	LogReconcile(findings []string, err error)
}

// ReportArchiver keeps a copy of non-empty findings.
type ReportArchiver interface {
	Save(kind string, data any) (string, error)
}

// ReconcileLoansTask checks that every borrowed book has exactly one matching
// active record. It only reports; repairs go through the status override.
type ReconcileLoansTask struct{}

func (t ReconcileLoansTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "reconcile_loans",
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ReconcileLoansProcessor runs the check. reporter and archive may be nil.
func ReconcileLoansProcessor(checker ConsistencyChecker, reporter ReconcileReporter, archive ReportArchiver) backlite.QueueProcessor[ReconcileLoansTask] {
	return func(ctx context.Context, _ ReconcileLoansTask) error {
		if checker == nil {
			return fmt.Errorf("consistency checker not configured")
		}

		drifts, err := checker.CheckConsistency(ctx)
		if err != nil {
			if reporter != nil {
				reporter.LogReconcile(nil, err)
			}
			return fmt.Errorf("reconcile loans: %w", err)
		}

		findings := make([]string, len(drifts))
		for i, d := range drifts {
			findings[i] = d.String()
			log.Printf("[TASK] Loan drift: %s", d)
		}
		if reporter != nil {
			reporter.LogReconcile(findings, nil)
		}
		if len(drifts) > 0 && archive != nil {
			if _, err := archive.Save("reconcile", drifts); err != nil {
				log.Printf("[TASK ERROR] Failed to archive reconcile report: %v", err)
			}
		}

		log.Printf("[TASK] Reconciled loans, %d inconsistencies found", len(drifts))
		return nil
	}
}

func NewReconcileLoansQueue(checker ConsistencyChecker, reporter ReconcileReporter, archive ReportArchiver) backlite.Queue {
	return backlite.NewQueue(ReconcileLoansProcessor(checker, reporter, archive))
}
