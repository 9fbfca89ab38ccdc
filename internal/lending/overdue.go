package lending

import (
	"time"

	"github.com/mrlokans/library/internal/entities"
)

// Classify returns the status a record should be displayed with at now. It
// never changes the stored status: an active loan past its due date shows as
// overdue while staying borrowed in storage.
func Classify(record *entities.BorrowRecord, now time.Time) entities.LoanStatus {
	switch record.Status {
	case entities.LoanStatusReturned:
		return entities.LoanStatusReturned
	case entities.LoanStatusOverdue:
		return entities.LoanStatusOverdue
	case entities.LoanStatusBorrowed:
		if record.DueDate.Before(now) {
			return entities.LoanStatusOverdue
		}
		return entities.LoanStatusBorrowed
	}
	return record.Status
}

// IsOverdue reports whether an active loan has passed its due date.
func IsOverdue(record *entities.BorrowRecord, now time.Time) bool {
	return record.IsActive() && Classify(record, now) == entities.LoanStatusOverdue
}
