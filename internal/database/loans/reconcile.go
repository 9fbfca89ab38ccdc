package loans

import (
	"context"
	"fmt"

	"github.com/mrlokans/library/internal/entities"
)

type DriftKind string

const (
	// DriftOrphanedBook is a book marked borrowed with no active record.
	DriftOrphanedBook DriftKind = "orphaned_book"
	// DriftUnclaimedLoan is an active record whose book is not held by the
	// record's borrower.
	DriftUnclaimedLoan DriftKind = "unclaimed_loan"
)

// Drift is one disagreement between book state and borrow records.
type Drift struct {
	Kind     DriftKind `json:"kind"`
	BookID   uint      `json:"bookId"`
	RecordID string    `json:"recordId,omitempty"`
}

func (d Drift) String() string {
	if d.RecordID != "" {
		return fmt.Sprintf("%s book=%d record=%s", d.Kind, d.BookID, d.RecordID)
	}
	return fmt.Sprintf("%s book=%d", d.Kind, d.BookID)
}

// CheckConsistency reports every book/record pair that breaks the rule
// "a book is borrowed iff exactly one active record points at it". It only
// reads.
func (s *Store) CheckConsistency(ctx context.Context) ([]Drift, error) {
	db := s.db.WithContext(ctx)

	var orphaned []uint
	err := db.Table("books AS b").
		Joins("LEFT JOIN borrow_records r ON r.book_id = b.id AND r.status = ?", entities.LoanStatusBorrowed).
		Where("b.status = ? AND r.id IS NULL", entities.BookStatusBorrowed).
		Order("b.id").
		Pluck("b.id", &orphaned).Error
	if err != nil {
		return nil, fmt.Errorf("find orphaned books: %w", err)
	}

	var unclaimed []struct {
		ID     string
		BookID uint
	}
	err = db.Table("borrow_records AS r").
		Select("r.id, r.book_id").
		Joins("LEFT JOIN books b ON b.id = r.book_id").
		Where("r.status = ?", entities.LoanStatusBorrowed).
		Where("b.id IS NULL OR b.status <> ? OR b.borrowed_by_kind IS NOT r.borrower_kind OR b.borrowed_by_id IS NOT r.borrower_id",
			entities.BookStatusBorrowed).
		Order("r.id").
		Scan(&unclaimed).Error
	if err != nil {
		return nil, fmt.Errorf("find unclaimed loans: %w", err)
	}

	drifts := make([]Drift, 0, len(orphaned)+len(unclaimed))
	for _, id := range orphaned {
		drifts = append(drifts, Drift{Kind: DriftOrphanedBook, BookID: id})
	}
	for _, row := range unclaimed {
		drifts = append(drifts, Drift{Kind: DriftUnclaimedLoan, BookID: row.BookID, RecordID: row.ID})
	}
	return drifts, nil
}
