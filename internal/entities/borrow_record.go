package entities

import "time"

type LoanStatus string

const (
	LoanStatusBorrowed LoanStatus = "borrowed"
	LoanStatusReturned LoanStatus = "returned"
	LoanStatusOverdue  LoanStatus = "overdue"
)

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanStatusBorrowed, LoanStatusReturned, LoanStatusOverdue:
		return true
	}
	return false
}

// BorrowRecord is one loan of one book to one borrower. At most one record per
// book and at most one record per borrower may be in the borrowed state; both
// rules are backed by partial unique indexes (see database.Migrate).
type BorrowRecord struct {
	ID           string       `gorm:"primaryKey;size:26" json:"id"`
	BookID       uint         `gorm:"not null;index" json:"bookId"`
	BorrowerKind BorrowerKind `gorm:"size:20;not null;index:idx_borrow_records_borrower" json:"borrowerKind"`
	BorrowerID   uint         `gorm:"not null;index:idx_borrow_records_borrower" json:"borrowerId"`
	BorrowedDate time.Time    `gorm:"not null;index" json:"borrowedDate"`
	DueDate      time.Time    `gorm:"not null" json:"dueDate"`
	ReturnedDate *time.Time   `json:"returnedDate"`
	Status       LoanStatus   `gorm:"size:20;not null;index" json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (BorrowRecord) TableName() string {
	return "borrow_records"
}

func (r *BorrowRecord) Borrower() BorrowerRef {
	return BorrowerRef{Kind: r.BorrowerKind, ID: r.BorrowerID}
}

func (r *BorrowRecord) IsActive() bool {
	return r.Status == LoanStatusBorrowed
}

// BorrowRecordDetail is a borrow record joined with the book title and the
// borrower's display name.
type BorrowRecordDetail struct {
	BorrowRecord
	BookTitle    string
	BorrowerName string
}
