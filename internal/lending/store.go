package lending

import (
	"context"

	"github.com/mrlokans/library/internal/entities"
)

// Store is the persistence boundary of the lending service.
//
// Lookups return (nil, nil) when the row does not exist. Every other error is
// treated as an infrastructure failure unless it is ErrStaleBook or
// ErrDuplicateActiveLoan.
type Store interface {
	// WithinTx runs fn in a single write transaction. If fn returns an error
	// nothing it wrote is kept.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	ListDetails(ctx context.Context, filter RecordFilter) ([]entities.BorrowRecordDetail, error)
	GetDetail(ctx context.Context, id string) (*entities.BorrowRecordDetail, error)
	CountBooks(ctx context.Context) (total, borrowed int64, err error)
	CountBorrowers(ctx context.Context) (students, teachers int64, err error)
}

// Tx is the set of reads and writes available inside WithinTx.
type Tx interface {
	FindBook(id uint) (*entities.Book, error)
	BorrowerExists(ref entities.BorrowerRef) (bool, error)
	FindRecord(id string) (*entities.BorrowRecord, error)
	FindActiveByBorrower(ref entities.BorrowerRef) (*entities.BorrowRecord, error)
	FindActiveByBookAndBorrower(bookID uint, ref entities.BorrowerRef) (*entities.BorrowRecord, error)

	// ClaimBook marks book as borrowed by ref if it is still available at
	// book.Version, and updates book in place. Returns ErrStaleBook otherwise.
	ClaimBook(book *entities.Book, ref entities.BorrowerRef) error
	// ReleaseBook makes book available again if it is unchanged since
	// book.Version, and updates book in place. Returns ErrStaleBook otherwise.
	ReleaseBook(book *entities.Book) error

	// CreateRecord returns ErrDuplicateActiveLoan if an active-loan index
	// rejects the insert.
	CreateRecord(record *entities.BorrowRecord) error
	SaveRecord(record *entities.BorrowRecord) error
}

// RecordFilter narrows ListDetails at the storage level.
type RecordFilter struct {
	Borrower *entities.BorrowerRef
	BookID   *uint
}
