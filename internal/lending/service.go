package lending

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mrlokans/library/internal/entities"
)

// Service applies the borrow, return and override transitions. Each operation
// runs in one store transaction, so a rejected call leaves books and borrow
// records exactly as they were.
type Service struct {
	store Store
	clock Clock
	ids   IDGenerator
}

type Option func(*Service)

func WithClock(clock Clock) Option {
	return func(s *Service) { s.clock = clock }
}

func WithIDGenerator(ids IDGenerator) Option {
	return func(s *Service) { s.ids = ids }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		clock: systemClock{},
		ids:   NewULIDGenerator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now exposes the service clock so read paths and callers classify against
// the same instant.
func (s *Service) Now() time.Time {
	return s.clock.Now().UTC()
}

// Borrow opens a loan of req.BookID to req.Borrower.
func (s *Service) Borrow(ctx context.Context, req BorrowRequest) (*entities.BorrowRecord, error) {
	now := s.Now()
	if err := req.validate(now); err != nil {
		return nil, err
	}

	var record *entities.BorrowRecord
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		state, err := loadBorrowState(tx, req.BookID, req.Borrower)
		if err != nil {
			return err
		}
		if err := decideBorrow(state, req.BookID, req.Borrower); err != nil {
			return err
		}

		if err := tx.ClaimBook(state.book, req.Borrower); err != nil {
			if errors.Is(err, ErrStaleBook) {
				return errBookAlreadyBorrowed()
			}
			return err
		}

		id, err := s.ids.NewID(now)
		if err != nil {
			return err
		}
		rec := &entities.BorrowRecord{
			ID:           id,
			BookID:       req.BookID,
			BorrowerKind: req.Borrower.Kind,
			BorrowerID:   req.Borrower.ID,
			BorrowedDate: now,
			DueDate:      req.DueDate.UTC(),
			Status:       entities.LoanStatusBorrowed,
		}
		if err := tx.CreateRecord(rec); err != nil {
			if errors.Is(err, ErrDuplicateActiveLoan) {
				return errActiveLoanExists()
			}
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, asError(err)
	}

	log.Printf("[LENDING] %s borrowed book %d until %s (record %s)",
		req.Borrower, req.BookID, record.DueDate.Format(dateLayout), record.ID)
	return record, nil
}

func loadBorrowState(tx Tx, bookID uint, borrower entities.BorrowerRef) (borrowState, error) {
	var state borrowState
	book, err := tx.FindBook(bookID)
	if err != nil || book == nil || book.IsBorrowed() {
		state.book = book
		return state, err
	}
	state.book = book

	exists, err := tx.BorrowerExists(borrower)
	if err != nil || !exists {
		return state, err
	}
	state.borrowerExists = true

	state.activeLoan, err = tx.FindActiveByBorrower(borrower)
	return state, err
}

// Return closes the active loan of bookID held by borrower.
func (s *Service) Return(ctx context.Context, bookID uint, borrower entities.BorrowerRef) (*entities.BorrowRecord, error) {
	if err := validateTarget(bookID, borrower); err != nil {
		return nil, err
	}
	now := s.Now()

	var record *entities.BorrowRecord
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		var state returnState
		var err error
		if state.book, err = tx.FindBook(bookID); err != nil {
			return err
		}
		if state.book != nil {
			if state.activeLoan, err = tx.FindActiveByBookAndBorrower(bookID, borrower); err != nil {
				return err
			}
		}
		if err := decideReturn(state, bookID); err != nil {
			return err
		}

		rec := state.activeLoan
		rec.Status = entities.LoanStatusReturned
		rec.ReturnedDate = &now
		if err := tx.SaveRecord(rec); err != nil {
			return err
		}
		if err := releaseIfHeld(tx, state.book, borrower); err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, asError(err)
	}

	log.Printf("[LENDING] %s returned book %d (record %s)", borrower, bookID, record.ID)
	return record, nil
}

// releaseIfHeld frees book when holder is the borrower currently recorded on
// it. A book held by someone else is left alone.
func releaseIfHeld(tx Tx, book *entities.Book, holder entities.BorrowerRef) error {
	if book == nil {
		return nil
	}
	current, ok := book.Holder()
	if !ok || current != holder {
		return nil
	}
	if err := tx.ReleaseBook(book); err != nil {
		if errors.Is(err, ErrStaleBook) {
			return errConcurrentUpdate()
		}
		return err
	}
	return nil
}

// SetStatus forces a borrow record into status. It is a corrective tool for
// administrators: returned and overdue close the loan and free the book,
// borrowed reopens it. The one-active-loan rules still hold afterwards.
func (s *Service) SetStatus(ctx context.Context, recordID string, status entities.LoanStatus, returnedDate *time.Time) (*entities.BorrowRecord, error) {
	if recordID == "" {
		return nil, validationError("record id is required")
	}
	if !status.Valid() {
		return nil, validationError("invalid status %q", status)
	}
	if status == entities.LoanStatusBorrowed && returnedDate != nil {
		return nil, validationError("returnedDate cannot be set when reopening a loan")
	}
	now := s.Now()

	var record *entities.BorrowRecord
	var previous entities.LoanStatus
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		rec, err := tx.FindRecord(recordID)
		if err != nil {
			return err
		}
		if rec == nil {
			return errRecordNotFound(recordID)
		}
		previous = rec.Status
		if returnedDate != nil && returnedDate.Before(rec.BorrowedDate) {
			return validationError("returnedDate is before the borrow date")
		}

		book, err := tx.FindBook(rec.BookID)
		if err != nil {
			return err
		}

		switch status {
		case entities.LoanStatusReturned, entities.LoanStatusOverdue:
			err = closeLoan(tx, rec, book, status, returnedDate, now)
		case entities.LoanStatusBorrowed:
			err = reopenLoan(tx, rec, book)
		}
		if err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, asError(err)
	}

	log.Printf("[LENDING] record %s status override %s -> %s", record.ID, previous, record.Status)
	return record, nil
}

func closeLoan(tx Tx, rec *entities.BorrowRecord, book *entities.Book, status entities.LoanStatus, returnedDate *time.Time, now time.Time) error {
	wasActive := rec.IsActive()
	rec.Status = status
	switch {
	case returnedDate != nil:
		rd := returnedDate.UTC()
		rec.ReturnedDate = &rd
	case status == entities.LoanStatusReturned && rec.ReturnedDate == nil:
		rec.ReturnedDate = &now
	}
	if err := tx.SaveRecord(rec); err != nil {
		return err
	}
	if !wasActive {
		return nil
	}
	return releaseIfHeld(tx, book, rec.Borrower())
}

func reopenLoan(tx Tx, rec *entities.BorrowRecord, book *entities.Book) error {
	if rec.IsActive() {
		return nil
	}
	state := reopenState{book: book}
	if book != nil && !book.IsBorrowed() {
		other, err := tx.FindActiveByBorrower(rec.Borrower())
		if err != nil {
			return err
		}
		state.otherActiveLoan = other
	}
	if err := decideReopen(state, rec); err != nil {
		return err
	}

	rec.Status = entities.LoanStatusBorrowed
	rec.ReturnedDate = nil
	if err := tx.SaveRecord(rec); err != nil {
		if errors.Is(err, ErrDuplicateActiveLoan) {
			return errActiveLoanExists()
		}
		return err
	}
	if err := tx.ClaimBook(book, rec.Borrower()); err != nil {
		if errors.Is(err, ErrStaleBook) {
			return errBookAlreadyBorrowed()
		}
		return err
	}
	return nil
}
