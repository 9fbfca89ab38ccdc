package lending

import (
	"github.com/mrlokans/library/internal/entities"
)

// borrowState is everything decideBorrow needs to know about the world.
type borrowState struct {
	book           *entities.Book
	borrowerExists bool
	activeLoan     *entities.BorrowRecord
}

// decideBorrow checks the borrow preconditions in order; the first failure
// wins.
func decideBorrow(state borrowState, bookID uint, borrower entities.BorrowerRef) error {
	switch {
	case state.book == nil:
		return errBookNotFound(bookID)
	case state.book.IsBorrowed():
		return errBookAlreadyBorrowed()
	case !state.borrowerExists:
		return errInvalidBorrower(borrower)
	case state.activeLoan != nil:
		return errActiveLoanExists()
	}
	return nil
}

type returnState struct {
	book       *entities.Book
	activeLoan *entities.BorrowRecord
}

func decideReturn(state returnState, bookID uint) error {
	switch {
	case state.book == nil:
		return errBookNotFound(bookID)
	case state.activeLoan == nil:
		return errNoActiveLoan()
	}
	return nil
}

// reopenState describes an override back to borrowed.
type reopenState struct {
	book            *entities.Book
	otherActiveLoan *entities.BorrowRecord
}

// decideReopen skips the borrow policy but still refuses to create a second
// active loan for the book or the borrower.
func decideReopen(state reopenState, record *entities.BorrowRecord) error {
	switch {
	case state.book == nil:
		return errBookNotFound(record.BookID)
	case state.book.IsBorrowed():
		return errBookAlreadyBorrowed()
	case state.otherActiveLoan != nil:
		return errActiveLoanExists()
	}
	return nil
}

func errInvalidBorrower(ref entities.BorrowerRef) *Error {
	switch ref.Kind {
	case entities.BorrowerStudent:
		return newError(ErrInvalidReference, CodeInvalidBorrower, "invalid student id %d", ref.ID)
	case entities.BorrowerTeacher:
		return newError(ErrInvalidReference, CodeInvalidBorrower, "invalid teacher id %d", ref.ID)
	}
	return validationError("unknown borrower kind %q", ref.Kind)
}
