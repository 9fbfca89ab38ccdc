package lending

import (
	"strings"
	"time"

	"github.com/mrlokans/library/internal/entities"
)

const dateLayout = "2006-01-02"

// BorrowRequest carries everything needed to open a loan. The caller is
// responsible for having authenticated Borrower.
type BorrowRequest struct {
	BookID   uint
	Borrower entities.BorrowerRef
	DueDate  time.Time
}

func (r BorrowRequest) validate(now time.Time) error {
	if err := validateTarget(r.BookID, r.Borrower); err != nil {
		return err
	}
	if r.DueDate.IsZero() {
		return validationError("dueDate is required")
	}
	if !r.DueDate.After(now) {
		return validationError("dueDate must be after the borrow date")
	}
	return nil
}

func validateTarget(bookID uint, borrower entities.BorrowerRef) error {
	if bookID == 0 {
		return validationError("bookId is required")
	}
	if !borrower.Kind.Valid() {
		return validationError("unknown borrower kind %q", borrower.Kind)
	}
	if borrower.ID == 0 {
		return validationError("borrower id is required")
	}
	return nil
}

// BorrowerFromIDs builds a borrower reference from the wire format, where a
// request names either a student or a teacher.
func BorrowerFromIDs(studentID, teacherID *uint) (entities.BorrowerRef, error) {
	switch {
	case studentID != nil && teacherID != nil, studentID == nil && teacherID == nil:
		return entities.BorrowerRef{}, validationError("provide either teacherId or studentId, but not both or neither")
	case studentID != nil:
		if *studentID == 0 {
			return entities.BorrowerRef{}, validationError("studentId must be positive")
		}
		return entities.StudentRef(*studentID), nil
	default:
		if *teacherID == 0 {
			return entities.BorrowerRef{}, validationError("teacherId must be positive")
		}
		return entities.TeacherRef(*teacherID), nil
	}
}

// ParseDueDate accepts RFC 3339 timestamps and plain dates. A plain date means
// midnight UTC at the start of that day.
func ParseDueDate(s string) (time.Time, error) {
	return ParseDate("dueDate", s)
}

// ParseDate parses a wire date for field, in the formats ParseDueDate accepts.
func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, validationError("%s is required", field)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, validationError("invalid %s format %q", field, s)
}

// ParseStatus validates a loan status name.
func ParseStatus(s string) (entities.LoanStatus, error) {
	status := entities.LoanStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", validationError("invalid status %q", s)
	}
	return status, nil
}
