package lending

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/mrlokans/library/internal/entities"
)

const unknownBookTitle = "Unknown"

// Query selects borrow records for history and report views.
type Query struct {
	Borrower *entities.BorrowerRef
	BookID   *uint
	// Status filters on the displayed status, so "overdue" also matches
	// active loans past their due date.
	Status *entities.LoanStatus
	// Text is matched case-insensitively against book title, borrower name,
	// displayed status and due date.
	Text string
}

// Row is a denormalized borrow record as shown to people.
type Row struct {
	ID           string                `json:"id"`
	BookID       uint                  `json:"bookId"`
	BookTitle    string                `json:"bookTitle"`
	BorrowerKind entities.BorrowerKind `json:"borrowerKind"`
	BorrowerID   uint                  `json:"borrowerId"`
	BorrowerName string                `json:"borrowerName"`
	BorrowedDate string                `json:"borrowedDate"`
	DueDate      string                `json:"dueDate"`
	ReturnedDate *string               `json:"returnedDate"`
	Status       entities.LoanStatus   `json:"status"`
	StoredStatus entities.LoanStatus   `json:"storedStatus"`
}

func newRow(detail *entities.BorrowRecordDetail, now time.Time) Row {
	title := detail.BookTitle
	if title == "" {
		title = unknownBookTitle
	}
	row := Row{
		ID:           detail.ID,
		BookID:       detail.BookID,
		BookTitle:    title,
		BorrowerKind: detail.BorrowerKind,
		BorrowerID:   detail.BorrowerID,
		BorrowerName: detail.BorrowerName,
		BorrowedDate: formatDate(detail.BorrowedDate),
		DueDate:      formatDate(detail.DueDate),
		Status:       Classify(&detail.BorrowRecord, now),
		StoredStatus: detail.Status,
	}
	if detail.ReturnedDate != nil {
		rd := formatDate(*detail.ReturnedDate)
		row.ReturnedDate = &rd
	}
	return row
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func (q Query) validate() error {
	if q.Borrower != nil && !q.Borrower.Valid() {
		return validationError("invalid borrower filter %s", q.Borrower)
	}
	if q.Status != nil && !q.Status.Valid() {
		return validationError("invalid status %q", *q.Status)
	}
	return nil
}

// List returns the records matching q, newest first.
func (s *Service) List(ctx context.Context, q Query) ([]Row, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	details, err := s.store.ListDetails(ctx, RecordFilter{Borrower: q.Borrower, BookID: q.BookID})
	if err != nil {
		return nil, asError(err)
	}

	now := s.Now()
	match := textMatcher(q.Text)
	rows := make([]Row, 0, len(details))
	for i := range details {
		row := newRow(&details[i], now)
		if q.Status != nil && row.Status != *q.Status {
			continue
		}
		if !match(row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// textMatcher builds a case-folded substring matcher. A blank query matches
// everything.
func textMatcher(text string) func(Row) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return func(Row) bool { return true }
	}
	fold := cases.Fold()
	needle := fold.String(text)
	return func(row Row) bool {
		for _, field := range []string{row.BookTitle, row.BorrowerName, string(row.Status), row.DueDate} {
			if strings.Contains(fold.String(field), needle) {
				return true
			}
		}
		return false
	}
}

// Get returns a single record by id.
func (s *Service) Get(ctx context.Context, id string) (*Row, error) {
	if id == "" {
		return nil, validationError("record id is required")
	}
	detail, err := s.store.GetDetail(ctx, id)
	if err != nil {
		return nil, asError(err)
	}
	if detail == nil {
		return nil, errRecordNotFound(id)
	}
	row := newRow(detail, s.Now())
	return &row, nil
}

// Summary is the aggregate shown on the admin dashboard.
type Summary struct {
	TotalBooks     int64     `json:"totalBooks"`
	AvailableBooks int64     `json:"availableBooks"`
	BorrowedBooks  int64     `json:"borrowedBooks"`
	ActiveLoans    int       `json:"activeLoans"`
	OverdueLoans   int       `json:"overdueLoans"`
	ReturnedLoans  int       `json:"returnedLoans"`
	Students       int64     `json:"students"`
	Teachers       int64     `json:"teachers"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	total, borrowed, err := s.store.CountBooks(ctx)
	if err != nil {
		return nil, asError(err)
	}
	students, teachers, err := s.store.CountBorrowers(ctx)
	if err != nil {
		return nil, asError(err)
	}
	details, err := s.store.ListDetails(ctx, RecordFilter{})
	if err != nil {
		return nil, asError(err)
	}

	now := s.Now()
	summary := &Summary{
		TotalBooks:     total,
		AvailableBooks: total - borrowed,
		BorrowedBooks:  borrowed,
		Students:       students,
		Teachers:       teachers,
		GeneratedAt:    now,
	}
	for i := range details {
		record := &details[i].BorrowRecord
		if record.IsActive() {
			summary.ActiveLoans++
		}
		switch Classify(record, now) {
		case entities.LoanStatusOverdue:
			summary.OverdueLoans++
		case entities.LoanStatusReturned:
			summary.ReturnedLoans++
		}
	}
	return summary, nil
}
