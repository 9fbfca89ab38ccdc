package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/library/internal/audit"
	auditdb "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/borrowers"
	"github.com/mrlokans/library/internal/database/complaints"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/lending"
)

// This file collects the interfaces the controllers depend on. Each controller
// takes only what it uses.

// LendingService is the borrow/return engine and its read side.
type LendingService interface {
	Borrow(ctx context.Context, req lending.BorrowRequest) (*entities.BorrowRecord, error)
	Return(ctx context.Context, bookID uint, borrower entities.BorrowerRef) (*entities.BorrowRecord, error)
	SetStatus(ctx context.Context, recordID string, status entities.LoanStatus, returnedDate *time.Time) (*entities.BorrowRecord, error)
	List(ctx context.Context, q lending.Query) ([]lending.Row, error)
	Get(ctx context.Context, id string) (*lending.Row, error)
	Summary(ctx context.Context) (*lending.Summary, error)
	Now() time.Time
}

// BookStore is the catalog.
type BookStore interface {
	CreateBook(ctx context.Context, book *entities.Book) error
	GetBookByID(ctx context.Context, id uint) (*entities.Book, error)
	ListBooks(ctx context.Context, filter books.ListFilter) ([]entities.Book, error)
	UpdateBook(ctx context.Context, book *entities.Book) error
	DeleteBook(ctx context.Context, id uint) error
}

// BorrowerStore is the student and teacher directory.
type BorrowerStore interface {
	CreateStudent(ctx context.Context, s *entities.Student) error
	GetStudent(ctx context.Context, id uint) (*entities.Student, error)
	FindStudentByEmail(ctx context.Context, email string) (*entities.Student, error)
	ListStudents(ctx context.Context, filter borrowers.ListFilter) ([]entities.Student, error)
	UpdateStudent(ctx context.Context, s *entities.Student) error
	DeleteStudent(ctx context.Context, id uint) error

	CreateTeacher(ctx context.Context, t *entities.Teacher) error
	GetTeacher(ctx context.Context, id uint) (*entities.Teacher, error)
	FindTeacherByEmail(ctx context.Context, email string) (*entities.Teacher, error)
	ListTeachers(ctx context.Context, filter borrowers.ListFilter) ([]entities.Teacher, error)
	UpdateTeacher(ctx context.Context, t *entities.Teacher) error
	DeleteTeacher(ctx context.Context, id uint) error
}

// ComplaintStore holds contact-form complaints.
type ComplaintStore interface {
	CreateComplaint(ctx context.Context, complaint *entities.Complaint) error
	GetComplaint(ctx context.Context, id uint) (*entities.Complaint, error)
	ListComplaints(ctx context.Context, filter complaints.ListFilter) ([]entities.Complaint, error)
	UpdateComplaint(ctx context.Context, complaint *entities.Complaint) error
	DeleteComplaint(ctx context.Context, id uint) error
}

// AuditLogger records mutations and login attempts.
type AuditLogger interface {
	LogBorrow(origin audit.Origin, bookID uint, borrower entities.BorrowerRef, record *entities.BorrowRecord, err error)
	LogReturn(origin audit.Origin, bookID uint, borrower entities.BorrowerRef, record *entities.BorrowRecord, err error)
	LogOverride(origin audit.Origin, recordID string, status entities.LoanStatus, err error)
	LogCatalog(origin audit.Origin, action string, bookID uint, title string, err error)
	LogDirectory(origin audit.Origin, action string, ref entities.BorrowerRef, name string, err error)
	LogComplaint(origin audit.Origin, action string, complaintID uint, subject string, err error)
	LogAuth(origin audit.Origin, kind entities.BorrowerKind, email string, success bool)
}

// AuditReader serves the audit log.
type AuditReader interface {
	GetEvents(filter auditdb.EventFilter, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// TaskQueue enqueues maintenance tasks and reports their status.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// nopAuditLogger is used when no audit service is configured.
type nopAuditLogger struct{}

func (nopAuditLogger) LogBorrow(audit.Origin, uint, entities.BorrowerRef, *entities.BorrowRecord, error) {
}
func (nopAuditLogger) LogReturn(audit.Origin, uint, entities.BorrowerRef, *entities.BorrowRecord, error) {
}
func (nopAuditLogger) LogOverride(audit.Origin, string, entities.LoanStatus, error)           {}
func (nopAuditLogger) LogCatalog(audit.Origin, string, uint, string, error)                   {}
func (nopAuditLogger) LogDirectory(audit.Origin, string, entities.BorrowerRef, string, error) {}
func (nopAuditLogger) LogComplaint(audit.Origin, string, uint, string, error)                 {}
func (nopAuditLogger) LogAuth(audit.Origin, entities.BorrowerKind, string, bool)              {}

func auditOrNop(a AuditLogger) AuditLogger {
	if a == nil {
		return nopAuditLogger{}
	}
	return a
}
