// Package loans persists borrow records and the lending-owned columns of
// books. It implements lending.Store on top of gorm.
//
//	store := loans.NewStore(db.DB)
//	service := lending.NewService(store)
package loans

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/lending"
)

const detailColumns = `r.*,
	COALESCE(b.title, '') AS book_title,
	CASE r.borrower_kind
		WHEN 'Student' THEN TRIM(COALESCE(st.first_name, '') || ' ' || COALESCE(st.last_name, ''))
		WHEN 'Teacher' THEN TRIM(COALESCE(te.first_name, '') || ' ' || COALESCE(te.last_name, ''))
		ELSE ''
	END AS borrower_name`

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ lending.Store = (*Store)(nil)

func (s *Store) WithinTx(ctx context.Context, fn func(tx lending.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txStore{db: tx})
	})
}

func (s *Store) detailQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("borrow_records AS r").
		Select(detailColumns).
		Joins("LEFT JOIN books b ON b.id = r.book_id").
		Joins("LEFT JOIN students st ON r.borrower_kind = ? AND st.id = r.borrower_id", entities.BorrowerStudent).
		Joins("LEFT JOIN teachers te ON r.borrower_kind = ? AND te.id = r.borrower_id", entities.BorrowerTeacher)
}

// ListDetails returns records joined with book title and borrower name,
// newest loan first.
func (s *Store) ListDetails(ctx context.Context, filter lending.RecordFilter) ([]entities.BorrowRecordDetail, error) {
	query := s.detailQuery(ctx)
	if filter.Borrower != nil {
		query = query.Where("r.borrower_kind = ? AND r.borrower_id = ?", filter.Borrower.Kind, filter.Borrower.ID)
	}
	if filter.BookID != nil {
		query = query.Where("r.book_id = ?", *filter.BookID)
	}

	var details []entities.BorrowRecordDetail
	if err := query.Order("r.borrowed_date DESC, r.id DESC").Scan(&details).Error; err != nil {
		return nil, fmt.Errorf("list borrow records: %w", err)
	}
	return details, nil
}

func (s *Store) GetDetail(ctx context.Context, id string) (*entities.BorrowRecordDetail, error) {
	var details []entities.BorrowRecordDetail
	if err := s.detailQuery(ctx).Where("r.id = ?", id).Limit(1).Scan(&details).Error; err != nil {
		return nil, fmt.Errorf("get borrow record %s: %w", id, err)
	}
	if len(details) == 0 {
		return nil, nil
	}
	return &details[0], nil
}

func (s *Store) CountBooks(ctx context.Context) (total, borrowed int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&entities.Book{}).Count(&total).Error; err != nil {
		return
	}
	err = db.Model(&entities.Book{}).Where("status = ?", entities.BookStatusBorrowed).Count(&borrowed).Error
	return
}

func (s *Store) CountBorrowers(ctx context.Context) (students, teachers int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&entities.Student{}).Count(&students).Error; err != nil {
		return
	}
	err = db.Model(&entities.Teacher{}).Count(&teachers).Error
	return
}

// txStore is the lending.Tx bound to one gorm transaction.
type txStore struct {
	db *gorm.DB
}

func (t *txStore) FindBook(id uint) (*entities.Book, error) {
	var book entities.Book
	err := t.db.Where("id = ?", id).Take(&book).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find book %d: %w", id, err)
	}
	return &book, nil
}

func (t *txStore) BorrowerExists(ref entities.BorrowerRef) (bool, error) {
	var model any
	switch ref.Kind {
	case entities.BorrowerStudent:
		model = &entities.Student{}
	case entities.BorrowerTeacher:
		model = &entities.Teacher{}
	default:
		return false, fmt.Errorf("unknown borrower kind %q", ref.Kind)
	}

	var count int64
	if err := t.db.Model(model).Where("id = ?", ref.ID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("lookup borrower %s: %w", ref, err)
	}
	return count > 0, nil
}

func (t *txStore) FindRecord(id string) (*entities.BorrowRecord, error) {
	return t.takeRecord(t.db.Where("id = ?", id))
}

func (t *txStore) FindActiveByBorrower(ref entities.BorrowerRef) (*entities.BorrowRecord, error) {
	return t.takeRecord(t.db.Where("borrower_kind = ? AND borrower_id = ? AND status = ?",
		ref.Kind, ref.ID, entities.LoanStatusBorrowed))
}

func (t *txStore) FindActiveByBookAndBorrower(bookID uint, ref entities.BorrowerRef) (*entities.BorrowRecord, error) {
	return t.takeRecord(t.db.Where("book_id = ? AND borrower_kind = ? AND borrower_id = ? AND status = ?",
		bookID, ref.Kind, ref.ID, entities.LoanStatusBorrowed))
}

func (t *txStore) takeRecord(query *gorm.DB) (*entities.BorrowRecord, error) {
	var record entities.BorrowRecord
	err := query.Take(&record).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find borrow record: %w", err)
	}
	return &record, nil
}

func (t *txStore) ClaimBook(book *entities.Book, ref entities.BorrowerRef) error {
	result := t.db.Model(&entities.Book{}).
		Where("id = ? AND version = ? AND status = ?", book.ID, book.Version, entities.BookStatusAvailable).
		Updates(map[string]any{
			"status":           entities.BookStatusBorrowed,
			"borrowed_by_id":   ref.ID,
			"borrowed_by_kind": ref.Kind,
			"version":          gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("claim book %d: %w", book.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return lending.ErrStaleBook
	}

	id, kind := ref.ID, ref.Kind
	book.Status = entities.BookStatusBorrowed
	book.BorrowedByID = &id
	book.BorrowedByKind = &kind
	book.Version++
	book.UpdatedAt = time.Now()
	return nil
}

func (t *txStore) ReleaseBook(book *entities.Book) error {
	result := t.db.Model(&entities.Book{}).
		Where("id = ? AND version = ?", book.ID, book.Version).
		Updates(map[string]any{
			"status":           entities.BookStatusAvailable,
			"borrowed_by_id":   nil,
			"borrowed_by_kind": nil,
			"version":          gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("release book %d: %w", book.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return lending.ErrStaleBook
	}

	book.Status = entities.BookStatusAvailable
	book.BorrowedByID = nil
	book.BorrowedByKind = nil
	book.Version++
	book.UpdatedAt = time.Now()
	return nil
}

func (t *txStore) CreateRecord(record *entities.BorrowRecord) error {
	if err := t.db.Create(record).Error; err != nil {
		return recordWriteError(err)
	}
	return nil
}

func (t *txStore) SaveRecord(record *entities.BorrowRecord) error {
	record.UpdatedAt = time.Now()
	err := t.db.Model(record).
		Select("status", "returned_date", "due_date", "updated_at").
		Updates(record).Error
	if err != nil {
		return recordWriteError(err)
	}
	return nil
}

func recordWriteError(err error) error {
	if database.IsActiveLoanViolation(err) {
		return fmt.Errorf("%w: %v", lending.ErrDuplicateActiveLoan, err)
	}
	return fmt.Errorf("write borrow record: %w", err)
}
