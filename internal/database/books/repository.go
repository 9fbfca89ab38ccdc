// Package books provides catalog operations for books.
//
// The lending columns of a book (status, borrowed-by, version) are written
// only by the loans store; this package never changes them.
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByID(ctx, 123)
package books

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

var (
	ErrBookNotFound = errors.New("book not found")
	ErrBookBorrowed = errors.New("book is currently borrowed")
)

// catalogColumns are the fields catalog edits may change.
var catalogColumns = []string{"title", "author", "year", "genre", "language", "image_ref", "version", "updated_at"}

// ListFilter narrows ListBooks.
type ListFilter struct {
	Query     string
	Available *bool
}

// Repository handles catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook adds a new, available book to the catalog.
func (r *Repository) CreateBook(ctx context.Context, book *entities.Book) error {
	book.ID = 0
	book.Status = entities.BookStatusAvailable
	book.BorrowedByID = nil
	book.BorrowedByKind = nil
	book.Version = 0
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

// GetBookByID retrieves a book by its ID.
func (r *Repository) GetBookByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks returns books ordered by title. Query matches title, author and
// genre case-insensitively.
func (r *Repository) ListBooks(ctx context.Context, filter ListFilter) ([]entities.Book, error) {
	query := r.db.WithContext(ctx).Model(&entities.Book{})
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + q + "%"
		query = query.Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?) OR LOWER(genre) LIKE LOWER(?)",
			pattern, pattern, pattern)
	}
	if filter.Available != nil {
		status := entities.BookStatusBorrowed
		if *filter.Available {
			status = entities.BookStatusAvailable
		}
		query = query.Where("status = ?", status)
	}

	var books []entities.Book
	err := query.Order("title ASC, id ASC").Find(&books).Error
	return books, err
}

// UpdateBook saves the descriptive fields of book. Lending state in the
// argument is ignored and replaced with what is stored.
func (r *Repository) UpdateBook(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current entities.Book
		if err := tx.First(&current, book.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		book.Status = current.Status
		book.BorrowedByID = current.BorrowedByID
		book.BorrowedByKind = current.BorrowedByKind
		book.CreatedAt = current.CreatedAt
		book.Version = current.Version + 1
		book.UpdatedAt = time.Now()

		return tx.Model(book).Select(catalogColumns).Updates(book).Error
	})
}

// DeleteBook removes a book from the catalog. Borrowed books cannot be
// deleted; their history rows stay and show the title as unknown.
func (r *Repository) DeleteBook(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		if book.IsBorrowed() {
			return ErrBookBorrowed
		}

		result := tx.Where("id = ? AND version = ?", id, book.Version).Delete(&entities.Book{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBookBorrowed
		}
		return nil
	})
}

// CreateBooks inserts several books in one transaction.
func (r *Repository) CreateBooks(ctx context.Context, books []entities.Book) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range books {
			if err := NewRepository(tx).CreateBook(ctx, &books[i]); err != nil {
				return fmt.Errorf("book %d (%q): %w", i+1, books[i].Title, err)
			}
		}
		return nil
	})
}
