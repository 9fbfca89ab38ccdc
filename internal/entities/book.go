package entities

import "time"

type BookStatus string

const (
	BookStatusAvailable BookStatus = "available"
	BookStatusBorrowed  BookStatus = "borrowed"
)

// Book is a catalog entry. Status, BorrowedByID and BorrowedByKind are owned by
// the lending service; catalog edits never touch them.
type Book struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	Title          string        `gorm:"not null;index" json:"title"`
	Author         string        `gorm:"not null;index" json:"author"`
	Year           int           `json:"year"`
	Genre          string        `json:"genre"`
	Language       string        `json:"language"`
	ImageRef       string        `json:"imageRef,omitempty"`
	Status         BookStatus    `gorm:"size:20;not null;default:available;index" json:"status"`
	BorrowedByID   *uint         `json:"borrowedBy"`
	BorrowedByKind *BorrowerKind `gorm:"size:20" json:"borrowedByKind"`
	Version        int           `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

func (Book) TableName() string {
	return "books"
}

// IsBorrowed reports whether the book is currently lent out.
func (b *Book) IsBorrowed() bool {
	return b.Status == BookStatusBorrowed
}

// Holder returns the borrower currently holding the book, if any.
func (b *Book) Holder() (BorrowerRef, bool) {
	if b.BorrowedByID == nil || b.BorrowedByKind == nil {
		return BorrowerRef{}, false
	}
	return BorrowerRef{Kind: *b.BorrowedByKind, ID: *b.BorrowedByID}, true
}
