// Package complaints stores messages sent through the contact form.
//
//	repo := complaints.NewRepository(db)
//	list, err := repo.ListComplaints(ctx, complaints.ListFilter{Query: "late fee"})
package complaints

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

var ErrComplaintNotFound = errors.New("complaint not found")

// editableColumns are the fields UpdateComplaint may change.
var editableColumns = []string{
	"first_name", "last_name", "email", "phone", "subject", "inquiry",
	"contact_method", "consent", "image_ref", "updated_at",
}

// ListFilter narrows ListComplaints.
type ListFilter struct {
	Query         string
	ContactMethod entities.ContactMethod
}

// Repository handles complaint database operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateComplaint(ctx context.Context, complaint *entities.Complaint) error {
	complaint.ID = 0
	if err := r.db.WithContext(ctx).Create(complaint).Error; err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

func (r *Repository) GetComplaint(ctx context.Context, id uint) (*entities.Complaint, error) {
	var complaint entities.Complaint
	err := r.db.WithContext(ctx).First(&complaint, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrComplaintNotFound
	}
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

// ListComplaints returns complaints newest first. Query matches the sender's
// name, email and subject case-insensitively.
func (r *Repository) ListComplaints(ctx context.Context, filter ListFilter) ([]entities.Complaint, error) {
	query := r.db.WithContext(ctx).Model(&entities.Complaint{})
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + q + "%"
		query = query.Where(
			"LOWER(first_name || ' ' || last_name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?) OR LOWER(subject) LIKE LOWER(?)",
			pattern, pattern, pattern)
	}
	if filter.ContactMethod != "" {
		query = query.Where("contact_method = ?", filter.ContactMethod)
	}

	var list []entities.Complaint
	err := query.Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

// UpdateComplaint replaces the editable fields of an existing complaint and
// fills complaint with the stored result.
func (r *Repository) UpdateComplaint(ctx context.Context, complaint *entities.Complaint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current entities.Complaint
		if err := tx.First(&current, complaint.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrComplaintNotFound
			}
			return err
		}

		complaint.CreatedAt = current.CreatedAt
		complaint.UpdatedAt = time.Now()
		return tx.Model(complaint).Select(editableColumns).Updates(complaint).Error
	})
}

func (r *Repository) DeleteComplaint(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Complaint{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrComplaintNotFound
	}
	return nil
}
