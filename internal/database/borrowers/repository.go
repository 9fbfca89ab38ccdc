// Package borrowers stores the two kinds of borrower: students and teachers.
// Ids are per table, so callers that need to identify a borrower across both
// tables use entities.BorrowerRef.
package borrowers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
)

var (
	ErrBorrowerNotFound = errors.New("borrower not found")
	ErrDuplicateContact = errors.New("email or phone already registered")
	ErrActiveLoan       = errors.New("borrower has an active loan")
	ErrUnknownTeacher   = errors.New("creating teacher does not exist")
)

var (
	studentColumns = []string{"first_name", "last_name", "date_of_birth", "gender", "email", "phone", "class", "roll_number", "username", "join_date", "image_ref", "updated_at"}
	teacherColumns = []string{"first_name", "last_name", "email", "phone", "subject", "join_date", "username", "date_of_birth", "image_ref", "updated_at"}
)

// ListFilter narrows the list operations. Query matches first name, last name
// and email.
type ListFilter struct {
	Query     string
	TeacherID *uint // students only: created by this teacher
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func writeError(err error) error {
	if database.IsUniqueViolation(err) {
		return ErrDuplicateContact
	}
	return err
}

func nameQuery(query *gorm.DB, q string) *gorm.DB {
	q = strings.TrimSpace(q)
	if q == "" {
		return query
	}
	pattern := "%" + q + "%"
	return query.Where("LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)",
		pattern, pattern, pattern)
}

// hasActiveLoan is checked inside the delete transaction so a borrow cannot
// slip in between the check and the delete.
func hasActiveLoan(tx *gorm.DB, ref entities.BorrowerRef) (bool, error) {
	var count int64
	err := tx.Model(&entities.BorrowRecord{}).
		Where("borrower_kind = ? AND borrower_id = ? AND status = ?", ref.Kind, ref.ID, entities.LoanStatusBorrowed).
		Count(&count).Error
	return count > 0, err
}

// --- Students ---

// CreateStudent stores s. PasswordHash must already be set.
func (r *Repository) CreateStudent(ctx context.Context, s *entities.Student) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.CreatedByTeacherID != nil {
			var count int64
			if err := tx.Model(&entities.Teacher{}).Where("id = ?", *s.CreatedByTeacherID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrUnknownTeacher
			}
		}
		s.ID = 0
		return writeError(tx.Create(s).Error)
	})
}

func (r *Repository) GetStudent(ctx context.Context, id uint) (*entities.Student, error) {
	var student entities.Student
	err := r.db.WithContext(ctx).First(&student, id).Error
	if database.IsNotFound(err) {
		return nil, ErrBorrowerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *Repository) FindStudentByEmail(ctx context.Context, email string) (*entities.Student, error) {
	var student entities.Student
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", strings.TrimSpace(email)).Take(&student).Error
	if database.IsNotFound(err) {
		return nil, ErrBorrowerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *Repository) ListStudents(ctx context.Context, filter ListFilter) ([]entities.Student, error) {
	query := nameQuery(r.db.WithContext(ctx).Model(&entities.Student{}), filter.Query)
	if filter.TeacherID != nil {
		query = query.Where("created_by_teacher_id = ?", *filter.TeacherID)
	}
	var students []entities.Student
	err := query.Order("last_name ASC, first_name ASC, id ASC").Find(&students).Error
	return students, err
}

// UpdateStudent saves profile fields. The password is changed only when
// PasswordHash is non-empty.
func (r *Repository) UpdateStudent(ctx context.Context, s *entities.Student) error {
	columns := studentColumns
	if s.PasswordHash != "" {
		columns = append(append([]string{}, studentColumns...), "password_hash")
	}
	s.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).Model(s).Select(columns).Updates(s)
	if result.Error != nil {
		return writeError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBorrowerNotFound
	}
	return nil
}

func (r *Repository) DeleteStudent(ctx context.Context, id uint) error {
	return r.deleteBorrower(ctx, entities.StudentRef(id), &entities.Student{})
}

// --- Teachers ---

// CreateTeacher stores t. PasswordHash must already be set.
func (r *Repository) CreateTeacher(ctx context.Context, t *entities.Teacher) error {
	t.ID = 0
	return writeError(r.db.WithContext(ctx).Create(t).Error)
}

func (r *Repository) GetTeacher(ctx context.Context, id uint) (*entities.Teacher, error) {
	var teacher entities.Teacher
	err := r.db.WithContext(ctx).First(&teacher, id).Error
	if database.IsNotFound(err) {
		return nil, ErrBorrowerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *Repository) FindTeacherByEmail(ctx context.Context, email string) (*entities.Teacher, error) {
	var teacher entities.Teacher
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", strings.TrimSpace(email)).Take(&teacher).Error
	if database.IsNotFound(err) {
		return nil, ErrBorrowerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *Repository) ListTeachers(ctx context.Context, filter ListFilter) ([]entities.Teacher, error) {
	query := nameQuery(r.db.WithContext(ctx).Model(&entities.Teacher{}), filter.Query)
	var teachers []entities.Teacher
	err := query.Order("last_name ASC, first_name ASC, id ASC").Find(&teachers).Error
	return teachers, err
}

func (r *Repository) UpdateTeacher(ctx context.Context, t *entities.Teacher) error {
	columns := teacherColumns
	if t.PasswordHash != "" {
		columns = append(append([]string{}, teacherColumns...), "password_hash")
	}
	t.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).Model(t).Select(columns).Updates(t)
	if result.Error != nil {
		return writeError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBorrowerNotFound
	}
	return nil
}

// DeleteTeacher removes the teacher. Students they created are kept with the
// reference cleared.
func (r *Repository) DeleteTeacher(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := NewRepository(tx).deleteBorrower(ctx, entities.TeacherRef(id), &entities.Teacher{}); err != nil {
			return err
		}
		return tx.Model(&entities.Student{}).
			Where("created_by_teacher_id = ?", id).
			Update("created_by_teacher_id", nil).Error
	})
}

func (r *Repository) deleteBorrower(ctx context.Context, ref entities.BorrowerRef, model any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		active, err := hasActiveLoan(tx, ref)
		if err != nil {
			return err
		}
		if active {
			return ErrActiveLoan
		}
		result := tx.Where("id = ?", ref.ID).Delete(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBorrowerNotFound
		}
		return nil
	})
}

// --- Either kind ---

// DisplayName resolves ref to "First Last".
func (r *Repository) DisplayName(ctx context.Context, ref entities.BorrowerRef) (string, error) {
	switch ref.Kind {
	case entities.BorrowerStudent:
		s, err := r.GetStudent(ctx, ref.ID)
		if err != nil {
			return "", err
		}
		return s.FullName(), nil
	case entities.BorrowerTeacher:
		t, err := r.GetTeacher(ctx, ref.ID)
		if err != nil {
			return "", err
		}
		return t.FullName(), nil
	}
	return "", fmt.Errorf("unknown borrower kind %q", ref.Kind)
}
