package lending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/entities"
)

func uintPtr(v uint) *uint { return &v }

func TestBorrowRequest_Validate(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	valid := BorrowRequest{BookID: 1, Borrower: entities.StudentRef(2), DueDate: now.Add(24 * time.Hour)}

	assert.NoError(t, valid.validate(now))

	tests := []struct {
		name   string
		mutate func(r *BorrowRequest)
	}{
		{"missing book", func(r *BorrowRequest) { r.BookID = 0 }},
		{"unknown kind", func(r *BorrowRequest) { r.Borrower.Kind = "Parent" }},
		{"missing borrower id", func(r *BorrowRequest) { r.Borrower.ID = 0 }},
		{"missing due date", func(r *BorrowRequest) { r.DueDate = time.Time{} }},
		{"due date equals now", func(r *BorrowRequest) { r.DueDate = now }},
		{"due date in the past", func(r *BorrowRequest) { r.DueDate = now.Add(-time.Minute) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.validate(now)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, CodeValidationFailed, ErrorCode(err))
		})
	}
}

func TestBorrowerFromIDs(t *testing.T) {
	ref, err := BorrowerFromIDs(uintPtr(4), nil)
	require.NoError(t, err)
	assert.Equal(t, entities.StudentRef(4), ref)

	ref, err = BorrowerFromIDs(nil, uintPtr(7))
	require.NoError(t, err)
	assert.Equal(t, entities.TeacherRef(7), ref)

	_, err = BorrowerFromIDs(uintPtr(1), uintPtr(2))
	assert.EqualError(t, err, "provide either teacherId or studentId, but not both or neither")

	_, err = BorrowerFromIDs(nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = BorrowerFromIDs(uintPtr(0), nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseDueDate(t *testing.T) {
	got, err := ParseDueDate("2024-04-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDueDate("2024-04-01T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 1, 8, 30, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "   ", "01/04/2024", "tomorrow"} {
		_, err := ParseDueDate(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus(" Overdue ")
	require.NoError(t, err)
	assert.Equal(t, entities.LoanStatusOverdue, got)

	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrValidation)
}
