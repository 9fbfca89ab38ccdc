package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditdb "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/lending"
)

type listBody struct {
	Data  []lending.Row `json:"data"`
	Count int           `json:"count"`
}

func (s *testServer) borrowVia(t *testing.T, body map[string]any) entities.BorrowRecord {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/borrows", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rec entities.BorrowRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	return rec
}

func TestLoans_Borrow(t *testing.T) {
	s := setupTestServer(t)
	book := s.book(t, "Dune")
	alice := s.student(t, "alice")

	rec := s.borrowVia(t, map[string]any{
		"bookId":    book.ID,
		"studentId": alice.ID,
		"dueDate":   "2024-03-20",
	})

	assert.Equal(t, entities.LoanStatusBorrowed, rec.Status)
	assert.Equal(t, entities.BorrowerStudent, rec.BorrowerKind)
	assert.Equal(t, alice.ID, rec.BorrowerID)
	assert.True(t, rec.DueDate.Equal(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)))

	stored, err := s.books.GetBookByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookStatusBorrowed, stored.Status)

	s.audit.Wait()
	events, total, err := s.audit.GetEvents(auditdb.EventFilter{EventType: entities.AuditEventBorrow}, 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "Student:"+uintStr(alice.ID), events[0].Actor)
	assert.Equal(t, entities.AuditStatusSuccess, events[0].Status)
	assert.NotEmpty(t, events[0].RequestID)
}

func TestLoans_BorrowDefaultDueDate(t *testing.T) {
	s := setupTestServer(t)
	book := s.book(t, "Dune")
	bob := s.teacher(t, "bob")

	rec := s.borrowVia(t, map[string]any{"bookId": book.ID, "teacherId": bob.ID})

	assert.Equal(t, entities.BorrowerTeacher, rec.BorrowerKind)
	assert.True(t, rec.DueDate.Equal(s.clock.Now().Add(14*24*time.Hour)))
}

func TestLoans_BorrowRejections(t *testing.T) {
	s := setupTestServer(t)
	dune := s.book(t, "Dune")
	emma := s.book(t, "Emma")
	alice := s.student(t, "alice")
	carol := s.student(t, "carol")
	s.borrowVia(t, map[string]any{"bookId": dune.ID, "studentId": alice.ID})

	tests := []struct {
		name   string
		body   any
		status int
		code   lending.Code
	}{
		{
			name:   "both borrower ids",
			body:   map[string]any{"bookId": emma.ID, "studentId": carol.ID, "teacherId": 1},
			status: http.StatusBadRequest,
			code:   lending.CodeValidationFailed,
		},
		{
			name:   "no borrower",
			body:   map[string]any{"bookId": emma.ID},
			status: http.StatusBadRequest,
			code:   lending.CodeValidationFailed,
		},
		{
			name:   "malformed due date",
			body:   map[string]any{"bookId": emma.ID, "studentId": carol.ID, "dueDate": "next week"},
			status: http.StatusBadRequest,
			code:   lending.CodeValidationFailed,
		},
		{
			name:   "due date in the past",
			body:   map[string]any{"bookId": emma.ID, "studentId": carol.ID, "dueDate": "2024-02-01"},
			status: http.StatusBadRequest,
			code:   lending.CodeValidationFailed,
		},
		{
			name:   "missing book",
			body:   map[string]any{"bookId": 999, "studentId": carol.ID},
			status: http.StatusNotFound,
			code:   lending.CodeBookNotFound,
		},
		{
			name:   "book already borrowed",
			body:   map[string]any{"bookId": dune.ID, "studentId": carol.ID},
			status: http.StatusConflict,
			code:   lending.CodeBookAlreadyBorrowed,
		},
		{
			name:   "unknown borrower",
			body:   map[string]any{"bookId": emma.ID, "teacherId": 999},
			status: http.StatusBadRequest,
			code:   lending.CodeInvalidBorrower,
		},
		{
			name:   "borrower already has a loan",
			body:   map[string]any{"bookId": emma.ID, "studentId": alice.ID},
			status: http.StatusConflict,
			code:   lending.CodeActiveLoanExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/borrows", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, string(tt.code), decodeError(t, w).Code)
		})
	}

	w := s.do(t, http.MethodPost, "/api/borrows", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoans_Return(t *testing.T) {
	s := setupTestServer(t)
	book := s.book(t, "Dune")
	alice := s.student(t, "alice")
	bob := s.teacher(t, "bob")
	s.borrowVia(t, map[string]any{"bookId": book.ID, "studentId": alice.ID})

	w := s.do(t, http.MethodPost, "/api/returns", map[string]any{"bookId": book.ID, "teacherId": bob.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(lending.CodeNoActiveLoan), decodeError(t, w).Code)

	w = s.do(t, http.MethodPost, "/api/returns", map[string]any{"bookId": book.ID, "studentId": alice.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rec entities.BorrowRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, entities.LoanStatusReturned, rec.Status)
	require.NotNil(t, rec.ReturnedDate)

	stored, err := s.books.GetBookByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookStatusAvailable, stored.Status)
	assert.Nil(t, stored.BorrowedByID)

	w = s.do(t, http.MethodPost, "/api/returns", map[string]any{"bookId": 999, "studentId": alice.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoans_ListAndGet(t *testing.T) {
	s := setupTestServer(t)
	dune := s.book(t, "Dune")
	emma := s.book(t, "Emma")
	alice := s.student(t, "alice")
	bob := s.teacher(t, "bob")

	first := s.borrowVia(t, map[string]any{"bookId": dune.ID, "studentId": alice.ID, "dueDate": "2024-03-05"})
	s.clock.Advance(time.Hour)
	second := s.borrowVia(t, map[string]any{"bookId": emma.ID, "teacherId": bob.ID, "dueDate": "2024-04-01"})
	s.clock.Advance(10 * 24 * time.Hour)

	list := func(query string) listBody {
		t.Helper()
		w := s.do(t, http.MethodGet, "/api/borrows"+query, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var body listBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body
	}

	all := list("")
	require.Equal(t, 2, all.Count)
	assert.Equal(t, second.ID, all.Data[0].ID)
	assert.Equal(t, first.ID, all.Data[1].ID)
	assert.Equal(t, entities.LoanStatusOverdue, all.Data[1].Status)
	assert.Equal(t, entities.LoanStatusBorrowed, all.Data[1].StoredStatus)
	assert.Equal(t, "Dune", all.Data[1].BookTitle)
	assert.Equal(t, "alice Student", all.Data[1].BorrowerName)

	assert.Equal(t, 1, list("?status=overdue").Count)
	assert.Equal(t, 1, list("?teacherId="+uintStr(bob.ID)).Count)
	assert.Equal(t, 1, list("?bookId="+uintStr(dune.ID)).Count)
	assert.Equal(t, 1, list("?query=EMMA").Count)
	assert.Equal(t, 0, list("?query=nothing").Count)

	w := s.do(t, http.MethodGet, "/api/borrows?studentId=1&teacherId=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodGet, "/api/borrows?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodGet, "/api/borrows?bookId=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/borrows/"+first.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var row lending.Row
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &row))
	assert.Equal(t, "2024-03-05", row.DueDate)

	w = s.do(t, http.MethodGet, "/api/borrows/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(lending.CodeRecordNotFound), decodeError(t, w).Code)

	w = s.do(t, http.MethodGet, "/api/reports/overdue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var overdue listBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overdue))
	require.Len(t, overdue.Data, 1)
	assert.Equal(t, first.ID, overdue.Data[0].ID)
}

func TestLoans_SetStatus(t *testing.T) {
	s := setupTestServer(t)
	book := s.book(t, "Dune")
	alice := s.student(t, "alice")
	rec := s.borrowVia(t, map[string]any{"bookId": book.ID, "studentId": alice.ID})
	path := "/api/borrows/" + rec.ID + "/status"

	w := s.do(t, http.MethodPost, path, map[string]any{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, path, map[string]any{"status": "returned", "returnedDate": "2024-01-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "returned before borrowed")

	w = s.doWithHeaders(t, http.MethodPost, path,
		map[string]any{"status": "returned", "returnedDate": "2024-03-02"},
		map[string]string{ActorHeader: "librarian"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated entities.BorrowRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, entities.LoanStatusReturned, updated.Status)
	require.NotNil(t, updated.ReturnedDate)
	assert.Equal(t, "2024-03-02", updated.ReturnedDate.Format("2006-01-02"))

	stored, err := s.books.GetBookByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookStatusAvailable, stored.Status)

	w = s.do(t, http.MethodPost, path, map[string]any{"status": "borrowed", "returnedDate": "2024-03-02"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, path, map[string]any{"status": "borrowed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/borrows/missing/status", map[string]any{"status": "returned"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.audit.Wait()
	events, _, err := s.audit.GetEvents(auditdb.EventFilter{Actor: "librarian"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "set_status_returned", events[0].Action)
	assert.Equal(t, rec.ID, events[0].EntityID)
}

func TestLoans_Summary(t *testing.T) {
	s := setupTestServer(t)
	dune := s.book(t, "Dune")
	s.book(t, "Emma")
	alice := s.student(t, "alice")
	s.borrowVia(t, map[string]any{"bookId": dune.ID, "studentId": alice.ID})

	w := s.do(t, http.MethodGet, "/api/reports/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary lending.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.EqualValues(t, 2, summary.TotalBooks)
	assert.EqualValues(t, 1, summary.BorrowedBooks)
	assert.EqualValues(t, 1, summary.AvailableBooks)
	assert.Equal(t, 1, summary.ActiveLoans)
	assert.EqualValues(t, 1, summary.Students)
}

func TestLoans_StoreUnavailable(t *testing.T) {
	s := setupTestServer(t)
	require.NoError(t, s.db.Close())

	w := s.do(t, http.MethodGet, "/api/borrows", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, string(lending.CodeStoreUnavailable), decodeError(t, w).Code)

	w = s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
