package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/auth"
	auditdb "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/lending"
)

func studentBody(first, email, phone string) map[string]any {
	return map[string]any{
		"fname":     first,
		"lname":     "Doe",
		"email":     email,
		"phone":     phone,
		"gender":    "female",
		"dob":       "2010-05-04",
		"studclass": "7B",
		"password":  "secret-pass",
	}
}

func TestBorrowers_StudentLifecycle(t *testing.T) {
	s := setupTestServer(t)
	teacher := s.teacher(t, "tess")

	body := studentBody("Jane", "Jane@School.test", "555-1")
	body["createdBy"] = teacher.ID
	w := s.do(t, http.MethodPost, "/api/students", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created entities.Student
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "jane@school.test", created.Email)
	assert.Equal(t, entities.GenderFemale, created.Gender)
	assert.Equal(t, "jane@school.test", created.Username)
	assert.NotContains(t, w.Body.String(), "password")

	stored, err := s.borrowers.GetStudent(context.Background(), created.ID)
	require.NoError(t, err)
	assert.NoError(t, auth.CheckPassword("secret-pass", stored.PasswordHash))

	w = s.do(t, http.MethodGet, "/api/teachers/"+uintStr(teacher.ID)+"/students", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data  []entities.Student `json:"data"`
		Count int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	path := "/api/students/" + uintStr(created.ID)
	update := studentBody("Janet", "jane@school.test", "555-1")
	delete(update, "password")
	w = s.do(t, http.MethodPut, path, update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated entities.Student
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Janet", updated.FirstName)

	stored, err = s.borrowers.GetStudent(context.Background(), created.ID)
	require.NoError(t, err)
	assert.NoError(t, auth.CheckPassword("secret-pass", stored.PasswordHash), "password kept when omitted")

	w = s.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, codeBorrowerNotFound, decodeError(t, w).Code)
}

func TestBorrowers_StudentValidation(t *testing.T) {
	s := setupTestServer(t)
	s.student(t, "alice")

	tests := []struct {
		name   string
		mutate func(map[string]any)
		status int
		code   string
	}{
		{"missing name", func(b map[string]any) { delete(b, "fname") }, http.StatusBadRequest, string(lending.CodeValidationFailed)},
		{"bad email", func(b map[string]any) { b["email"] = "nope" }, http.StatusBadRequest, string(lending.CodeValidationFailed)},
		{"bad gender", func(b map[string]any) { b["gender"] = "x" }, http.StatusBadRequest, string(lending.CodeValidationFailed)},
		{"bad dob", func(b map[string]any) { b["dob"] = "04/05/2010" }, http.StatusBadRequest, string(lending.CodeValidationFailed)},
		{"missing password", func(b map[string]any) { delete(b, "password") }, http.StatusBadRequest, string(lending.CodeValidationFailed)},
		{"short password", func(b map[string]any) { b["password"] = "short" }, http.StatusBadRequest, string(lending.CodeValidationFailed)},
		{"duplicate email", func(b map[string]any) { b["email"] = "alice@school.test" }, http.StatusConflict, codeDuplicateContact},
		{"unknown teacher", func(b map[string]any) { b["createdBy"] = 999 }, http.StatusBadRequest, codeUnknownTeacher},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := studentBody("Jane", "jane@school.test", "555-2")
			tt.mutate(body)
			w := s.do(t, http.MethodPost, "/api/students", body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestBorrowers_TeacherLifecycle(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodPost, "/api/teachers", map[string]any{
		"fname": "Ada", "lname": "Lovelace", "email": "ada@school.test", "phone": "555-9",
		"subject": "Maths", "password": "secret-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created entities.Teacher
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = s.do(t, http.MethodGet, "/api/teachers?query=love", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Lovelace")

	book := s.book(t, "Dune")
	s.borrowVia(t, map[string]any{"bookId": book.ID, "teacherId": created.ID})

	path := "/api/teachers/" + uintStr(created.ID)
	w = s.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(lending.CodeActiveLoanExists), decodeError(t, w).Code)

	w = s.do(t, http.MethodGet, "/api/teachers/999/students", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBorrowers_Login(t *testing.T) {
	s := setupTestServer(t)
	alice := s.student(t, "alice")
	bob := s.teacher(t, "bob")

	w := s.do(t, http.MethodPost, "/api/students/login", map[string]any{"email": "ALICE@school.test", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, LoginResponse{Kind: entities.BorrowerStudent, ID: alice.ID, Name: "alice Student"}, resp)

	w = s.do(t, http.MethodPost, "/api/teachers/login", map[string]any{"email": "bob@school.test", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, bob.ID, resp.ID)
	assert.Equal(t, entities.BorrowerTeacher, resp.Kind)

	w = s.do(t, http.MethodPost, "/api/teachers/login", map[string]any{"email": "alice@school.test", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "student credentials do not open the teacher login")
	assert.Equal(t, codeInvalidCredential, decodeError(t, w).Code)

	w = s.do(t, http.MethodPost, "/api/students/login", map[string]any{"email": "alice@school.test"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.audit.Wait()
	events, total, err := s.audit.GetEvents(auditdb.EventFilter{EventType: entities.AuditEventAuth}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	var failed int
	for _, e := range events {
		if e.Status == entities.AuditStatusFailed {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestBorrowers_LoginRateLimited(t *testing.T) {
	s := setupTestServer(t)
	s.student(t, "alice")
	wrong := map[string]any{"email": "alice@school.test", "password": "wrong password"}

	w := s.do(t, http.MethodPost, "/api/students/login", wrong)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(t, http.MethodPost, "/api/students/login", wrong)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/students/login", wrong)
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "third failure triggers the lockout")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	w = s.do(t, http.MethodPost, "/api/students/login", map[string]any{"email": "alice@school.test", "password": testPassword})
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "locked out even with the right password")
	assert.Equal(t, "RATE_LIMITED", decodeError(t, w).Code)
}
