package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/lending"
)

// LoansController exposes borrowing, returning, the status override and the
// borrow history.
type LoansController struct {
	service     LendingService
	audit       AuditLogger
	defaultLoan time.Duration
}

// NewLoansController creates a LoansController. defaultLoan is the loan period
// applied when a borrow request names no due date; zero makes dueDate required.
func NewLoansController(service LendingService, auditLog AuditLogger, defaultLoan time.Duration) *LoansController {
	return &LoansController{
		service:     service,
		audit:       auditOrNop(auditLog),
		defaultLoan: defaultLoan,
	}
}

// BorrowRequest is the body of POST /api/borrows. Exactly one of StudentID and
// TeacherID names the borrower.
type BorrowRequest struct {
	BookID    uint   `json:"bookId"`
	DueDate   string `json:"dueDate"`
	StudentID *uint  `json:"studentId"`
	TeacherID *uint  `json:"teacherId"`
}

// ReturnRequest is the body of POST /api/returns.
type ReturnRequest struct {
	BookID    uint  `json:"bookId"`
	StudentID *uint `json:"studentId"`
	TeacherID *uint `json:"teacherId"`
}

// StatusRequest is the body of POST /api/borrows/:id/status.
type StatusRequest struct {
	Status       string `json:"status"`
	ReturnedDate string `json:"returnedDate"`
}

// Borrow handles POST /api/borrows
func (lc *LoansController) Borrow(c *gin.Context) {
	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	borrower, err := lending.BorrowerFromIDs(req.StudentID, req.TeacherID)
	if err != nil {
		respondLendingError(c, err, "borrow")
		return
	}

	var due time.Time
	if req.DueDate == "" && lc.defaultLoan > 0 {
		due = lc.service.Now().Add(lc.defaultLoan)
	} else if due, err = lending.ParseDueDate(req.DueDate); err != nil {
		respondLendingError(c, err, "borrow")
		return
	}

	record, err := lc.service.Borrow(c.Request.Context(), lending.BorrowRequest{
		BookID:   req.BookID,
		Borrower: borrower,
		DueDate:  due,
	})
	lc.audit.LogBorrow(requestOrigin(c, borrower.String()), req.BookID, borrower, record, err)
	if err != nil {
		respondLendingError(c, err, "borrow")
		return
	}

	respondCreated(c, record)
}

// Return handles POST /api/returns
func (lc *LoansController) Return(c *gin.Context) {
	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	borrower, err := lending.BorrowerFromIDs(req.StudentID, req.TeacherID)
	if err != nil {
		respondLendingError(c, err, "return")
		return
	}

	record, err := lc.service.Return(c.Request.Context(), req.BookID, borrower)
	lc.audit.LogReturn(requestOrigin(c, borrower.String()), req.BookID, borrower, record, err)
	if err != nil {
		respondLendingError(c, err, "return")
		return
	}

	c.JSON(http.StatusOK, record)
}

// ListBorrows handles GET /api/borrows
// Query parameters: studentId or teacherId, bookId, status, query.
func (lc *LoansController) ListBorrows(c *gin.Context) {
	var q lending.Query

	studentID, ok := parseOptionalQueryID(c, "studentId")
	if !ok {
		return
	}
	teacherID, ok := parseOptionalQueryID(c, "teacherId")
	if !ok {
		return
	}
	if studentID != nil || teacherID != nil {
		borrower, err := lending.BorrowerFromIDs(studentID, teacherID)
		if err != nil {
			respondLendingError(c, err, "list borrows")
			return
		}
		q.Borrower = &borrower
	}

	if q.BookID, ok = parseOptionalQueryID(c, "bookId"); !ok {
		return
	}

	if raw := c.Query("status"); raw != "" {
		status, err := lending.ParseStatus(raw)
		if err != nil {
			respondLendingError(c, err, "list borrows")
			return
		}
		q.Status = &status
	}
	q.Text = c.Query("query")

	rows, err := lc.service.List(c.Request.Context(), q)
	if err != nil {
		respondLendingError(c, err, "list borrows")
		return
	}

	c.JSON(http.StatusOK, ListResponse{Data: rows, Count: len(rows)})
}

// GetBorrow handles GET /api/borrows/:id
func (lc *LoansController) GetBorrow(c *gin.Context) {
	row, err := lc.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondLendingError(c, err, "get borrow")
		return
	}
	c.JSON(http.StatusOK, row)
}

// SetStatus handles POST /api/borrows/:id/status
// Administrative override of a borrow record's stored status.
func (lc *LoansController) SetStatus(c *gin.Context) {
	recordID := c.Param("id")

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	status, err := lending.ParseStatus(req.Status)
	if err != nil {
		respondLendingError(c, err, "set status")
		return
	}

	var returnedDate *time.Time
	if req.ReturnedDate != "" {
		rd, err := lending.ParseDate("returnedDate", req.ReturnedDate)
		if err != nil {
			respondLendingError(c, err, "set status")
			return
		}
		returnedDate = &rd
	}

	record, err := lc.service.SetStatus(c.Request.Context(), recordID, status, returnedDate)
	lc.audit.LogOverride(requestOrigin(c, ""), recordID, status, err)
	if err != nil {
		respondLendingError(c, err, "set status")
		return
	}

	c.JSON(http.StatusOK, record)
}

// Overdue handles GET /api/reports/overdue
// Lists loans whose displayed status is overdue.
func (lc *LoansController) Overdue(c *gin.Context) {
	status := entities.LoanStatusOverdue
	rows, err := lc.service.List(c.Request.Context(), lending.Query{Status: &status})
	if err != nil {
		respondLendingError(c, err, "overdue report")
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: rows, Count: len(rows)})
}

// Summary handles GET /api/reports/summary
func (lc *LoansController) Summary(c *gin.Context) {
	summary, err := lc.service.Summary(c.Request.Context())
	if err != nil {
		respondLendingError(c, err, "summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}
