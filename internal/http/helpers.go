package http

import (
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/borrowers"
	"github.com/mrlokans/library/internal/database/complaints"
	"github.com/mrlokans/library/internal/lending"
)

// retryAfterSeconds is sent with 503 responses for retryable store failures.
const retryAfterSeconds = 1

// ActorHeader lets an administrative client name itself in the audit log.
const ActorHeader = "X-Actor"

const defaultActor = "admin"

// Error codes for failures outside the lending service.
const (
	codeBorrowerNotFound  = "BORROWER_NOT_FOUND"
	codeComplaintNotFound = "COMPLAINT_NOT_FOUND"
	codeDuplicateContact  = "DUPLICATE_CONTACT"
	codeUnknownTeacher    = "UNKNOWN_TEACHER"
	codeInvalidCredential = "INVALID_CREDENTIALS"
	codeInternal          = "INTERNAL_ERROR"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ListResponse wraps an unpaginated collection.
type ListResponse struct {
	Data  any `json:"data"`
	Count int `json:"count"`
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	HasMore    bool  `json:"hasMore"`
	TotalPages int   `json:"totalPages"`
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: string(lending.CodeValidationFailed)})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: codeInternal})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

// respondLendingError maps a lending error kind onto its HTTP status. Errors
// that did not come from the lending service are reported as internal.
func respondLendingError(c *gin.Context, err error, context string) {
	var lerr *lending.Error
	if !errors.As(err, &lerr) {
		respondInternalError(c, err, context)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, lending.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, lending.ErrInvalidReference), errors.Is(err, lending.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, lending.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, lending.ErrInfrastructure):
		log.Printf("Store failure (%s): %v", context, err)
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "storage temporarily unavailable", Code: string(lerr.Code)})
		return
	}
	c.JSON(status, ErrorResponse{Error: lerr.Message, Code: string(lerr.Code)})
}

// respondStoreError maps repository sentinels from the catalog, the borrower
// directory and the complaint inbox onto HTTP responses.
func respondStoreError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, books.ErrBookNotFound):
		respondError(c, http.StatusNotFound, string(lending.CodeBookNotFound), "book not found")
	case errors.Is(err, books.ErrBookBorrowed):
		respondError(c, http.StatusConflict, string(lending.CodeBookAlreadyBorrowed), "book is currently borrowed")
	case errors.Is(err, borrowers.ErrBorrowerNotFound):
		respondError(c, http.StatusNotFound, codeBorrowerNotFound, "borrower not found")
	case errors.Is(err, borrowers.ErrDuplicateContact):
		respondError(c, http.StatusConflict, codeDuplicateContact, "email or phone already in use")
	case errors.Is(err, borrowers.ErrActiveLoan):
		respondError(c, http.StatusConflict, string(lending.CodeActiveLoanExists), "borrower has an active loan")
	case errors.Is(err, borrowers.ErrUnknownTeacher):
		respondError(c, http.StatusBadRequest, codeUnknownTeacher, "createdBy does not name a teacher")
	case errors.Is(err, complaints.ErrComplaintNotFound):
		respondError(c, http.StatusNotFound, codeComplaintNotFound, "complaint not found")
	case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrPasswordTooLong):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}

// --- Success Response Helpers ---

func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// respondRetryAfter sends a 429 with a Retry-After header in whole seconds.
func respondRetryAfter(c *gin.Context, seconds float64, message string) {
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(seconds))))
	respondError(c, http.StatusTooManyRequests, "RATE_LIMITED", message)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseOptionalQueryID reads an optional unsigned id from the query string.
// A missing parameter yields nil; a malformed one responds with 400.
func parseOptionalQueryID(c *gin.Context, paramName string) (*uint, bool) {
	idStr := strings.TrimSpace(c.Query(paramName))
	if idStr == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return nil, false
	}
	v := uint(id)
	return &v, true
}

// parseOptionalBool reads true/false from the query string.
func parseOptionalBool(c *gin.Context, paramName string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(paramName))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return nil, false
	}
	return &v, true
}

// --- Audit origin ---

// requestOrigin describes the caller for audit events. actor overrides the
// X-Actor header when the caller's identity is already known.
func requestOrigin(c *gin.Context, actor string) audit.Origin {
	if actor == "" {
		actor = strings.TrimSpace(c.GetHeader(ActorHeader))
	}
	if actor == "" {
		actor = defaultActor
	}
	return audit.Origin{
		Actor:     actor,
		RequestID: GetRequestID(c),
		IPAddress: c.ClientIP(),
	}
}
