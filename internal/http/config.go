package http

import (
	"time"

	"github.com/mrlokans/library/internal/auth"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Lending   LendingService
	Books     BookStore
	Borrowers BorrowerStore
	Database  Pinger

	// Contact-form complaints (optional)
	Complaints ComplaintStore

	// Audit trail. AuditReader is optional; without it /api/audit is not served.
	Audit       AuditLogger
	AuditReader AuditReader

	// Loan period used when a borrow request has no due date.
	DefaultLoanPeriod time.Duration

	// Borrower credentials
	PasswordPolicy auth.PasswordPolicy
	LoginLimiter   *auth.LoginLimiter

	// Task queue client (optional)
	TaskClient TaskQueue

	// Allowed CORS origins; empty disables CORS handling.
	AllowedOrigins []string

	// HSTS max-age in seconds; zero disables the header.
	HSTSMaxAge int

	// Application info
	Version string
}
