package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/borrowers"
	"github.com/mrlokans/library/internal/database/complaints"
	"github.com/mrlokans/library/internal/database/loans"
	"github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/lending"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/tasks"
)

// =============================================================================
// Lending Core
// =============================================================================

var _ lending.Store = (*loans.Store)(nil)
var _ lending.IDGenerator = (*lending.ULIDGenerator)(nil)
var _ http.LendingService = (*lending.Service)(nil)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.BookStore = (*books.Repository)(nil)
var _ http.BorrowerStore = (*borrowers.Repository)(nil)
var _ http.ComplaintStore = (*complaints.Repository)(nil)
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ http.AuditLogger = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ tasks.ReconcileReporter = (*audit.Service)(nil)
var _ tasks.ReportArchiver = (*audit.Archive)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
var _ tasks.ConsistencyChecker = (*loans.Store)(nil)
