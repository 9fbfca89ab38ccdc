// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Lending Interfaces
//
//   - Store / Tx: Transactional persistence for the borrow and return
//     policies (internal/lending/store.go). The only implementation is
//     loans.Store.
//   - Clock: Source of "now" for due-date and overdue decisions
//     (internal/lending/clock.go)
//   - IDGenerator: Borrow record ids, ULIDs by default (internal/lending/clock.go)
//   - LendingService: What the HTTP layer needs from lending.Service
//     (internal/http/stores.go)
//
// ## Data Access Interfaces
//
//   - BookStore: Catalog CRUD (internal/http/stores.go)
//   - BorrowerStore: Students and teachers (internal/http/stores.go)
//   - ComplaintStore: Contact-form complaints (internal/http/stores.go)
//   - Pinger: Database health (internal/http/stores.go)
//
// ## Audit Interfaces
//
//   - AuditLogger / AuditReader: Writing and paging audit events
//     (internal/http/stores.go)
//   - AuditEventCleaner, ReconcileReporter, ReportArchiver: What the
//     maintenance tasks need (internal/tasks/)
//
// ## Background Work Interfaces
//
//   - TaskQueue: Enqueue and inspect tasks (internal/http/stores.go)
//   - Enqueuer: What the cron scheduler hands tasks to (internal/scheduler)
//   - ConsistencyChecker: Book/record drift detection (internal/tasks/reconcile_loans.go)
//
// # Adding a New Maintenance Task
//
//  1. Define the task and its processor in internal/tasks/
//
//     type RecountTask struct{}
//
//     func (t RecountTask) Config() backlite.QueueConfig {
//     return backlite.QueueConfig{Name: "recount", MaxAttempts: 1}
//     }
//
//  2. Register its queue in entrypoint.go
//
//  3. Add it to tasks.TaskTypes and to the RunTask switch in internal/http/tasks.go
//
//  4. Optionally give it a cron schedule in internal/scheduler
//
// # Adding a New Borrower Kind
//
// Borrowers are a tagged union (entities.BorrowerRef). A new kind needs a
// BorrowerKind constant, a table, a case in loans.Store's BorrowerExists and
// the display-name join, and routes in internal/http/borrowers.go.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
