package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/lending"
)

// ActorSystem marks events raised by background tasks.
const ActorSystem = "system"

// Origin says who triggered an event and through which request.
type Origin struct {
	Actor     string
	RequestID string
	IPAddress string
}

// SystemOrigin is the origin of scheduled and CLI-triggered work.
func SystemOrigin() Origin {
	return Origin{Actor: ActorSystem}
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
	wg   sync.WaitGroup
}

func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every pending LogAsync write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func newEvent(origin Origin, eventType entities.AuditEventType, action string) *entities.AuditEvent {
	actor := origin.Actor
	if actor == "" {
		actor = "anonymous"
	}
	return &entities.AuditEvent{
		Actor:     truncate(actor, 50),
		EventType: eventType,
		Action:    action,
		RequestID: origin.RequestID,
		IPAddress: origin.IPAddress,
		Status:    entities.AuditStatusSuccess,
	}
}

// fail marks event as failed. Lending errors also record their code.
func fail(event *entities.AuditEvent, err error, metadata map[string]any) {
	if err == nil {
		return
	}
	event.Status = entities.AuditStatusFailed
	event.ErrorMsg = truncate(err.Error(), 500)
	if code := lending.ErrorCode(err); code != "" {
		metadata["code"] = code
	}
}

func setMetadata(event *entities.AuditEvent, metadata map[string]any) {
	if len(metadata) == 0 {
		return
	}
	if mdBytes, err := json.Marshal(metadata); err == nil {
		event.Metadata = string(mdBytes)
	}
}

// LogBorrow records a borrow attempt. record is nil when the attempt failed.
func (s *Service) LogBorrow(origin Origin, bookID uint, borrower entities.BorrowerRef, record *entities.BorrowRecord, err error) {
	event := newEvent(origin, entities.AuditEventBorrow, "borrow")
	event.EntityType = "book"
	event.EntityID = strconv.FormatUint(uint64(bookID), 10)
	event.Description = fmt.Sprintf("%s borrowed book %d", borrower, bookID)

	metadata := map[string]any{"borrower": borrower.String()}
	if record != nil {
		metadata["recordId"] = record.ID
		metadata["dueDate"] = record.DueDate.Format(time.RFC3339)
	}
	fail(event, err, metadata)
	if err != nil {
		event.Description = fmt.Sprintf("%s could not borrow book %d", borrower, bookID)
	}
	setMetadata(event, metadata)

	s.LogAsync(event)
}

// LogReturn records a return attempt.
func (s *Service) LogReturn(origin Origin, bookID uint, borrower entities.BorrowerRef, record *entities.BorrowRecord, err error) {
	event := newEvent(origin, entities.AuditEventReturn, "return")
	event.EntityType = "book"
	event.EntityID = strconv.FormatUint(uint64(bookID), 10)
	event.Description = fmt.Sprintf("%s returned book %d", borrower, bookID)

	metadata := map[string]any{"borrower": borrower.String()}
	if record != nil {
		metadata["recordId"] = record.ID
	}
	fail(event, err, metadata)
	if err != nil {
		event.Description = fmt.Sprintf("%s could not return book %d", borrower, bookID)
	}
	setMetadata(event, metadata)

	s.LogAsync(event)
}

// LogOverride records an administrative status change on a borrow record.
func (s *Service) LogOverride(origin Origin, recordID string, status entities.LoanStatus, err error) {
	event := newEvent(origin, entities.AuditEventOverride, "set_status_"+string(status))
	event.EntityType = "borrow_record"
	event.EntityID = recordID
	event.Description = fmt.Sprintf("Set record %s to %s", recordID, status)

	metadata := map[string]any{"status": status}
	fail(event, err, metadata)
	setMetadata(event, metadata)

	s.LogAsync(event)
}

// LogCatalog records a book create, update, delete or import.
func (s *Service) LogCatalog(origin Origin, action string, bookID uint, title string, err error) {
	event := newEvent(origin, entities.AuditEventCatalog, "book_"+action)
	event.EntityType = "book"
	if bookID != 0 {
		event.EntityID = strconv.FormatUint(uint64(bookID), 10)
	}
	event.Description = truncate(fmt.Sprintf("Book %s: %s", action, title), 500)

	metadata := map[string]any{}
	fail(event, err, metadata)
	setMetadata(event, metadata)

	s.LogAsync(event)
}

// LogDirectory records a change to a student or teacher.
func (s *Service) LogDirectory(origin Origin, action string, ref entities.BorrowerRef, name string, err error) {
	event := newEvent(origin, entities.AuditEventDirectory, action)
	event.EntityType = string(ref.Kind)
	if ref.ID != 0 {
		event.EntityID = strconv.FormatUint(uint64(ref.ID), 10)
	}
	event.Description = truncate(fmt.Sprintf("%s %s: %s", ref.Kind, action, name), 500)

	metadata := map[string]any{}
	fail(event, err, metadata)
	setMetadata(event, metadata)

	s.LogAsync(event)
}

// LogComplaint records a change to a contact-form complaint.
func (s *Service) LogComplaint(origin Origin, action string, complaintID uint, subject string, err error) {
	event := newEvent(origin, entities.AuditEventComplaint, "complaint_"+action)
	event.EntityType = "complaint"
	if complaintID != 0 {
		event.EntityID = strconv.FormatUint(uint64(complaintID), 10)
	}
	event.Description = truncate(fmt.Sprintf("Complaint %s: %s", action, subject), 500)

	metadata := map[string]any{}
	fail(event, err, metadata)
	setMetadata(event, metadata)

	s.LogAsync(event)
}

// LogAuth records a login attempt.
func (s *Service) LogAuth(origin Origin, kind entities.BorrowerKind, email string, success bool) {
	event := newEvent(origin, entities.AuditEventAuth, "login")
	event.EntityType = string(kind)
	event.Description = truncate(fmt.Sprintf("%s login for %s", kind, email), 500)
	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogReconcile records the result of a consistency check. Each finding is kept
// in the metadata.
func (s *Service) LogReconcile(findings []string, err error) {
	event := newEvent(SystemOrigin(), entities.AuditEventReconcile, "reconcile_loans")
	event.Description = fmt.Sprintf("Found %d inconsistencies", len(findings))

	metadata := map[string]any{"count": len(findings)}
	if len(findings) > 0 {
		metadata["findings"] = findings
		event.Status = entities.AuditStatusFailed
	}
	fail(event, err, metadata)
	setMetadata(event, metadata)

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(filter audit.EventFilter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens s to at most maxLen bytes, cutting on a rune boundary.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
