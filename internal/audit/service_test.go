package audit

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditRepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/lending"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(&entities.AuditEvent{}))

	return NewService(auditRepo.NewRepository(db)), db
}

func lastEvent(t *testing.T, db *gorm.DB) entities.AuditEvent {
	var event entities.AuditEvent
	require.NoError(t, db.Order("id DESC").First(&event).Error)
	return event
}

func metadata(t *testing.T, event entities.AuditEvent) map[string]any {
	md := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(event.Metadata), &md))
	return md
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		Actor:     "admin",
		EventType: entities.AuditEventCatalog,
		Action:    "test_action",
		Status:    entities.AuditStatusSuccess,
	}
	require.NoError(t, svc.Log(event))

	var saved entities.AuditEvent
	require.NoError(t, db.First(&saved, event.ID).Error)
	assert.Equal(t, "test_action", saved.Action)
}

func TestService_LogBorrow(t *testing.T) {
	svc, db := setupTestService(t)
	origin := Origin{Actor: "Student:3", RequestID: "req-1", IPAddress: "10.0.0.1"}
	borrower := entities.StudentRef(3)

	t.Run("success", func(t *testing.T) {
		record := &entities.BorrowRecord{ID: "01HREC", DueDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}
		svc.LogBorrow(origin, 7, borrower, record, nil)
		svc.Wait()

		event := lastEvent(t, db)
		assert.Equal(t, entities.AuditEventBorrow, event.EventType)
		assert.Equal(t, "Student:3", event.Actor)
		assert.Equal(t, "req-1", event.RequestID)
		assert.Equal(t, "7", event.EntityID)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		assert.Equal(t, "01HREC", metadata(t, event)["recordId"])
	})

	t.Run("failure records the error code", func(t *testing.T) {
		_, err := lending.ParseStatus("lost")
		require.Error(t, err)

		svc.LogBorrow(origin, 7, borrower, nil, err)
		svc.Wait()

		event := lastEvent(t, db)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
		assert.Equal(t, string(lending.CodeValidationFailed), metadata(t, event)["code"])
		assert.Contains(t, event.Description, "could not borrow")
	})
}

func TestService_LogReturnAndOverride(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogReturn(Origin{Actor: "Teacher:1"}, 4, entities.TeacherRef(1), &entities.BorrowRecord{ID: "R1"}, nil)
	svc.Wait()
	event := lastEvent(t, db)
	assert.Equal(t, entities.AuditEventReturn, event.EventType)
	assert.Equal(t, "R1", metadata(t, event)["recordId"])

	svc.LogOverride(Origin{Actor: "admin"}, "R1", entities.LoanStatusOverdue, nil)
	svc.Wait()
	event = lastEvent(t, db)
	assert.Equal(t, entities.AuditEventOverride, event.EventType)
	assert.Equal(t, "set_status_overdue", event.Action)
	assert.Equal(t, "borrow_record", event.EntityType)
	assert.Equal(t, "R1", event.EntityID)
}

func TestService_LogCatalogAndDirectory(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogCatalog(Origin{}, "create", 12, "Dune", nil)
	svc.Wait()
	event := lastEvent(t, db)
	assert.Equal(t, "anonymous", event.Actor)
	assert.Equal(t, "book_create", event.Action)
	assert.Equal(t, "12", event.EntityID)

	svc.LogDirectory(Origin{Actor: "Teacher:2"}, "delete", entities.StudentRef(5), "Alice Smith", errors.New("borrower has an active loan"))
	svc.Wait()
	event = lastEvent(t, db)
	assert.Equal(t, entities.AuditEventDirectory, event.EventType)
	assert.Equal(t, "Student", event.EntityType)
	assert.Equal(t, entities.AuditStatusFailed, event.Status)
	assert.Equal(t, "borrower has an active loan", event.ErrorMsg)
}

func TestService_LogComplaint(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogComplaint(Origin{}, "create", 3, "Broken shelf", nil)
	svc.Wait()
	event := lastEvent(t, db)
	assert.Equal(t, entities.AuditEventComplaint, event.EventType)
	assert.Equal(t, "complaint_create", event.Action)
	assert.Equal(t, "complaint", event.EntityType)
	assert.Equal(t, "3", event.EntityID)
	assert.Equal(t, "Complaint create: Broken shelf", event.Description)
	assert.Equal(t, entities.AuditStatusSuccess, event.Status)

	svc.LogComplaint(Origin{Actor: "Teacher:2"}, "delete", 8, "", errors.New("complaint not found"))
	svc.Wait()
	event = lastEvent(t, db)
	assert.Equal(t, "complaint_delete", event.Action)
	assert.Equal(t, entities.AuditStatusFailed, event.Status)
	assert.Equal(t, "complaint not found", event.ErrorMsg)
}

func TestService_LogAuth(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogAuth(Origin{IPAddress: "127.0.0.1"}, entities.BorrowerStudent, "alice@school.test", false)
	svc.Wait()

	event := lastEvent(t, db)
	assert.Equal(t, entities.AuditEventAuth, event.EventType)
	assert.Equal(t, entities.AuditStatusFailed, event.Status)
	assert.Equal(t, "127.0.0.1", event.IPAddress)
}

func TestService_LogReconcile(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogReconcile(nil, nil)
	svc.Wait()
	event := lastEvent(t, db)
	assert.Equal(t, ActorSystem, event.Actor)
	assert.Equal(t, entities.AuditStatusSuccess, event.Status)

	svc.LogReconcile([]string{"orphaned_book book=1"}, nil)
	svc.Wait()
	event = lastEvent(t, db)
	assert.Equal(t, entities.AuditStatusFailed, event.Status)
	assert.Equal(t, float64(1), metadata(t, event)["count"])
}

func TestService_GetEvents(t *testing.T) {
	svc, _ := setupTestService(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Log(&entities.AuditEvent{Actor: "admin", EventType: entities.AuditEventCatalog, Action: "a"}))
	}
	require.NoError(t, svc.Log(&entities.AuditEvent{Actor: "admin", EventType: entities.AuditEventBorrow, Action: "b"}))

	events, total, err := svc.GetEvents(auditRepo.EventFilter{EventType: entities.AuditEventCatalog}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, events, 2)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t)

	require.NoError(t, svc.Log(&entities.AuditEvent{Action: "old", CreatedAt: time.Now().Add(-100 * 24 * time.Hour)}))
	require.NoError(t, svc.Log(&entities.AuditEvent{Action: "new"}))

	deleted, err := svc.DeleteOldEvents(90 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var count int64
	db.Model(&entities.AuditEvent{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly10!", truncate("exactly10!", 10))

	long := strings.Repeat("x", 20)
	got := truncate(long, 10)
	assert.Len(t, got, 10)
	assert.True(t, strings.HasSuffix(got, "..."))

	// "é" is two bytes; a byte cut at 7 would split the fourth one.
	accented := strings.Repeat("é", 10)
	got = truncate(accented, 10)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "ééé...", got)
	assert.LessOrEqual(t, len(got), 10)
}

func TestLogCatalog_LongUnicodeTitle(t *testing.T) {
	service, db := setupTestService(t)

	title := strings.Repeat("Ж", 300)
	service.LogCatalog(Origin{Actor: "admin"}, "create", 1, title, nil)
	service.Wait()

	var event entities.AuditEvent
	require.NoError(t, db.First(&event).Error)
	assert.True(t, utf8.ValidString(event.Description))
	assert.LessOrEqual(t, len(event.Description), 500)
	assert.True(t, strings.HasSuffix(event.Description, "..."))
}
