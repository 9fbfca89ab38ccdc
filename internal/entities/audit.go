package entities

import "time"

type AuditEventType string

const (
	AuditEventBorrow    AuditEventType = "borrow"
	AuditEventReturn    AuditEventType = "return"
	AuditEventOverride  AuditEventType = "status_override"
	AuditEventCatalog   AuditEventType = "catalog"
	AuditEventDirectory AuditEventType = "directory"
	AuditEventAuth      AuditEventType = "auth"
	AuditEventReconcile AuditEventType = "reconcile"
	AuditEventComplaint AuditEventType = "complaint"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Actor       string         `gorm:"index;size:50" json:"actor"` // "Student:3", "admin", "system"
	EventType   AuditEventType `gorm:"index;size:50" json:"eventType"`
	Action      string         `gorm:"size:100" json:"action"`
	Description string         `gorm:"size:500" json:"description"`
	EntityType  string         `gorm:"size:50" json:"entityType"`
	EntityID    string         `gorm:"index;size:50" json:"entityId,omitempty"`
	Metadata    string         `gorm:"type:text" json:"metadata,omitempty"`
	RequestID   string         `gorm:"size:36" json:"requestId,omitempty"`
	IPAddress   string         `gorm:"size:45" json:"ipAddress,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"errorMsg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
