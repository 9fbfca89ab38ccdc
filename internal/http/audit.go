package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	auditdb "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
)

const (
	defaultAuditPageSize = 25
	maxAuditPageSize     = 100
)

type AuditController struct {
	reader AuditReader
}

func NewAuditController(reader AuditReader) *AuditController {
	return &AuditController{
		reader: reader,
	}
}

// EventTypeOption describes one audit event type for filter pickers.
type EventTypeOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// GetAuditEvents returns paginated audit events as JSON
// GET /api/audit?type=&actor=&entityId=&page=&limit=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultAuditPageSize)))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxAuditPageSize {
		limit = defaultAuditPageSize
	}
	offset := (page - 1) * limit

	filter := auditdb.EventFilter{
		Actor:     c.Query("actor"),
		EventType: entities.AuditEventType(c.Query("type")),
		EntityID:  c.Query("entityId"),
	}

	events, total, err := ac.reader.GetEvents(filter, limit, offset)
	if err != nil {
		respondInternalError(c, err, "load audit events")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       events,
		Total:      total,
		Page:       page,
		Limit:      limit,
		HasMore:    int64(offset+len(events)) < total,
		TotalPages: totalPages,
	})
}

// EventTypes handles GET /api/audit/types
func (ac *AuditController) EventTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"eventTypes": getEventTypes()})
}

func getEventTypes() []EventTypeOption {
	return []EventTypeOption{
		{Value: string(entities.AuditEventBorrow), Label: "Borrow"},
		{Value: string(entities.AuditEventReturn), Label: "Return"},
		{Value: string(entities.AuditEventOverride), Label: "Status Override"},
		{Value: string(entities.AuditEventCatalog), Label: "Catalog"},
		{Value: string(entities.AuditEventDirectory), Label: "Directory"},
		{Value: string(entities.AuditEventAuth), Label: "Authentication"},
		{Value: string(entities.AuditEventReconcile), Label: "Reconciliation"},
		{Value: string(entities.AuditEventComplaint), Label: "Complaint"},
	}
}
