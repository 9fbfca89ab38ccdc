package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/database/complaints"
	"github.com/mrlokans/library/internal/entities"
)

// ComplaintsController serves the contact form and the staff view of what
// was sent through it.
type ComplaintsController struct {
	store ComplaintStore
	audit AuditLogger
}

func NewComplaintsController(store ComplaintStore, auditLog AuditLogger) *ComplaintsController {
	return &ComplaintsController{
		store: store,
		audit: auditOrNop(auditLog),
	}
}

// ComplaintRequest is the body of complaint create and update requests.
type ComplaintRequest struct {
	FirstName     string `json:"fname"`
	LastName      string `json:"lname"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Subject       string `json:"subject"`
	Inquiry       string `json:"inquiry"`
	ContactMethod string `json:"contactMethod"`
	Consent       bool   `json:"consent"`
	ImageRef      string `json:"imageRef"`
}

func (r ComplaintRequest) toComplaint() (*entities.Complaint, string) {
	complaint := &entities.Complaint{
		FirstName:     strings.TrimSpace(r.FirstName),
		LastName:      strings.TrimSpace(r.LastName),
		Email:         strings.ToLower(strings.TrimSpace(r.Email)),
		Phone:         strings.TrimSpace(r.Phone),
		Subject:       strings.TrimSpace(r.Subject),
		Inquiry:       strings.TrimSpace(r.Inquiry),
		ContactMethod: entities.ContactMethod(strings.TrimSpace(r.ContactMethod)),
		Consent:       r.Consent,
		ImageRef:      strings.TrimSpace(r.ImageRef),
	}

	switch {
	case complaint.FirstName == "" || complaint.LastName == "":
		return nil, "fname and lname are required"
	case complaint.Email == "" || !strings.Contains(complaint.Email, "@"):
		return nil, "a valid email is required"
	case complaint.Phone == "":
		return nil, "phone is required"
	case complaint.Subject == "" || complaint.Inquiry == "":
		return nil, "subject and inquiry are required"
	case !complaint.ContactMethod.Valid():
		return nil, "contactMethod must be Email, Phone or Either"
	case !complaint.Consent:
		return nil, "consent is required"
	}
	return complaint, ""
}

// ListComplaints handles GET /api/complaints?query=&contactMethod=
func (controller *ComplaintsController) ListComplaints(c *gin.Context) {
	method := entities.ContactMethod(strings.TrimSpace(c.Query("contactMethod")))
	if method != "" && !method.Valid() {
		respondBadRequest(c, "invalid contactMethod")
		return
	}

	list, err := controller.store.ListComplaints(c.Request.Context(), complaints.ListFilter{
		Query:         c.Query("query"),
		ContactMethod: method,
	})
	if err != nil {
		respondInternalError(c, err, "list complaints")
		return
	}
	c.IndentedJSON(http.StatusOK, ListResponse{Data: list, Count: len(list)})
}

// GetComplaint handles GET /api/complaints/:id
func (controller *ComplaintsController) GetComplaint(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	complaint, err := controller.store.GetComplaint(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "get complaint")
		return
	}
	c.IndentedJSON(http.StatusOK, complaint)
}

// CreateComplaint handles POST /api/complaints
// The sender is recorded as the audit actor.
func (controller *ComplaintsController) CreateComplaint(c *gin.Context) {
	var req ComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	complaint, problem := req.toComplaint()
	if problem != "" {
		respondBadRequest(c, problem)
		return
	}

	err := controller.store.CreateComplaint(c.Request.Context(), complaint)
	controller.audit.LogComplaint(requestOrigin(c, complaint.Email), "create", complaint.ID, complaint.Subject, err)
	if err != nil {
		respondStoreError(c, err, "create complaint")
		return
	}
	respondCreated(c, complaint)
}

// UpdateComplaint handles PUT /api/complaints/:id
func (controller *ComplaintsController) UpdateComplaint(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	complaint, problem := req.toComplaint()
	if problem != "" {
		respondBadRequest(c, problem)
		return
	}
	complaint.ID = id

	err := controller.store.UpdateComplaint(c.Request.Context(), complaint)
	controller.audit.LogComplaint(requestOrigin(c, ""), "update", id, complaint.Subject, err)
	if err != nil {
		respondStoreError(c, err, "update complaint")
		return
	}
	c.IndentedJSON(http.StatusOK, complaint)
}

// DeleteComplaint handles DELETE /api/complaints/:id
func (controller *ComplaintsController) DeleteComplaint(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := controller.store.DeleteComplaint(c.Request.Context(), id)
	controller.audit.LogComplaint(requestOrigin(c, ""), "delete", id, "", err)
	if err != nil {
		respondStoreError(c, err, "delete complaint")
		return
	}
	respondSuccess(c, "complaint deleted")
}
