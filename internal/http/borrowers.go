package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/database/borrowers"
	"github.com/mrlokans/library/internal/entities"
)

const birthDateLayout = "2006-01-02"

// BorrowersController manages students and teachers and checks their login
// credentials.
type BorrowersController struct {
	store   BorrowerStore
	policy  auth.PasswordPolicy
	limiter *auth.LoginLimiter
	audit   AuditLogger
}

// NewBorrowersController creates a BorrowersController. limiter may be nil, in
// which case logins are not throttled.
func NewBorrowersController(store BorrowerStore, policy auth.PasswordPolicy, limiter *auth.LoginLimiter, auditLog AuditLogger) *BorrowersController {
	return &BorrowersController{
		store:   store,
		policy:  policy,
		limiter: limiter,
		audit:   auditOrNop(auditLog),
	}
}

// personFields are shared by student and teacher requests.
type personFields struct {
	FirstName   string `json:"fname"`
	LastName    string `json:"lname"`
	DateOfBirth string `json:"dob"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	JoinDate    string `json:"joinDate"`
	ImageRef    string `json:"imageRef"`
}

// StudentRequest is the body of student create and update requests.
type StudentRequest struct {
	personFields
	Gender     string `json:"gender"`
	Class      string `json:"studclass"`
	RollNumber string `json:"rollNumber"`
	CreatedBy  *uint  `json:"createdBy"`
}

// TeacherRequest is the body of teacher create and update requests.
type TeacherRequest struct {
	personFields
	Subject string `json:"subject"`
}

// LoginRequest is the body of the login endpoints.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse identifies the authenticated borrower. Clients pass kind and
// id back explicitly on borrow and return calls.
type LoginResponse struct {
	Kind entities.BorrowerKind `json:"kind"`
	ID   uint                  `json:"id"`
	Name string                `json:"name"`
}

// normalize trims the fields and checks the ones every borrower needs. It
// returns a message describing the first problem found.
func (p *personFields) normalize(passwordRequired bool) (*time.Time, string) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.Username = strings.TrimSpace(p.Username)

	switch {
	case p.FirstName == "" || p.LastName == "":
		return nil, "fname and lname are required"
	case p.Email == "" || !strings.Contains(p.Email, "@"):
		return nil, "a valid email is required"
	case p.Phone == "":
		return nil, "phone is required"
	case passwordRequired && p.Password == "":
		return nil, "password is required"
	}
	if p.Username == "" {
		p.Username = p.Email
	}

	if strings.TrimSpace(p.DateOfBirth) == "" {
		return nil, ""
	}
	dob, err := time.Parse(birthDateLayout, strings.TrimSpace(p.DateOfBirth))
	if err != nil {
		return nil, "dob must be formatted as YYYY-MM-DD"
	}
	return &dob, ""
}

func parseGender(s string) (entities.Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", true
	case "male":
		return entities.GenderMale, true
	case "female":
		return entities.GenderFemale, true
	}
	return "", false
}

// hashIfSet hashes password under the controller's policy. An empty password
// yields an empty hash.
func (bc *BorrowersController) hashIfSet(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	return bc.policy.Hash(password)
}

func (bc *BorrowersController) studentFromRequest(c *gin.Context, create bool) (*entities.Student, bool) {
	var req StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return nil, false
	}
	dob, problem := req.normalize(create)
	if problem != "" {
		respondBadRequest(c, problem)
		return nil, false
	}
	gender, ok := parseGender(req.Gender)
	if !ok {
		respondBadRequest(c, "gender must be Male or Female")
		return nil, false
	}
	hash, err := bc.hashIfSet(req.Password)
	if err != nil {
		respondStoreError(c, err, "hash password")
		return nil, false
	}

	return &entities.Student{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		DateOfBirth:        dob,
		Gender:             gender,
		Email:              req.Email,
		Phone:              req.Phone,
		Class:              strings.TrimSpace(req.Class),
		RollNumber:         strings.TrimSpace(req.RollNumber),
		Username:           req.Username,
		PasswordHash:       hash,
		JoinDate:           strings.TrimSpace(req.JoinDate),
		ImageRef:           strings.TrimSpace(req.ImageRef),
		CreatedByTeacherID: req.CreatedBy,
	}, true
}

func (bc *BorrowersController) teacherFromRequest(c *gin.Context, create bool) (*entities.Teacher, bool) {
	var req TeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return nil, false
	}
	dob, problem := req.normalize(create)
	if problem != "" {
		respondBadRequest(c, problem)
		return nil, false
	}
	hash, err := bc.hashIfSet(req.Password)
	if err != nil {
		respondStoreError(c, err, "hash password")
		return nil, false
	}

	return &entities.Teacher{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DateOfBirth:  dob,
		Email:        req.Email,
		Phone:        req.Phone,
		Subject:      strings.TrimSpace(req.Subject),
		Username:     req.Username,
		PasswordHash: hash,
		JoinDate:     strings.TrimSpace(req.JoinDate),
		ImageRef:     strings.TrimSpace(req.ImageRef),
	}, true
}

// --- Students ---

// ListStudents handles GET /api/students?query=
func (bc *BorrowersController) ListStudents(c *gin.Context) {
	bc.listStudents(c, borrowers.ListFilter{Query: c.Query("query")})
}

// ListTeacherStudents handles GET /api/teachers/:id/students
func (bc *BorrowersController) ListTeacherStudents(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := bc.store.GetTeacher(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "get teacher")
		return
	}
	bc.listStudents(c, borrowers.ListFilter{Query: c.Query("query"), TeacherID: &id})
}

func (bc *BorrowersController) listStudents(c *gin.Context, filter borrowers.ListFilter) {
	students, err := bc.store.ListStudents(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, err, "list students")
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: students, Count: len(students)})
}

// GetStudent handles GET /api/students/:id
func (bc *BorrowersController) GetStudent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	student, err := bc.store.GetStudent(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "get student")
		return
	}
	c.JSON(http.StatusOK, student)
}

// CreateStudent handles POST /api/students
func (bc *BorrowersController) CreateStudent(c *gin.Context) {
	student, ok := bc.studentFromRequest(c, true)
	if !ok {
		return
	}
	err := bc.store.CreateStudent(c.Request.Context(), student)
	bc.audit.LogDirectory(requestOrigin(c, ""), "create", student.Ref(), student.FullName(), err)
	if err != nil {
		respondStoreError(c, err, "create student")
		return
	}
	respondCreated(c, student)
}

// UpdateStudent handles PUT /api/students/:id
// The password is changed only when one is supplied.
func (bc *BorrowersController) UpdateStudent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	student, ok := bc.studentFromRequest(c, false)
	if !ok {
		return
	}
	student.ID = id

	err := bc.store.UpdateStudent(c.Request.Context(), student)
	bc.audit.LogDirectory(requestOrigin(c, ""), "update", student.Ref(), student.FullName(), err)
	if err != nil {
		respondStoreError(c, err, "update student")
		return
	}

	updated, err := bc.store.GetStudent(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "get student")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteStudent handles DELETE /api/students/:id
func (bc *BorrowersController) DeleteStudent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	err := bc.store.DeleteStudent(c.Request.Context(), id)
	bc.audit.LogDirectory(requestOrigin(c, ""), "delete", entities.StudentRef(id), "", err)
	if err != nil {
		respondStoreError(c, err, "delete student")
		return
	}
	respondSuccess(c, "student deleted")
}

// --- Teachers ---

// ListTeachers handles GET /api/teachers?query=
func (bc *BorrowersController) ListTeachers(c *gin.Context) {
	teachers, err := bc.store.ListTeachers(c.Request.Context(), borrowers.ListFilter{Query: c.Query("query")})
	if err != nil {
		respondInternalError(c, err, "list teachers")
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: teachers, Count: len(teachers)})
}

// GetTeacher handles GET /api/teachers/:id
func (bc *BorrowersController) GetTeacher(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	teacher, err := bc.store.GetTeacher(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "get teacher")
		return
	}
	c.JSON(http.StatusOK, teacher)
}

// CreateTeacher handles POST /api/teachers
func (bc *BorrowersController) CreateTeacher(c *gin.Context) {
	teacher, ok := bc.teacherFromRequest(c, true)
	if !ok {
		return
	}
	err := bc.store.CreateTeacher(c.Request.Context(), teacher)
	bc.audit.LogDirectory(requestOrigin(c, ""), "create", teacher.Ref(), teacher.FullName(), err)
	if err != nil {
		respondStoreError(c, err, "create teacher")
		return
	}
	respondCreated(c, teacher)
}

// UpdateTeacher handles PUT /api/teachers/:id
func (bc *BorrowersController) UpdateTeacher(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	teacher, ok := bc.teacherFromRequest(c, false)
	if !ok {
		return
	}
	teacher.ID = id

	err := bc.store.UpdateTeacher(c.Request.Context(), teacher)
	bc.audit.LogDirectory(requestOrigin(c, ""), "update", teacher.Ref(), teacher.FullName(), err)
	if err != nil {
		respondStoreError(c, err, "update teacher")
		return
	}

	updated, err := bc.store.GetTeacher(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "get teacher")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteTeacher handles DELETE /api/teachers/:id
// Students the teacher created are kept.
func (bc *BorrowersController) DeleteTeacher(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	err := bc.store.DeleteTeacher(c.Request.Context(), id)
	bc.audit.LogDirectory(requestOrigin(c, ""), "delete", entities.TeacherRef(id), "", err)
	if err != nil {
		respondStoreError(c, err, "delete teacher")
		return
	}
	respondSuccess(c, "teacher deleted")
}

// --- Login ---

// credentials is what a login needs from either borrower table.
type credentials struct {
	ref  entities.BorrowerRef
	name string
	hash string
}

type credentialLookup func(ctx context.Context, email string) (*credentials, error)

func (bc *BorrowersController) studentCredentials(ctx context.Context, email string) (*credentials, error) {
	s, err := bc.store.FindStudentByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &credentials{ref: s.Ref(), name: s.FullName(), hash: s.PasswordHash}, nil
}

func (bc *BorrowersController) teacherCredentials(ctx context.Context, email string) (*credentials, error) {
	t, err := bc.store.FindTeacherByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &credentials{ref: t.Ref(), name: t.FullName(), hash: t.PasswordHash}, nil
}

// StudentLogin handles POST /api/students/login
func (bc *BorrowersController) StudentLogin(c *gin.Context) {
	bc.login(c, entities.BorrowerStudent, bc.studentCredentials)
}

// TeacherLogin handles POST /api/teachers/login
func (bc *BorrowersController) TeacherLogin(c *gin.Context) {
	bc.login(c, entities.BorrowerTeacher, bc.teacherCredentials)
}

// login verifies email and password. Unknown emails and wrong passwords get
// the same answer. The body is bound with ShouldBindBodyWith because the rate
// limiter middleware has already read it.
func (bc *BorrowersController) login(c *gin.Context, kind entities.BorrowerKind, lookup credentialLookup) {
	var req LoginRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		respondBadRequest(c, "email and password are required")
		return
	}

	origin := requestOrigin(c, req.Email)
	creds, err := lookup(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, borrowers.ErrBorrowerNotFound) {
		respondInternalError(c, err, "login")
		return
	}
	if err == nil {
		err = auth.CheckPassword(req.Password, creds.hash)
	}
	if err != nil {
		bc.audit.LogAuth(origin, kind, req.Email, false)
		if !errors.Is(err, auth.ErrInvalidPassword) && !errors.Is(err, borrowers.ErrBorrowerNotFound) {
			respondInternalError(c, err, "login")
			return
		}
		if bc.limiter != nil {
			if lockout := bc.limiter.Fail(c.ClientIP(), req.Email); lockout > 0 {
				respondRetryAfter(c, lockout.Seconds(), "too many login attempts")
				return
			}
		}
		respondError(c, http.StatusUnauthorized, codeInvalidCredential, "invalid email or password")
		return
	}

	if bc.limiter != nil {
		bc.limiter.Succeed(c.ClientIP(), req.Email)
	}
	bc.audit.LogAuth(origin, kind, req.Email, true)
	c.JSON(http.StatusOK, LoginResponse{Kind: creds.ref.Kind, ID: creds.ref.ID, Name: creds.name})
}
