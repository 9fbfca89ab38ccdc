package entities

import (
	"fmt"
	"strings"
	"time"
)

// BorrowerKind discriminates the two borrower tables. Student and teacher ids
// live in separate id spaces, so an id is meaningless without its kind.
type BorrowerKind string

const (
	BorrowerStudent BorrowerKind = "Student"
	BorrowerTeacher BorrowerKind = "Teacher"
)

// BorrowerKinds lists every valid kind.
var BorrowerKinds = []BorrowerKind{BorrowerStudent, BorrowerTeacher}

func (k BorrowerKind) Valid() bool {
	switch k {
	case BorrowerStudent, BorrowerTeacher:
		return true
	}
	return false
}

// ParseBorrowerKind accepts the canonical names case-insensitively.
func ParseBorrowerKind(s string) (BorrowerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return BorrowerStudent, nil
	case "teacher":
		return BorrowerTeacher, nil
	}
	return "", fmt.Errorf("unknown borrower kind %q", s)
}

// BorrowerRef identifies a borrower of either kind.
type BorrowerRef struct {
	Kind BorrowerKind `json:"kind"`
	ID   uint         `json:"id"`
}

func StudentRef(id uint) BorrowerRef { return BorrowerRef{Kind: BorrowerStudent, ID: id} }
func TeacherRef(id uint) BorrowerRef { return BorrowerRef{Kind: BorrowerTeacher, ID: id} }

func (r BorrowerRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

func (r BorrowerRef) Valid() bool {
	return r.Kind.Valid() && r.ID != 0
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

type Student struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	FirstName          string     `gorm:"not null" json:"fname"`
	LastName           string     `gorm:"not null" json:"lname"`
	DateOfBirth        *time.Time `json:"dob,omitempty"`
	Gender             Gender     `gorm:"size:10" json:"gender"`
	Email              string     `gorm:"uniqueIndex;not null" json:"email"`
	Phone              string     `gorm:"uniqueIndex;not null" json:"phone"`
	Class              string     `json:"studclass"`
	RollNumber         string     `json:"rollNumber"`
	Username           string     `gorm:"not null" json:"username"`
	PasswordHash       string     `gorm:"not null" json:"-"`
	JoinDate           string     `json:"joinDate"`
	ImageRef           string     `json:"imageRef,omitempty"`
	CreatedByTeacherID *uint      `gorm:"index" json:"createdBy,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func (Student) TableName() string {
	return "students"
}

func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

func (s *Student) Ref() BorrowerRef {
	return StudentRef(s.ID)
}

type Teacher struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	FirstName    string     `gorm:"not null" json:"fname"`
	LastName     string     `gorm:"not null" json:"lname"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Phone        string     `gorm:"uniqueIndex;not null" json:"phone"`
	Subject      string     `json:"subject"`
	JoinDate     string     `json:"joinDate"`
	Username     string     `gorm:"not null" json:"username"`
	PasswordHash string     `gorm:"not null" json:"-"`
	DateOfBirth  *time.Time `json:"dob,omitempty"`
	ImageRef     string     `json:"imageRef,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (Teacher) TableName() string {
	return "teachers"
}

func (t *Teacher) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

func (t *Teacher) Ref() BorrowerRef {
	return TeacherRef(t.ID)
}
