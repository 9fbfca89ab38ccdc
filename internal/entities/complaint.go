package entities

import "time"

type ContactMethod string

const (
	ContactByEmail  ContactMethod = "Email"
	ContactByPhone  ContactMethod = "Phone"
	ContactByEither ContactMethod = "Either"
)

func (m ContactMethod) Valid() bool {
	switch m {
	case ContactByEmail, ContactByPhone, ContactByEither:
		return true
	}
	return false
}

// Complaint is a message sent through the public contact form and read by
// library staff. It is not tied to a borrower account.
type Complaint struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	FirstName     string        `gorm:"not null" json:"fname"`
	LastName      string        `gorm:"not null" json:"lname"`
	Email         string        `gorm:"not null;index" json:"email"`
	Phone         string        `gorm:"not null" json:"phone"`
	Subject       string        `gorm:"not null" json:"subject"`
	Inquiry       string        `gorm:"type:text;not null" json:"inquiry"`
	ContactMethod ContactMethod `gorm:"size:10;not null" json:"contactMethod"`
	Consent       bool          `gorm:"not null" json:"consent"`
	ImageRef      string        `json:"imageRef,omitempty"`
	CreatedAt     time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func (Complaint) TableName() string {
	return "complaints"
}

func (c *Complaint) FullName() string {
	return c.FirstName + " " + c.LastName
}
