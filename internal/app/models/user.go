package models

import (
	"time"

	"github.com/google/uuid"
)

// User defines the identity record backed by the 'users' table
type User struct {
	ID          int64      `json:"id" db:"id" example:"1"`                                  // Unique identifier for the user
	UUID        uuid.UUID  `json:"uuid" db:"uuid"`                                          // External identifier, generated server-side
	Username    string     `json:"username" db:"username" example:"jdoe"`                   // Globally unique username
	Email       string     `json:"email" db:"email" example:"jdoe@example.com"`             // Globally unique email address
	Password    string     `json:"-" db:"password"`                                         // Bcrypt hash (excluded from JSON)
	Name        string     `json:"name" db:"name" example:"John Doe"`                       // Display name
	UserType    *RoleType  `json:"user_type" db:"user_type" example:"parent"`               // Role tag, nullable pending assignment
	IsActive    bool       `json:"is_active" db:"is_active" example:"true"`                 // Whether the account is active
	CreatedAt   time.Time  `json:"date_joined" db:"created_at"`                             // Timestamp when the account was created
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`                              // Timestamp of the last update
	LastLoginAt *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`              // Timestamp of the last login (nullable)
}

// Role returns the user's role tag or the empty string when unassigned.
func (u *User) Role() RoleType {
	if u.UserType == nil {
		return ""
	}
	return *u.UserType
}

// Parent defines the parent profile backed by the 'parents' table.
// One-to-one with User; family_code is generated at creation and never changes.
type Parent struct {
	UserID         int64     `json:"user_id" db:"user_id"`
	UUID           uuid.UUID `json:"uuid" db:"uuid"`
	FamilyCode     string    `json:"family_code" db:"family_code" example:"A8K9Z"`
	PhoneNumber    string    `json:"phone_number" db:"phone_number"`
	Address        string    `json:"address" db:"address"`
	Country        string    `json:"country" db:"country"`
	State          string    `json:"state" db:"state"`
	AccountEmails  bool      `json:"account_emails" db:"account_emails"`
	Marketing      bool      `json:"marketing" db:"marketing"`
	StudentUpdates bool      `json:"student_updates" db:"student_updates"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
	User           *User     `json:"user,omitempty"` // Relation, no db tag
}

// Student defines the student profile backed by the 'students' table.
// ParentFamilyCode holds a copy of a parent's family code, not a foreign key:
// linkage is resolved by value-matching, and a dangling code (parent deleted)
// is a representable state that resolves as unlinked.
type Student struct {
	UserID           int64     `json:"user_id" db:"user_id"`
	UUID             uuid.UUID `json:"uuid" db:"uuid"`
	StudentCode      string    `json:"student_code" db:"student_code" example:"STU12345"`
	ParentFamilyCode *string   `json:"parent_family_code,omitempty" db:"parent_family_code"`
	Grade            string    `json:"grade" db:"grade"`
	ClassName        string    `json:"class_name" db:"class_name"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
	User             *User     `json:"user,omitempty"` // Relation, no db tag
}

// HasFamilyCode reports whether the student stores a non-empty family code.
// A stored code does not guarantee the student is linked; the parent may be gone.
func (s *Student) HasFamilyCode() bool {
	return s.ParentFamilyCode != nil && *s.ParentFamilyCode != ""
}
