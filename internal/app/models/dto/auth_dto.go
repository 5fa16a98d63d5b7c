package dto

import (
	"github.com/emre/famlink/internal/app/models"
)

// LoginRequest is the login body. Both fields are required; a missing field
// is a 400, a wrong credential pair is a 401.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"jane.doe"`
	Password string `json:"password" binding:"required" example:"s3cret-pass"`
}

// UserSummary is the compact identity block embedded in auth responses.
type UserSummary struct {
	ID       int64   `json:"id" example:"42"`
	Email    string  `json:"email" example:"jane@example.com"`
	Username string  `json:"username" example:"jane.doe"`
	UserType *string `json:"user_type" example:"parent"`
}

// LoginResponse is the success payload of a login. Profile carries the
// role-specific summary (ParentProfileSummary or StudentProfileSummary) and
// is null when no matching profile row exists for the user's role.
type LoginResponse struct {
	Message string      `json:"message" example:"Login successful"`
	Token   string      `json:"token" example:"9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b"`
	User    UserSummary `json:"user"`
	Profile interface{} `json:"profile"`
}

// ParentProfileSummary is the parent-side profile block in auth payloads.
type ParentProfileSummary struct {
	FamilyCode   string `json:"family_code" example:"A8K9Z"`
	StudentCount int64  `json:"student_count" example:"2"`
}

// StudentProfileSummary is the student-side profile block in auth payloads.
type StudentProfileSummary struct {
	StudentCode string `json:"student_code" example:"STU04219"`
	IsLinked    bool   `json:"is_linked" example:"true"`
}

// MeResponse is the authenticated-user payload: the full identity record plus
// the freshly resolved role profile, or null when the profile row is absent.
type MeResponse struct {
	User    UserResponse `json:"user"`
	Profile interface{}  `json:"profile"`
}

// LogoutResponse acknowledges a logout.
type LogoutResponse struct {
	Message string `json:"message" example:"Logged out"`
}

// RegisterParentRequest creates a parent account with its profile in one call.
type RegisterParentRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=150" example:"jane.doe"`
	Email       string `json:"email" binding:"required,email" example:"jane@example.com"`
	Password    string `json:"password" binding:"required,min=8" example:"s3cret-pass"`
	Name        string `json:"name" binding:"required" example:"Jane Doe"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,max=15" example:"+15550100"`
	Address     string `json:"address" binding:"omitempty" example:"1 Main St"`
	Country     string `json:"country" binding:"omitempty,max=100" example:"US"`
	State       string `json:"state" binding:"omitempty,max=100" example:"CA"`
}

// RegisterStudentRequest creates a student account with its profile in one
// call. FamilyCode is optional; when present the student starts linked.
type RegisterStudentRequest struct {
	Username   string `json:"username" binding:"required,min=3,max=150" example:"sam.doe"`
	Email      string `json:"email" binding:"required,email" example:"sam@example.com"`
	Password   string `json:"password" binding:"required,min=8" example:"s3cret-pass"`
	Name       string `json:"name" binding:"required" example:"Sam Doe"`
	Grade      string `json:"grade" binding:"omitempty,max=20" example:"7"`
	ClassName  string `json:"class_name" binding:"omitempty,max=20" example:"7B"`
	FamilyCode string `json:"family_code" binding:"omitempty,len=5" example:"A8K9Z"`
}

// NewUserSummary builds the summary block from a user model
func NewUserSummary(user *models.User) UserSummary {
	summary := UserSummary{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
	}
	if user.UserType != nil {
		role := string(*user.UserType)
		summary.UserType = &role
	}
	return summary
}
