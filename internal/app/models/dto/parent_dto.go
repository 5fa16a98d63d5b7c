package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/emre/famlink/internal/app/models"
)

// ParentResponse is the full parent profile representation.
type ParentResponse struct {
	UserID         int64     `json:"user_id" example:"42"`
	UUID           uuid.UUID `json:"uuid" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	FamilyCode     string    `json:"family_code" example:"A8K9Z"`
	PhoneNumber    string    `json:"phone_number" example:"+15550100"`
	Address        string    `json:"address" example:"1 Main St"`
	Country        string    `json:"country" example:"US"`
	State          string    `json:"state" example:"CA"`
	AccountEmails  bool      `json:"account_emails" example:"true"`
	Marketing      bool      `json:"marketing" example:"false"`
	StudentUpdates bool      `json:"student_updates" example:"true"`
	StudentCount   int64     `json:"student_count" example:"2"`
	CreatedAt      time.Time `json:"created_at"`
}

// UpdateParentRequest carries the mutable contact and notification fields.
type UpdateParentRequest struct {
	PhoneNumber    *string `json:"phone_number" binding:"omitempty,max=15" example:"+15550100"`
	Address        *string `json:"address" binding:"omitempty" example:"1 Main St"`
	Country        *string `json:"country" binding:"omitempty,max=100" example:"US"`
	State          *string `json:"state" binding:"omitempty,max=100" example:"CA"`
	AccountEmails  *bool   `json:"account_emails" example:"true"`
	Marketing      *bool   `json:"marketing" example:"false"`
	StudentUpdates *bool   `json:"student_updates" example:"true"`
}

// StudentCheckResponse reports whether a student currently belongs to the
// requesting parent's family.
type StudentCheckResponse struct {
	StudentUserID int64 `json:"student_user_id" example:"77"`
	Valid         bool  `json:"valid" example:"true"`
}

// NewParentResponse maps a parent model plus its live student count
func NewParentResponse(parent *models.Parent, studentCount int64) ParentResponse {
	return ParentResponse{
		UserID:         parent.UserID,
		UUID:           parent.UUID,
		FamilyCode:     parent.FamilyCode,
		PhoneNumber:    parent.PhoneNumber,
		Address:        parent.Address,
		Country:        parent.Country,
		State:          parent.State,
		AccountEmails:  parent.AccountEmails,
		Marketing:      parent.Marketing,
		StudentUpdates: parent.StudentUpdates,
		StudentCount:   studentCount,
		CreatedAt:      parent.CreatedAt,
	}
}
