package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/emre/famlink/internal/app/models"
)

// StudentResponse is the full student profile representation. IsLinked is
// resolved against live parents: a dangling family code reads as unlinked.
type StudentResponse struct {
	UserID           int64     `json:"user_id" example:"77"`
	UUID             uuid.UUID `json:"uuid" example:"9b2e7c4a-1c7e-4f6e-8d2a-5e07fc1f90ae"`
	StudentCode      string    `json:"student_code" example:"STU04219"`
	ParentFamilyCode *string   `json:"parent_family_code" example:"A8K9Z"`
	Grade            string    `json:"grade" example:"7"`
	ClassName        string    `json:"class_name" example:"7B"`
	IsLinked         bool      `json:"is_linked" example:"true"`
	CreatedAt        time.Time `json:"created_at"`
}

// LinkRequest asks to link the authenticated student to a parent's family.
type LinkRequest struct {
	FamilyCode string `json:"family_code" binding:"required,len=5" example:"A8K9Z"`
}

// NewStudentResponse maps a student model plus its resolved link state
func NewStudentResponse(student *models.Student, isLinked bool) StudentResponse {
	return StudentResponse{
		UserID:           student.UserID,
		UUID:             student.UUID,
		StudentCode:      student.StudentCode,
		ParentFamilyCode: student.ParentFamilyCode,
		Grade:            student.Grade,
		ClassName:        student.ClassName,
		IsLinked:         isLinked,
		CreatedAt:        student.CreatedAt,
	}
}

// NewStudentListResponse maps students with a per-student link resolver
func NewStudentListResponse(students []*models.Student, isLinked func(*models.Student) bool) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student, isLinked(student)))
	}
	return responses
}
