package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/emre/famlink/internal/app/models"
)

// CreateUserRequest is the admin identity-creation body. Role is optional;
// accounts may exist before a role is assigned.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=150" example:"jane.doe"`
	Email    string `json:"email" binding:"required,email" example:"jane@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"s3cret-pass"`
	Name     string `json:"name" binding:"required" example:"Jane Doe"`
	UserType string `json:"user_type" binding:"omitempty,oneof=parent student admin" example:"parent"`
}

// UpdateUserRequest carries the mutable identity fields. Nil pointers leave
// the current value untouched, which makes the same body usable for PATCH.
type UpdateUserRequest struct {
	Email    *string `json:"email" binding:"omitempty,email" example:"jane@example.com"`
	Name     *string `json:"name" binding:"omitempty" example:"Jane Doe"`
	IsActive *bool   `json:"is_active" example:"true"`
}

// UserResponse is the full user representation.
type UserResponse struct {
	ID          int64      `json:"id" example:"42"`
	UUID        uuid.UUID  `json:"uuid" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	Username    string     `json:"username" example:"jane.doe"`
	Email       string     `json:"email" example:"jane@example.com"`
	Name        string     `json:"name" example:"Jane Doe"`
	UserType    *string    `json:"user_type" example:"parent"`
	IsActive    bool       `json:"is_active" example:"true"`
	DateJoined  time.Time  `json:"date_joined"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// NewUserResponse maps a user model to its API representation
func NewUserResponse(user *models.User) UserResponse {
	resp := UserResponse{
		ID:          user.ID,
		UUID:        user.UUID,
		Username:    user.Username,
		Email:       user.Email,
		Name:        user.Name,
		IsActive:    user.IsActive,
		DateJoined:  user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
	if user.UserType != nil {
		role := string(*user.UserType)
		resp.UserType = &role
	}
	return resp
}

// NewUserListResponse maps a page of user models
func NewUserListResponse(users []*models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}
	return responses
}
