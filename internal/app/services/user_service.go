package services

import (
	"context"

	"github.com/emre/famlink/internal/app/models"
	"github.com/emre/famlink/internal/app/models/dto"
	"github.com/emre/famlink/internal/app/repositories"
	"github.com/emre/famlink/internal/pkg/apperrors"
	"github.com/emre/famlink/internal/pkg/auth"
	"github.com/emre/famlink/internal/pkg/helpers"
)

// IUserService defines the identity CRUD operations.
type IUserService interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, page, size int) ([]*models.User, int64, error)
	UpdateUser(ctx context.Context, username string, req *dto.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, username string) error
}

type userService struct {
	userRepo repositories.IUserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.IUserRepository) IUserService {
	return &userService{userRepo: userRepo}
}

// CreateUser creates an identity record. The role tag may be left unset and
// assigned later; a user with a role but no profile row is a valid state.
func (s *userService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error) {
	if req.UserType != "" && !models.ValidRole(models.RoleType(req.UserType)) {
		return nil, apperrors.NewBadRequestError("unknown user type: " + req.UserType)
	}

	if exists, err := s.userRepo.UsernameExists(ctx, req.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, apperrors.ErrUsernameAlreadyExists
	}

	if exists, err := s.userRepo.EmailExists(ctx, req.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashedPassword,
		Name:     req.Name,
		IsActive: true,
	}
	if req.UserType != "" {
		role := models.RoleType(req.UserType)
		user.UserType = &role
	}

	id, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	return s.userRepo.GetUserByID(ctx, id)
}

// GetUserByUsername retrieves a user by username
func (s *userService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetUserByUsername(ctx, username)
}

// ListUsers retrieves a page of users with the total count
func (s *userService) ListUsers(ctx context.Context, page, size int) ([]*models.User, int64, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	return s.userRepo.ListUsers(ctx, offset, limit)
}

// UpdateUser applies the provided fields to an existing user. Unset pointers
// keep the stored value, so PUT and PATCH share the same path.
func (s *userService) UpdateUser(ctx context.Context, username string, req *dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	return s.userRepo.GetUserByID(ctx, user.ID)
}

// DeleteUser removes a user and, via cascade, its profile row. Students that
// reference the deleted parent's family code by value keep their stored code
// and simply resolve as unlinked afterwards.
func (s *userService) DeleteUser(ctx context.Context, username string) error {
	return s.userRepo.DeleteUserByUsername(ctx, username)
}
