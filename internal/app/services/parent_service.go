package services

import (
	"context"
	"errors"

	"github.com/emre/famlink/internal/app/models"
	"github.com/emre/famlink/internal/app/models/dto"
	"github.com/emre/famlink/internal/app/repositories"
	"github.com/emre/famlink/internal/pkg/apperrors"
)

// IParentService defines the parent side of the family-code relationship.
type IParentService interface {
	GetProfile(ctx context.Context, userID int64) (*models.Parent, int64, error)
	GetStudents(ctx context.Context, userID int64) ([]*models.Student, error)
	GetStudentCount(ctx context.Context, userID int64) (int64, error)
	CheckStudent(ctx context.Context, parentUserID, studentUserID int64) (bool, error)
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateParentRequest) (*models.Parent, int64, error)
}

type parentService struct {
	parentRepo  repositories.IParentRepository
	studentRepo repositories.IStudentRepository
}

// NewParentService creates a new parent service
func NewParentService(parentRepo repositories.IParentRepository, studentRepo repositories.IStudentRepository) IParentService {
	return &parentService{
		parentRepo:  parentRepo,
		studentRepo: studentRepo,
	}
}

// GetProfile returns the parent profile together with its live student count.
func (s *parentService) GetProfile(ctx context.Context, userID int64) (*models.Parent, int64, error) {
	parent, err := s.parentRepo.GetParentByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.studentRepo.CountStudentsByFamilyCode(ctx, parent.FamilyCode)
	if err != nil {
		return nil, 0, err
	}

	return parent, count, nil
}

// GetStudents returns every student whose stored code matches the parent's
// family code. Siblings share one code, so this is a value-based inverse
// lookup returning zero or more rows.
func (s *parentService) GetStudents(ctx context.Context, userID int64) ([]*models.Student, error) {
	parent, err := s.parentRepo.GetParentByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.studentRepo.GetStudentsByFamilyCode(ctx, parent.FamilyCode)
}

// GetStudentCount returns the cardinality of the parent's student set.
func (s *parentService) GetStudentCount(ctx context.Context, userID int64) (int64, error) {
	parent, err := s.parentRepo.GetParentByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}

	return s.studentRepo.CountStudentsByFamilyCode(ctx, parent.FamilyCode)
}

// CheckStudent reports whether the given student currently belongs to the
// parent's family, by exact value match on the family code. A user ID with no
// student behind it is simply not a valid member, not an error.
func (s *parentService) CheckStudent(ctx context.Context, parentUserID, studentUserID int64) (bool, error) {
	parent, err := s.parentRepo.GetParentByUserID(ctx, parentUserID)
	if err != nil {
		return false, err
	}

	student, err := s.studentRepo.GetStudentByUserID(ctx, studentUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return false, nil
		}
		return false, err
	}

	return student.HasFamilyCode() && *student.ParentFamilyCode == parent.FamilyCode, nil
}

// UpdateProfile applies the provided contact and preference fields. The
// family code is never touched here; it is immutable after creation.
func (s *parentService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateParentRequest) (*models.Parent, int64, error) {
	parent, err := s.parentRepo.GetParentByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	if req.PhoneNumber != nil {
		parent.PhoneNumber = *req.PhoneNumber
	}
	if req.Address != nil {
		parent.Address = *req.Address
	}
	if req.Country != nil {
		parent.Country = *req.Country
	}
	if req.State != nil {
		parent.State = *req.State
	}
	if req.AccountEmails != nil {
		parent.AccountEmails = *req.AccountEmails
	}
	if req.Marketing != nil {
		parent.Marketing = *req.Marketing
	}
	if req.StudentUpdates != nil {
		parent.StudentUpdates = *req.StudentUpdates
	}

	if err := s.parentRepo.UpdateParent(ctx, parent); err != nil {
		return nil, 0, err
	}

	return s.GetProfile(ctx, userID)
}
