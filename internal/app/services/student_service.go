package services

import (
	"context"
	"errors"

	"github.com/emre/famlink/internal/app/models"
	"github.com/emre/famlink/internal/app/repositories"
	"github.com/emre/famlink/internal/pkg/apperrors"
	"github.com/emre/famlink/internal/pkg/helpers"
	"github.com/emre/famlink/internal/pkg/logger"
)

// IStudentService defines the student side of the family-code relationship.
type IStudentService interface {
	GetProfile(ctx context.Context, userID int64) (*models.Student, bool, error)
	GetParent(ctx context.Context, userID int64) (*models.Parent, error)
	Link(ctx context.Context, userID int64, familyCode string) (*models.Student, error)
	Unlink(ctx context.Context, userID int64) (*models.Student, error)
	IsLinked(ctx context.Context, student *models.Student) (bool, error)
	ListStudents(ctx context.Context, linked *bool, page, size int) ([]*models.Student, int64, error)
}

type studentService struct {
	studentRepo repositories.IStudentRepository
	parentRepo  repositories.IParentRepository
}

// NewStudentService creates a new student service
func NewStudentService(studentRepo repositories.IStudentRepository, parentRepo repositories.IParentRepository) IStudentService {
	return &studentService{
		studentRepo: studentRepo,
		parentRepo:  parentRepo,
	}
}

// GetProfile returns the student profile together with its resolved link
// state. A stored family code whose parent no longer exists reads as unlinked.
func (s *studentService) GetProfile(ctx context.Context, userID int64) (*models.Student, bool, error) {
	student, err := s.studentRepo.GetStudentByUserID(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	linked, err := s.IsLinked(ctx, student)
	if err != nil {
		return nil, false, err
	}

	return student, linked, nil
}

// IsLinked reports whether the student's stored family code currently
// belongs to a live parent.
func (s *studentService) IsLinked(ctx context.Context, student *models.Student) (bool, error) {
	if !student.HasFamilyCode() {
		return false, nil
	}
	return s.parentRepo.FamilyCodeExists(ctx, *student.ParentFamilyCode)
}

// GetParent resolves the student's family code to its owning parent. Returns
// nil without error when the student is unlinked or the code is dangling.
func (s *studentService) GetParent(ctx context.Context, userID int64) (*models.Parent, error) {
	student, err := s.studentRepo.GetStudentByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !student.HasFamilyCode() {
		return nil, nil
	}

	parent, err := s.parentRepo.GetParentByFamilyCode(ctx, *student.ParentFamilyCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrParentNotFound) {
			logger.Debug().
				Int64("studentUserID", userID).
				Str("familyCode", *student.ParentFamilyCode).
				Msg("Stored family code is dangling, resolving as unlinked")
			return nil, nil
		}
		return nil, err
	}

	return parent, nil
}

// Link stores the given family code on the student after verifying a parent
// currently holds it. Re-linking to the same code succeeds and changes nothing.
func (s *studentService) Link(ctx context.Context, userID int64, familyCode string) (*models.Student, error) {
	student, err := s.studentRepo.GetStudentByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	exists, err := s.parentRepo.FamilyCodeExists(ctx, familyCode)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.ErrUnknownFamilyCode
	}

	if err := s.studentRepo.SetParentFamilyCode(ctx, student.UserID, &familyCode); err != nil {
		return nil, err
	}

	logger.Info().Int64("studentUserID", userID).Str("familyCode", familyCode).Msg("Student linked to family")
	return s.studentRepo.GetStudentByUserID(ctx, userID)
}

// Unlink clears the student's stored family code. Unlinking an already
// unlinked student succeeds and changes nothing.
func (s *studentService) Unlink(ctx context.Context, userID int64) (*models.Student, error) {
	student, err := s.studentRepo.GetStudentByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.studentRepo.SetParentFamilyCode(ctx, student.UserID, nil); err != nil {
		return nil, err
	}

	logger.Info().Int64("studentUserID", userID).Msg("Student unlinked from family")
	return s.studentRepo.GetStudentByUserID(ctx, userID)
}

// ListStudents retrieves a page of students, optionally partitioned into
// linked and unlinked sets by the presence of a stored family code.
func (s *studentService) ListStudents(ctx context.Context, linked *bool, page, size int) ([]*models.Student, int64, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	return s.studentRepo.ListStudents(ctx, linked, offset, limit)
}
