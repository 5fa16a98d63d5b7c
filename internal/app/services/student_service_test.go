package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/emre/famlink/internal/app/models"
	"github.com/emre/famlink/internal/pkg/apperrors"
)

func strPtr(s string) *string { return &s }

func TestStudentService_Link(t *testing.T) {
	tests := []struct {
		name          string
		familyCode    string
		setupMock     func(*MockStudentRepository, *MockParentRepository)
		expectedError error
	}{
		{
			name:       "link to an existing family code",
			familyCode: "A8K9Z",
			setupMock: func(sRepo *MockStudentRepository, pRepo *MockParentRepository) {
				sRepo.On("GetStudentByUserID", mock.Anything, int64(7)).
					Return(&models.Student{UserID: 7, StudentCode: "STU00001"}, nil).Once()
				pRepo.On("FamilyCodeExists", mock.Anything, "A8K9Z").Return(true, nil)
				sRepo.On("SetParentFamilyCode", mock.Anything, int64(7), mock.MatchedBy(func(code *string) bool {
					return code != nil && *code == "A8K9Z"
				})).Return(nil)
				sRepo.On("GetStudentByUserID", mock.Anything, int64(7)).
					Return(&models.Student{UserID: 7, StudentCode: "STU00001", ParentFamilyCode: strPtr("A8K9Z")}, nil).Once()
			},
		},
		{
			name:       "re-linking to the same code succeeds",
			familyCode: "A8K9Z",
			setupMock: func(sRepo *MockStudentRepository, pRepo *MockParentRepository) {
				already := &models.Student{UserID: 7, StudentCode: "STU00001", ParentFamilyCode: strPtr("A8K9Z")}
				sRepo.On("GetStudentByUserID", mock.Anything, int64(7)).Return(already, nil)
				pRepo.On("FamilyCodeExists", mock.Anything, "A8K9Z").Return(true, nil)
				sRepo.On("SetParentFamilyCode", mock.Anything, int64(7), mock.Anything).Return(nil)
			},
		},
		{
			name:       "unknown family code fails and leaves state unchanged",
			familyCode: "ZZZZZ",
			setupMock: func(sRepo *MockStudentRepository, pRepo *MockParentRepository) {
				sRepo.On("GetStudentByUserID", mock.Anything, int64(7)).
					Return(&models.Student{UserID: 7, StudentCode: "STU00001"}, nil)
				pRepo.On("FamilyCodeExists", mock.Anything, "ZZZZZ").Return(false, nil)
			},
			expectedError: apperrors.ErrUnknownFamilyCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			studentRepo := new(MockStudentRepository)
			parentRepo := new(MockParentRepository)
			tt.setupMock(studentRepo, parentRepo)

			service := NewStudentService(studentRepo, parentRepo)
			student, err := service.Link(context.Background(), 7, tt.familyCode)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, student)
				studentRepo.AssertNotCalled(t, "SetParentFamilyCode")
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, student)
			}

			studentRepo.AssertExpectations(t)
			parentRepo.AssertExpectations(t)
		})
	}
}

func TestStudentService_Unlink(t *testing.T) {
	t.Run("clears the stored code", func(t *testing.T) {
		studentRepo := new(MockStudentRepository)
		studentRepo.On("GetStudentByUserID", mock.Anything, int64(7)).
			Return(&models.Student{UserID: 7, ParentFamilyCode: strPtr("A8K9Z")}, nil).Once()
		studentRepo.On("SetParentFamilyCode", mock.Anything, int64(7), (*string)(nil)).Return(nil)
		studentRepo.On("GetStudentByUserID", mock.Anything, int64(7)).
			Return(&models.Student{UserID: 7}, nil).Once()

		service := NewStudentService(studentRepo, new(MockParentRepository))
		student, err := service.Unlink(context.Background(), 7)

		assert.NoError(t, err)
		assert.Nil(t, student.ParentFamilyCode)
	})

	t.Run("unlinking an already unlinked student is a no-op success", func(t *testing.T) {
		studentRepo := new(MockStudentRepository)
		studentRepo.On("GetStudentByUserID", mock.Anything, int64(7)).
			Return(&models.Student{UserID: 7}, nil)
		studentRepo.On("SetParentFamilyCode", mock.Anything, int64(7), (*string)(nil)).Return(nil)

		service := NewStudentService(studentRepo, new(MockParentRepository))
		student, err := service.Unlink(context.Background(), 7)

		assert.NoError(t, err)
		assert.Nil(t, student.ParentFamilyCode)
	})
}

func TestStudentService_GetParent(t *testing.T) {
	tests := []struct {
		name       string
		setupMock  func(*MockStudentRepository, *MockParentRepository)
		wantParent bool
	}{
		{
			name: "resolves the owning parent",
			setupMock: func(sRepo *MockStudentRepository, pRepo *MockParentRepository) {
				sRepo.On("GetStudentByUserID", mock.Anything, int64(7)).
					Return(&models.Student{UserID: 7, ParentFamilyCode: strPtr("A8K9Z")}, nil)
				pRepo.On("GetParentByFamilyCode", mock.Anything, "A8K9Z").
					Return(&models.Parent{UserID: 1, FamilyCode: "A8K9Z"}, nil)
			},
			wantParent: true,
		},
		{
			name: "unlinked student resolves to nil without error",
			setupMock: func(sRepo *MockStudentRepository, pRepo *MockParentRepository) {
				sRepo.On("GetStudentByUserID", mock.Anything, int64(7)).
					Return(&models.Student{UserID: 7}, nil)
			},
		},
		{
			name: "dangling code resolves to nil without error",
			setupMock: func(sRepo *MockStudentRepository, pRepo *MockParentRepository) {
				sRepo.On("GetStudentByUserID", mock.Anything, int64(7)).
					Return(&models.Student{UserID: 7, ParentFamilyCode: strPtr("GONE1")}, nil)
				pRepo.On("GetParentByFamilyCode", mock.Anything, "GONE1").
					Return(nil, apperrors.ErrParentNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			studentRepo := new(MockStudentRepository)
			parentRepo := new(MockParentRepository)
			tt.setupMock(studentRepo, parentRepo)

			service := NewStudentService(studentRepo, parentRepo)
			parent, err := service.GetParent(context.Background(), 7)

			assert.NoError(t, err)
			if tt.wantParent {
				assert.NotNil(t, parent)
			} else {
				assert.Nil(t, parent)
			}
		})
	}
}

func TestStudentService_IsLinked(t *testing.T) {
	service := NewStudentService(new(MockStudentRepository), func() *MockParentRepository {
		pRepo := new(MockParentRepository)
		pRepo.On("FamilyCodeExists", mock.Anything, "A8K9Z").Return(true, nil)
		pRepo.On("FamilyCodeExists", mock.Anything, "GONE1").Return(false, nil)
		return pRepo
	}())

	t.Run("no stored code reads unlinked", func(t *testing.T) {
		linked, err := service.IsLinked(context.Background(), &models.Student{UserID: 7})
		assert.NoError(t, err)
		assert.False(t, linked)
	})

	t.Run("live code reads linked", func(t *testing.T) {
		linked, err := service.IsLinked(context.Background(), &models.Student{UserID: 7, ParentFamilyCode: strPtr("A8K9Z")})
		assert.NoError(t, err)
		assert.True(t, linked)
	})

	t.Run("dangling code reads unlinked", func(t *testing.T) {
		linked, err := service.IsLinked(context.Background(), &models.Student{UserID: 7, ParentFamilyCode: strPtr("GONE1")})
		assert.NoError(t, err)
		assert.False(t, linked)
	})
}

func TestStudentService_ListStudents(t *testing.T) {
	t.Run("partition filter is passed through with pagination", func(t *testing.T) {
		studentRepo := new(MockStudentRepository)
		linked := false
		studentRepo.On("ListStudents", mock.Anything, &linked, uint64(0), 10).
			Return([]*models.Student{{UserID: 7}}, int64(1), nil)

		service := NewStudentService(studentRepo, new(MockParentRepository))
		students, total, err := service.ListStudents(context.Background(), &linked, 1, 10)

		assert.NoError(t, err)
		assert.Len(t, students, 1)
		assert.Equal(t, int64(1), total)
		studentRepo.AssertExpectations(t)
	})
}
