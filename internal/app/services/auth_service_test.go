package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/emre/famlink/internal/app/models"
	"github.com/emre/famlink/internal/app/models/dto"
	"github.com/emre/famlink/internal/pkg/apperrors"
	"github.com/emre/famlink/internal/pkg/auth"
)

func testJWTService() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:  "test-secret",
		SessionExp: time.Hour,
		Issuer:     "famlink.test",
	})
}

func parentRole() *models.RoleType {
	r := models.RoleParent
	return &r
}

func studentRole() *models.RoleType {
	r := models.RoleStudent
	return &r
}

func activeUser(id int64, username string, role *models.RoleType, password string) *models.User {
	hash, _ := auth.HashPassword(password)
	return &models.User{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
		Password: hash,
		UserType: role,
		IsActive: true,
	}
}

func newTestAuthService(
	userRepo *MockUserRepository,
	parentRepo *MockParentRepository,
	studentRepo *MockStudentRepository,
	tokenRepo *MockTokenRepository,
) IAuthService {
	return NewAuthService(userRepo, parentRepo, studentRepo, tokenRepo, &stubTxManager{}, testJWTService(), 720*time.Hour)
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name          string
		username      string
		password      string
		setupMock     func(*MockUserRepository, *MockParentRepository, *MockStudentRepository, *MockTokenRepository)
		expectedError error
		checkResp     func(*testing.T, *dto.LoginResponse)
	}{
		{
			name:     "successful parent login reuses existing token",
			username: "jane.doe",
			password: "password123",
			setupMock: func(uRepo *MockUserRepository, pRepo *MockParentRepository, sRepo *MockStudentRepository, tRepo *MockTokenRepository) {
				user := activeUser(1, "jane.doe", parentRole(), "password123")
				uRepo.On("GetUserByUsername", mock.Anything, "jane.doe").Return(user, nil)
				tRepo.On("GetActiveTokenForUser", mock.Anything, int64(1)).Return("existing-token", nil)
				uRepo.On("UpdateLastLogin", mock.Anything, int64(1)).Return(nil)
				pRepo.On("GetParentByUserID", mock.Anything, int64(1)).Return(&models.Parent{UserID: 1, FamilyCode: "A8K9Z"}, nil)
				sRepo.On("CountStudentsByFamilyCode", mock.Anything, "A8K9Z").Return(int64(2), nil)
			},
			checkResp: func(t *testing.T, resp *dto.LoginResponse) {
				assert.Equal(t, "existing-token", resp.Token)
				profile, ok := resp.Profile.(dto.ParentProfileSummary)
				assert.True(t, ok)
				assert.Equal(t, "A8K9Z", profile.FamilyCode)
				assert.Equal(t, int64(2), profile.StudentCount)
			},
		},
		{
			name:     "mints a fresh token when none is live",
			username: "jane.doe",
			password: "password123",
			setupMock: func(uRepo *MockUserRepository, pRepo *MockParentRepository, sRepo *MockStudentRepository, tRepo *MockTokenRepository) {
				user := activeUser(1, "jane.doe", parentRole(), "password123")
				uRepo.On("GetUserByUsername", mock.Anything, "jane.doe").Return(user, nil)
				tRepo.On("GetActiveTokenForUser", mock.Anything, int64(1)).Return("", apperrors.ErrTokenNotFound)
				tRepo.On("CreateToken", mock.Anything, mock.AnythingOfType("string"), int64(1), mock.AnythingOfType("time.Time")).Return(nil)
				uRepo.On("UpdateLastLogin", mock.Anything, int64(1)).Return(nil)
				pRepo.On("GetParentByUserID", mock.Anything, int64(1)).Return(&models.Parent{UserID: 1, FamilyCode: "A8K9Z"}, nil)
				sRepo.On("CountStudentsByFamilyCode", mock.Anything, "A8K9Z").Return(int64(0), nil)
			},
			checkResp: func(t *testing.T, resp *dto.LoginResponse) {
				assert.Len(t, resp.Token, 40)
			},
		},
		{
			name:     "wrong password collapses to invalid credentials",
			username: "jane.doe",
			password: "wrong-password",
			setupMock: func(uRepo *MockUserRepository, pRepo *MockParentRepository, sRepo *MockStudentRepository, tRepo *MockTokenRepository) {
				user := activeUser(1, "jane.doe", parentRole(), "password123")
				uRepo.On("GetUserByUsername", mock.Anything, "jane.doe").Return(user, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "unknown username collapses to invalid credentials",
			username: "nobody",
			password: "password123",
			setupMock: func(uRepo *MockUserRepository, pRepo *MockParentRepository, sRepo *MockStudentRepository, tRepo *MockTokenRepository) {
				uRepo.On("GetUserByUsername", mock.Anything, "nobody").Return(nil, apperrors.ErrUserNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "disabled account is rejected",
			username: "jane.doe",
			password: "password123",
			setupMock: func(uRepo *MockUserRepository, pRepo *MockParentRepository, sRepo *MockStudentRepository, tRepo *MockTokenRepository) {
				user := activeUser(1, "jane.doe", parentRole(), "password123")
				user.IsActive = false
				uRepo.On("GetUserByUsername", mock.Anything, "jane.doe").Return(user, nil)
			},
			expectedError: apperrors.ErrAccountDisabled,
		},
		{
			name:     "missing parent profile degrades to null profile",
			username: "jane.doe",
			password: "password123",
			setupMock: func(uRepo *MockUserRepository, pRepo *MockParentRepository, sRepo *MockStudentRepository, tRepo *MockTokenRepository) {
				user := activeUser(1, "jane.doe", parentRole(), "password123")
				uRepo.On("GetUserByUsername", mock.Anything, "jane.doe").Return(user, nil)
				tRepo.On("GetActiveTokenForUser", mock.Anything, int64(1)).Return("existing-token", nil)
				uRepo.On("UpdateLastLogin", mock.Anything, int64(1)).Return(nil)
				pRepo.On("GetParentByUserID", mock.Anything, int64(1)).Return(nil, apperrors.ErrParentNotFound)
			},
			checkResp: func(t *testing.T, resp *dto.LoginResponse) {
				assert.Nil(t, resp.Profile)
			},
		},
		{
			name:     "student with dangling code logs in as unlinked",
			username: "sam.doe",
			password: "password123",
			setupMock: func(uRepo *MockUserRepository, pRepo *MockParentRepository, sRepo *MockStudentRepository, tRepo *MockTokenRepository) {
				user := activeUser(2, "sam.doe", studentRole(), "password123")
				uRepo.On("GetUserByUsername", mock.Anything, "sam.doe").Return(user, nil)
				tRepo.On("GetActiveTokenForUser", mock.Anything, int64(2)).Return("existing-token", nil)
				uRepo.On("UpdateLastLogin", mock.Anything, int64(2)).Return(nil)
				code := "GONE1"
				sRepo.On("GetStudentByUserID", mock.Anything, int64(2)).Return(&models.Student{
					UserID:           2,
					StudentCode:      "STU04219",
					ParentFamilyCode: &code,
				}, nil)
				pRepo.On("FamilyCodeExists", mock.Anything, "GONE1").Return(false, nil)
			},
			checkResp: func(t *testing.T, resp *dto.LoginResponse) {
				profile, ok := resp.Profile.(dto.StudentProfileSummary)
				assert.True(t, ok)
				assert.Equal(t, "STU04219", profile.StudentCode)
				assert.False(t, profile.IsLinked)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(MockUserRepository)
			parentRepo := new(MockParentRepository)
			studentRepo := new(MockStudentRepository)
			tokenRepo := new(MockTokenRepository)
			tt.setupMock(userRepo, parentRepo, studentRepo, tokenRepo)

			service := newTestAuthService(userRepo, parentRepo, studentRepo, tokenRepo)
			resp, sessionToken, err := service.Login(context.Background(), &dto.LoginRequest{
				Username: tt.username,
				Password: tt.password,
			})

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, resp)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, resp)
				assert.NotEmpty(t, sessionToken)
				assert.Equal(t, "Login successful", resp.Message)
				if tt.checkResp != nil {
					tt.checkResp(t, resp)
				}
			}

			userRepo.AssertExpectations(t)
			parentRepo.AssertExpectations(t)
			studentRepo.AssertExpectations(t)
			tokenRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	t.Run("revokes every token the user holds", func(t *testing.T) {
		tokenRepo := new(MockTokenRepository)
		tokenRepo.On("RevokeAllUserTokens", mock.Anything, int64(1)).Return(nil)

		service := newTestAuthService(new(MockUserRepository), new(MockParentRepository), new(MockStudentRepository), tokenRepo)
		err := service.Logout(context.Background(), 1)

		assert.NoError(t, err)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("works off the user, so a cookie-authenticated logout kills the API token too", func(t *testing.T) {
		// No bearer token is in play here; revocation must still reach the
		// token store for the authenticated user.
		tokenRepo := new(MockTokenRepository)
		tokenRepo.On("RevokeAllUserTokens", mock.Anything, int64(7)).Return(nil)

		service := newTestAuthService(new(MockUserRepository), new(MockParentRepository), new(MockStudentRepository), tokenRepo)
		err := service.Logout(context.Background(), 7)

		assert.NoError(t, err)
		tokenRepo.AssertCalled(t, "RevokeAllUserTokens", mock.Anything, int64(7))
	})

	t.Run("revocation failure surfaces", func(t *testing.T) {
		tokenRepo := new(MockTokenRepository)
		tokenRepo.On("RevokeAllUserTokens", mock.Anything, int64(1)).Return(assert.AnError)

		service := newTestAuthService(new(MockUserRepository), new(MockParentRepository), new(MockStudentRepository), tokenRepo)
		err := service.Logout(context.Background(), 1)

		assert.Error(t, err)
	})
}

func TestAuthService_Me(t *testing.T) {
	t.Run("parent gets full profile with live count", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		parentRepo := new(MockParentRepository)
		studentRepo := new(MockStudentRepository)

		user := activeUser(1, "jane.doe", parentRole(), "password123")
		userRepo.On("GetUserByID", mock.Anything, int64(1)).Return(user, nil)
		parentRepo.On("GetParentByUserID", mock.Anything, int64(1)).Return(&models.Parent{UserID: 1, FamilyCode: "A8K9Z"}, nil)
		studentRepo.On("CountStudentsByFamilyCode", mock.Anything, "A8K9Z").Return(int64(3), nil)

		service := newTestAuthService(userRepo, parentRepo, studentRepo, new(MockTokenRepository))
		resp, err := service.Me(context.Background(), 1)

		assert.NoError(t, err)
		assert.Equal(t, "jane.doe", resp.User.Username)
		profile, ok := resp.Profile.(dto.ParentResponse)
		assert.True(t, ok)
		assert.Equal(t, int64(3), profile.StudentCount)
	})

	t.Run("role without profile row yields null profile", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		studentRepo := new(MockStudentRepository)

		user := activeUser(2, "sam.doe", studentRole(), "password123")
		userRepo.On("GetUserByID", mock.Anything, int64(2)).Return(user, nil)
		studentRepo.On("GetStudentByUserID", mock.Anything, int64(2)).Return(nil, apperrors.ErrStudentNotFound)

		service := newTestAuthService(userRepo, new(MockParentRepository), studentRepo, new(MockTokenRepository))
		resp, err := service.Me(context.Background(), 2)

		assert.NoError(t, err)
		assert.Nil(t, resp.Profile)
	})
}

func TestAuthService_RegisterParent(t *testing.T) {
	t.Run("creates user and profile inside a single transaction", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		parentRepo := new(MockParentRepository)
		tokenRepo := new(MockTokenRepository)
		txm := &stubTxManager{}

		userRepo.On("UsernameExists", mock.Anything, "jane.doe").Return(false, nil)
		userRepo.On("EmailExists", mock.Anything, "jane@example.com").Return(false, nil)
		userRepo.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(int64(1), nil)
		userRepo.On("GetUserByID", mock.Anything, int64(1)).Return(activeUser(1, "jane.doe", parentRole(), "password123"), nil)
		parentRepo.On("FamilyCodeExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
		parentRepo.On("CreateParent", mock.Anything, mock.AnythingOfType("*models.Parent")).Return(nil)
		tokenRepo.On("GetActiveTokenForUser", mock.Anything, int64(1)).Return("", apperrors.ErrTokenNotFound)
		tokenRepo.On("CreateToken", mock.Anything, mock.AnythingOfType("string"), int64(1), mock.AnythingOfType("time.Time")).Return(nil)

		service := NewAuthService(userRepo, parentRepo, new(MockStudentRepository), tokenRepo, txm, testJWTService(), 720*time.Hour)
		resp, sessionToken, err := service.RegisterParent(context.Background(), &dto.RegisterParentRequest{
			Username: "jane.doe",
			Email:    "jane@example.com",
			Password: "password123",
			Name:     "Jane Doe",
		})

		assert.NoError(t, err)
		assert.NotEmpty(t, sessionToken)
		assert.Equal(t, 1, txm.calls)
		profile, ok := resp.Profile.(dto.ParentProfileSummary)
		assert.True(t, ok)
		assert.Len(t, profile.FamilyCode, 5)
	})

	t.Run("a lost constraint race rolls back and reruns the whole registration", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		parentRepo := new(MockParentRepository)
		tokenRepo := new(MockTokenRepository)
		txm := &stubTxManager{}

		userRepo.On("UsernameExists", mock.Anything, "jane.doe").Return(false, nil)
		userRepo.On("EmailExists", mock.Anything, "jane@example.com").Return(false, nil)
		userRepo.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(int64(1), nil)
		userRepo.On("GetUserByID", mock.Anything, int64(1)).Return(activeUser(1, "jane.doe", parentRole(), "password123"), nil)

		// Pre-check always passes, first insert loses the unique-constraint
		// race, the retried transaction wins with a fresh code.
		parentRepo.On("FamilyCodeExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
		parentRepo.On("CreateParent", mock.Anything, mock.AnythingOfType("*models.Parent")).
			Return(apperrors.ErrFamilyCodeExists).Once()
		parentRepo.On("CreateParent", mock.Anything, mock.AnythingOfType("*models.Parent")).
			Return(nil).Once()

		tokenRepo.On("GetActiveTokenForUser", mock.Anything, int64(1)).Return("", apperrors.ErrTokenNotFound)
		tokenRepo.On("CreateToken", mock.Anything, mock.AnythingOfType("string"), int64(1), mock.AnythingOfType("time.Time")).Return(nil)

		service := NewAuthService(userRepo, parentRepo, new(MockStudentRepository), tokenRepo, txm, testJWTService(), 720*time.Hour)
		resp, sessionToken, err := service.RegisterParent(context.Background(), &dto.RegisterParentRequest{
			Username: "jane.doe",
			Email:    "jane@example.com",
			Password: "password123",
			Name:     "Jane Doe",
		})

		assert.NoError(t, err)
		assert.NotEmpty(t, sessionToken)
		// The user insert is retried along with the profile insert; nothing
		// from the aborted first attempt survives on its own.
		assert.Equal(t, 2, txm.calls)
		userRepo.AssertNumberOfCalls(t, "CreateUser", 2)
		profile, ok := resp.Profile.(dto.ParentProfileSummary)
		assert.True(t, ok)
		assert.Len(t, profile.FamilyCode, 5)
		parentRepo.AssertExpectations(t)
	})

	t.Run("duplicate username is rejected before any insert", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("UsernameExists", mock.Anything, "jane.doe").Return(true, nil)

		service := newTestAuthService(userRepo, new(MockParentRepository), new(MockStudentRepository), new(MockTokenRepository))
		_, _, err := service.RegisterParent(context.Background(), &dto.RegisterParentRequest{
			Username: "jane.doe",
			Email:    "jane@example.com",
			Password: "password123",
			Name:     "Jane Doe",
		})

		assert.ErrorIs(t, err, apperrors.ErrUsernameAlreadyExists)
		userRepo.AssertNotCalled(t, "CreateUser")
	})
}

func TestAuthService_RegisterStudent(t *testing.T) {
	t.Run("unknown family code rejects the registration", func(t *testing.T) {
		parentRepo := new(MockParentRepository)
		parentRepo.On("FamilyCodeExists", mock.Anything, "ZZZZZ").Return(false, nil)

		service := newTestAuthService(new(MockUserRepository), parentRepo, new(MockStudentRepository), new(MockTokenRepository))
		_, _, err := service.RegisterStudent(context.Background(), &dto.RegisterStudentRequest{
			Username:   "sam.doe",
			Email:      "sam@example.com",
			Password:   "password123",
			Name:       "Sam Doe",
			FamilyCode: "ZZZZZ",
		})

		assert.ErrorIs(t, err, apperrors.ErrUnknownFamilyCode)
	})

	t.Run("registration with a valid code starts linked", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		parentRepo := new(MockParentRepository)
		studentRepo := new(MockStudentRepository)
		tokenRepo := new(MockTokenRepository)

		parentRepo.On("FamilyCodeExists", mock.Anything, "A8K9Z").Return(true, nil)
		userRepo.On("UsernameExists", mock.Anything, "sam.doe").Return(false, nil)
		userRepo.On("EmailExists", mock.Anything, "sam@example.com").Return(false, nil)
		userRepo.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(int64(2), nil)
		userRepo.On("GetUserByID", mock.Anything, int64(2)).Return(activeUser(2, "sam.doe", studentRole(), "password123"), nil)
		studentRepo.On("StudentCodeExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
		studentRepo.On("CreateStudent", mock.Anything, mock.MatchedBy(func(s *models.Student) bool {
			return s.ParentFamilyCode != nil && *s.ParentFamilyCode == "A8K9Z"
		})).Return(nil)
		tokenRepo.On("GetActiveTokenForUser", mock.Anything, int64(2)).Return("", apperrors.ErrTokenNotFound)
		tokenRepo.On("CreateToken", mock.Anything, mock.AnythingOfType("string"), int64(2), mock.AnythingOfType("time.Time")).Return(nil)

		service := newTestAuthService(userRepo, parentRepo, studentRepo, tokenRepo)
		resp, _, err := service.RegisterStudent(context.Background(), &dto.RegisterStudentRequest{
			Username:   "sam.doe",
			Email:      "sam@example.com",
			Password:   "password123",
			Name:       "Sam Doe",
			FamilyCode: "A8K9Z",
		})

		assert.NoError(t, err)
		profile, ok := resp.Profile.(dto.StudentProfileSummary)
		assert.True(t, ok)
		assert.True(t, profile.IsLinked)
		assert.Regexp(t, `^STU\d{5}$`, profile.StudentCode)
	})
}
