package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/emre/famlink/internal/app/models"
	"github.com/emre/famlink/internal/app/repositories"
	"github.com/emre/famlink/internal/db"
)

// stubTxManager satisfies TxManager by running the function directly, with no
// real transaction underneath. The call count lets tests assert how many
// times a flow was (re)run as a unit.
type stubTxManager struct {
	calls int
}

func (s *stubTxManager) WithTransaction(ctx context.Context, fn db.TransactionFn) error {
	s.calls++
	return fn(ctx, nil)
}

// MockUserRepository is a mock implementation of IUserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, offset uint64, limit int) ([]*models.User, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteUserByUsername(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) WithTx(tx pgx.Tx) repositories.IUserRepository {
	return m
}

// MockParentRepository is a mock implementation of IParentRepository.
type MockParentRepository struct {
	mock.Mock
}

func (m *MockParentRepository) CreateParent(ctx context.Context, parent *models.Parent) error {
	args := m.Called(ctx, parent)
	return args.Error(0)
}

func (m *MockParentRepository) GetParentByUserID(ctx context.Context, userID int64) (*models.Parent, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Parent), args.Error(1)
}

func (m *MockParentRepository) GetParentByFamilyCode(ctx context.Context, familyCode string) (*models.Parent, error) {
	args := m.Called(ctx, familyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Parent), args.Error(1)
}

func (m *MockParentRepository) FamilyCodeExists(ctx context.Context, familyCode string) (bool, error) {
	args := m.Called(ctx, familyCode)
	return args.Bool(0), args.Error(1)
}

func (m *MockParentRepository) UpdateParent(ctx context.Context, parent *models.Parent) error {
	args := m.Called(ctx, parent)
	return args.Error(0)
}

func (m *MockParentRepository) WithTx(tx pgx.Tx) repositories.IParentRepository {
	return m
}

// MockStudentRepository is a mock implementation of IStudentRepository.
type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) CreateStudent(ctx context.Context, student *models.Student) error {
	args := m.Called(ctx, student)
	return args.Error(0)
}

func (m *MockStudentRepository) GetStudentByUserID(ctx context.Context, userID int64) (*models.Student, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentRepository) StudentCodeExists(ctx context.Context, studentCode string) (bool, error) {
	args := m.Called(ctx, studentCode)
	return args.Bool(0), args.Error(1)
}

func (m *MockStudentRepository) GetStudentsByFamilyCode(ctx context.Context, familyCode string) ([]*models.Student, error) {
	args := m.Called(ctx, familyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Student), args.Error(1)
}

func (m *MockStudentRepository) CountStudentsByFamilyCode(ctx context.Context, familyCode string) (int64, error) {
	args := m.Called(ctx, familyCode)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStudentRepository) SetParentFamilyCode(ctx context.Context, userID int64, familyCode *string) error {
	args := m.Called(ctx, userID, familyCode)
	return args.Error(0)
}

func (m *MockStudentRepository) UpdateStudent(ctx context.Context, student *models.Student) error {
	args := m.Called(ctx, student)
	return args.Error(0)
}

func (m *MockStudentRepository) ListStudents(ctx context.Context, linked *bool, offset uint64, limit int) ([]*models.Student, int64, error) {
	args := m.Called(ctx, linked, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.Student), args.Get(1).(int64), args.Error(2)
}

func (m *MockStudentRepository) WithTx(tx pgx.Tx) repositories.IStudentRepository {
	return m
}

// MockTokenRepository is a mock implementation of ITokenRepository.
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error {
	args := m.Called(ctx, token, userID, expiryDate)
	return args.Error(0)
}

func (m *MockTokenRepository) GetActiveTokenForUser(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenRepository) GetUserIDByToken(ctx context.Context, token string) (int64, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRepository) RevokeToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockTokenRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
