package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/emre/famlink/internal/app/models"
	"github.com/emre/famlink/internal/app/models/dto"
	"github.com/emre/famlink/internal/app/repositories"
	"github.com/emre/famlink/internal/pkg/apperrors"
	"github.com/emre/famlink/internal/pkg/auth"
	"github.com/emre/famlink/internal/pkg/codegen"
	"github.com/emre/famlink/internal/pkg/logger"
)

// profileCreateRetries bounds the claim-insert loop when a generated code
// collides at the unique constraint despite passing the existence pre-check.
const profileCreateRetries = 3

// IAuthService defines login, logout, registration and current-user
// resolution. Login and the register calls also return a signed session
// token for the browser-facing session cookie.
type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, string, error)
	Logout(ctx context.Context, userID int64) error
	Me(ctx context.Context, userID int64) (*dto.MeResponse, error)
	RegisterParent(ctx context.Context, req *dto.RegisterParentRequest) (*dto.LoginResponse, string, error)
	RegisterStudent(ctx context.Context, req *dto.RegisterStudentRequest) (*dto.LoginResponse, string, error)
}

type authService struct {
	userRepo        repositories.IUserRepository
	parentRepo      repositories.IParentRepository
	studentRepo     repositories.IStudentRepository
	tokenRepo       repositories.ITokenRepository
	txm             TxManager
	jwtService      *auth.JWTService
	tokenExpiration time.Duration
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo repositories.IUserRepository,
	parentRepo repositories.IParentRepository,
	studentRepo repositories.IStudentRepository,
	tokenRepo repositories.ITokenRepository,
	txm TxManager,
	jwtService *auth.JWTService,
	tokenExpiration time.Duration,
) IAuthService {
	return &authService{
		userRepo:        userRepo,
		parentRepo:      parentRepo,
		studentRepo:     studentRepo,
		tokenRepo:       tokenRepo,
		txm:             txm,
		jwtService:      jwtService,
		tokenExpiration: tokenExpiration,
	}
}

// Login authenticates the user and issues credentials. Unknown username and
// wrong password collapse into the same ErrInvalidCredentials so the response
// does not leak which part was wrong. A live token from an earlier login is
// reused rather than duplicated.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, string, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !user.IsActive {
		return nil, "", apperrors.ErrAccountDisabled
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		logger.Warn().Str("username", req.Username).Msg("Login failed: wrong password")
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.obtainToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	sessionToken, err := s.jwtService.GenerateSessionToken(user)
	if err != nil {
		return nil, "", err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to record last login time")
	}

	resp := &dto.LoginResponse{
		Message: "Login successful",
		Token:   token,
		User:    dto.NewUserSummary(user),
		Profile: s.resolveProfileSummary(ctx, user),
	}

	logger.Info().Int64("userID", user.ID).Str("username", user.Username).Msg("User logged in")
	return resp, sessionToken, nil
}

// obtainToken returns the user's live opaque token, minting and storing a
// fresh one only when none exists.
func (s *authService) obtainToken(ctx context.Context, userID int64) (string, error) {
	token, err := s.tokenRepo.GetActiveTokenForUser(ctx, userID)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, apperrors.ErrTokenNotFound) {
		return "", err
	}

	token, err = auth.NewOpaqueToken()
	if err != nil {
		return "", err
	}

	if err := s.tokenRepo.CreateToken(ctx, token, userID, time.Now().Add(s.tokenExpiration)); err != nil {
		return "", err
	}

	return token, nil
}

// resolveProfileSummary builds the role-specific profile block for auth
// payloads. A missing profile row, or any failure while resolving it,
// degrades to a null profile instead of failing the whole request.
func (s *authService) resolveProfileSummary(ctx context.Context, user *models.User) interface{} {
	switch user.Role() {
	case models.RoleParent:
		parent, err := s.parentRepo.GetParentByUserID(ctx, user.ID)
		if err != nil {
			s.logProfileMiss(err, user)
			return nil
		}
		count, err := s.studentRepo.CountStudentsByFamilyCode(ctx, parent.FamilyCode)
		if err != nil {
			s.logProfileMiss(err, user)
			return nil
		}
		return dto.ParentProfileSummary{FamilyCode: parent.FamilyCode, StudentCount: count}

	case models.RoleStudent:
		student, err := s.studentRepo.GetStudentByUserID(ctx, user.ID)
		if err != nil {
			s.logProfileMiss(err, user)
			return nil
		}
		linked := false
		if student.HasFamilyCode() {
			linked, err = s.parentRepo.FamilyCodeExists(ctx, *student.ParentFamilyCode)
			if err != nil {
				s.logProfileMiss(err, user)
				return nil
			}
		}
		return dto.StudentProfileSummary{StudentCode: student.StudentCode, IsLinked: linked}
	}

	return nil
}

func (s *authService) logProfileMiss(err error, user *models.User) {
	event := logger.Debug()
	if !errors.Is(err, apperrors.ErrParentNotFound) && !errors.Is(err, apperrors.ErrStudentNotFound) {
		event = logger.Warn().Err(err)
	}
	event.Int64("userID", user.ID).Str("role", string(user.Role())).Msg("Profile unavailable, degrading to null")
}

// Logout revokes every opaque token the user holds, so a logout through the
// session cookie invalidates the API credential too. A user with no live
// tokens logs out cleanly.
func (s *authService) Logout(ctx context.Context, userID int64) error {
	if err := s.tokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to revoke tokens during logout")
		return err
	}
	return nil
}

// Me returns the caller's full identity record plus a freshly resolved role
// profile. A role without a matching profile row yields a null profile.
func (s *authService) Me(ctx context.Context, userID int64) (*dto.MeResponse, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.MeResponse{
		User:    dto.NewUserResponse(user),
		Profile: nil,
	}

	switch user.Role() {
	case models.RoleParent:
		parent, err := s.parentRepo.GetParentByUserID(ctx, userID)
		if err != nil {
			s.logProfileMiss(err, user)
			break
		}
		count, err := s.studentRepo.CountStudentsByFamilyCode(ctx, parent.FamilyCode)
		if err != nil {
			s.logProfileMiss(err, user)
			break
		}
		resp.Profile = dto.NewParentResponse(parent, count)

	case models.RoleStudent:
		student, err := s.studentRepo.GetStudentByUserID(ctx, userID)
		if err != nil {
			s.logProfileMiss(err, user)
			break
		}
		linked := false
		if student.HasFamilyCode() {
			linked, err = s.parentRepo.FamilyCodeExists(ctx, *student.ParentFamilyCode)
			if err != nil {
				s.logProfileMiss(err, user)
				break
			}
		}
		resp.Profile = dto.NewStudentResponse(student, linked)
	}

	return resp, nil
}

// RegisterParent creates a parent account and its profile with a freshly
// claimed family code in one transaction, then logs the new user in. A failed
// profile insert rolls the user insert back with it.
func (s *authService) RegisterParent(ctx context.Context, req *dto.RegisterParentRequest) (*dto.LoginResponse, string, error) {
	var (
		user       *models.User
		familyCode string
	)

	register := func(ctx context.Context, tx pgx.Tx) error {
		userRepo := s.userRepo.WithTx(tx)
		parentRepo := s.parentRepo.WithTx(tx)

		var err error
		user, err = s.createUser(ctx, userRepo, req.Username, req.Email, req.Password, req.Name, models.RoleParent)
		if err != nil {
			return err
		}

		familyCode, err = codegen.Claim(ctx, 0, codegen.FamilyCode, parentRepo.FamilyCodeExists)
		if err != nil {
			return err
		}

		return parentRepo.CreateParent(ctx, &models.Parent{
			UserID:         user.ID,
			FamilyCode:     familyCode,
			PhoneNumber:    req.PhoneNumber,
			Address:        req.Address,
			Country:        req.Country,
			State:          req.State,
			AccountEmails:  true,
			StudentUpdates: true,
		})
	}

	// A lost unique-constraint race aborts the transaction, so the retry
	// re-runs the whole registration with a fresh code.
	var err error
	for attempt := 0; attempt < profileCreateRetries; attempt++ {
		if err = s.txm.WithTransaction(ctx, register); err == nil {
			break
		}
		if !errors.Is(err, apperrors.ErrFamilyCodeExists) {
			return nil, "", err
		}
	}
	if err != nil {
		return nil, "", apperrors.ErrCodeSpaceExhausted
	}

	return s.issueCredentials(ctx, user, dto.ParentProfileSummary{FamilyCode: familyCode})
}

// RegisterStudent creates a student account and its profile with a freshly
// claimed student code in one transaction, then logs the new user in. When a
// family code is supplied the student starts linked; an unknown code rejects
// the request.
func (s *authService) RegisterStudent(ctx context.Context, req *dto.RegisterStudentRequest) (*dto.LoginResponse, string, error) {
	var familyCode *string
	if req.FamilyCode != "" {
		exists, err := s.parentRepo.FamilyCodeExists(ctx, req.FamilyCode)
		if err != nil {
			return nil, "", err
		}
		if !exists {
			return nil, "", apperrors.ErrUnknownFamilyCode
		}
		familyCode = &req.FamilyCode
	}

	var (
		user        *models.User
		studentCode string
	)

	register := func(ctx context.Context, tx pgx.Tx) error {
		userRepo := s.userRepo.WithTx(tx)
		studentRepo := s.studentRepo.WithTx(tx)

		var err error
		user, err = s.createUser(ctx, userRepo, req.Username, req.Email, req.Password, req.Name, models.RoleStudent)
		if err != nil {
			return err
		}

		studentCode, err = codegen.Claim(ctx, 0, codegen.StudentCode, studentRepo.StudentCodeExists)
		if err != nil {
			return err
		}

		return studentRepo.CreateStudent(ctx, &models.Student{
			UserID:           user.ID,
			StudentCode:      studentCode,
			ParentFamilyCode: familyCode,
			Grade:            req.Grade,
			ClassName:        req.ClassName,
		})
	}

	var err error
	for attempt := 0; attempt < profileCreateRetries; attempt++ {
		if err = s.txm.WithTransaction(ctx, register); err == nil {
			break
		}
		if !errors.Is(err, apperrors.ErrStudentCodeExists) {
			return nil, "", err
		}
	}
	if err != nil {
		return nil, "", apperrors.ErrCodeSpaceExhausted
	}

	return s.issueCredentials(ctx, user, dto.StudentProfileSummary{
		StudentCode: studentCode,
		IsLinked:    familyCode != nil,
	})
}

// createUser creates the identity record for a registration call using the
// given (transaction-bound) repository.
func (s *authService) createUser(ctx context.Context, userRepo repositories.IUserRepository, username, email, password, name string, role models.RoleType) (*models.User, error) {
	if exists, err := userRepo.UsernameExists(ctx, username); err != nil {
		return nil, err
	} else if exists {
		return nil, apperrors.ErrUsernameAlreadyExists
	}
	if exists, err := userRepo.EmailExists(ctx, email); err != nil {
		return nil, err
	} else if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Name:     name,
		UserType: &role,
		IsActive: true,
	}

	id, err := userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	return userRepo.GetUserByID(ctx, id)
}

// issueCredentials mints the opaque token and session token for a freshly
// registered user and assembles the login payload.
func (s *authService) issueCredentials(ctx context.Context, user *models.User, profile interface{}) (*dto.LoginResponse, string, error) {
	token, err := s.obtainToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	sessionToken, err := s.jwtService.GenerateSessionToken(user)
	if err != nil {
		return nil, "", err
	}

	logger.Info().Int64("userID", user.ID).Str("username", user.Username).Str("role", string(user.Role())).Msg("User registered")

	return &dto.LoginResponse{
		Message: "Registration successful",
		Token:   token,
		User:    dto.NewUserSummary(user),
		Profile: profile,
	}, sessionToken, nil
}
