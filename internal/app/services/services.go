package services

import (
	"context"
	"time"

	"github.com/emre/famlink/internal/app/repositories"
	"github.com/emre/famlink/internal/db"
	"github.com/emre/famlink/internal/pkg/auth"
)

// TxManager runs a function inside a single database transaction.
// *db.PostgresDB satisfies it.
type TxManager interface {
	WithTransaction(ctx context.Context, fn db.TransactionFn) error
}

// Services holds all the service instances
type Services struct {
	AuthService    IAuthService
	UserService    IUserService
	ParentService  IParentService
	StudentService IStudentService
}

// NewServices initializes all services
func NewServices(repos *repositories.Repositories, txm TxManager, jwtService *auth.JWTService, tokenExpiration time.Duration) *Services {
	studentService := NewStudentService(repos.StudentRepository, repos.ParentRepository)
	parentService := NewParentService(repos.ParentRepository, repos.StudentRepository)

	return &Services{
		AuthService: NewAuthService(
			repos.UserRepository,
			repos.ParentRepository,
			repos.StudentRepository,
			repos.TokenRepository,
			txm,
			jwtService,
			tokenExpiration,
		),
		UserService:    NewUserService(repos.UserRepository),
		ParentService:  parentService,
		StudentService: studentService,
	}
}
