package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	appControllers "github.com/emre/famlink/internal/app/controllers"
	appMigrations "github.com/emre/famlink/internal/app/migrations"
	appRepos "github.com/emre/famlink/internal/app/repositories"
	appRoutes "github.com/emre/famlink/internal/app/routes"
	appServices "github.com/emre/famlink/internal/app/services"
	"github.com/emre/famlink/internal/config"
	"github.com/emre/famlink/internal/db"
	appMiddleware "github.com/emre/famlink/internal/middleware"
	pkgAuth "github.com/emre/famlink/internal/pkg/auth"
	"github.com/emre/famlink/internal/pkg/helpers"
	"github.com/emre/famlink/internal/pkg/logger"
	"github.com/emre/famlink/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Services          *appServices.Services
	AuthController    *appControllers.AuthController
	UserController    *appControllers.UserController
	ParentController  *appControllers.ParentController
	StudentController *appControllers.StudentController
	AuthMiddleware    *appMiddleware.AuthMiddleware
	Repos             *appRepos.Repositories
	JWTService        *pkgAuth.JWTService
	Logger            zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds default data.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(context.Background(), dbPool, cfg, lgr); err != nil {
		// Log the error but don't fail the startup
		lgr.Error().Err(err).Msg("Failed to seed default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:  cfg.JWT.Secret,
		SessionExp: helpers.ParseDuration(cfg.JWT.SessionExpiration, 12*time.Hour),
		Issuer:     cfg.JWT.Issuer,
	})

	tokenExpiration := helpers.ParseDuration(cfg.Auth.TokenExpiration, 720*time.Hour)
	database := &db.PostgresDB{Pool: dbPool}
	deps.Services = appServices.NewServices(deps.Repos, database, deps.JWTService, tokenExpiration)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(
		deps.Repos.TokenRepository,
		deps.Repos.UserRepository,
		deps.JWTService,
	)

	deps.AuthController = appControllers.NewAuthController(deps.Services.AuthService, deps.JWTService)
	deps.UserController = appControllers.NewUserController(deps.Services.UserService)
	deps.ParentController = appControllers.NewParentController(deps.Services.ParentService)
	deps.StudentController = appControllers.NewStudentController(deps.Services.StudentService)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger())

	// Swagger UI; doc.json is generated from the handler annotations by swag init
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json"), ginSwagger.DefaultModelsExpandDepth(1)))

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.UserController,
		deps.ParentController,
		deps.StudentController,
		deps.AuthMiddleware,
	)

	return router
}
