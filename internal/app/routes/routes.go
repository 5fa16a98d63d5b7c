package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emre/famlink/internal/app/controllers"
	"github.com/emre/famlink/internal/app/models"
	"github.com/emre/famlink/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	userController *controllers.UserController,
	parentController *controllers.ParentController,
	studentController *controllers.StudentController,
	authMiddleware *middleware.AuthMiddleware,
) {
	api := router.Group("/api")

	// Health endpoint (public)
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- Public auth routes ---
	auth := api.Group("/auth")
	{
		auth.POST("/login", authController.Login)
		auth.POST("/register/parent", authController.RegisterParent)
		auth.POST("/register/student", authController.RegisterStudent)
	}

	// --- Authenticated routes ---
	authenticated := api.Group("")
	authenticated.Use(authMiddleware.Authenticate())
	{
		authenticated.POST("/auth/logout", authController.Logout)
		authenticated.GET("/auth/me", authController.Me)

		// Identity CRUD; creation and deletion are admin-only
		users := authenticated.Group("/users")
		{
			users.GET("", userController.ListUsers)
			users.GET("/:username", userController.GetUser)
			users.PUT("/:username", userController.UpdateUser)
			users.PATCH("/:username", userController.UpdateUser)

			usersAdmin := users.Group("")
			usersAdmin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				usersAdmin.POST("", userController.CreateUser)
				usersAdmin.DELETE("/:username", userController.DeleteUser)
			}
		}

		// Parent-facing family routes
		parents := authenticated.Group("/parents")
		parents.Use(middleware.RequireRole(models.RoleParent))
		{
			parents.GET("/me", parentController.GetProfile)
			parents.PUT("/me", parentController.UpdateProfile)
			parents.GET("/me/students", parentController.GetStudents)
			parents.GET("/me/students/:userId/check", parentController.CheckStudent)
		}

		// Student-facing family routes
		studentsMe := authenticated.Group("/students/me")
		studentsMe.Use(middleware.RequireRole(models.RoleStudent))
		{
			studentsMe.GET("", studentController.GetProfile)
			studentsMe.POST("/link", studentController.Link)
			studentsMe.POST("/unlink", studentController.Unlink)
		}

		// Admin partition queries over students
		studentsAdmin := authenticated.Group("/students")
		studentsAdmin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			studentsAdmin.GET("", studentController.ListStudents)
		}
	}
}
