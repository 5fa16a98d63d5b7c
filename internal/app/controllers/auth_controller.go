package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emre/famlink/internal/app/models/dto"
	"github.com/emre/famlink/internal/app/services"
	"github.com/emre/famlink/internal/middleware"
	"github.com/emre/famlink/internal/pkg/auth"
)

// AuthController handles login, logout, registration and current-user requests
type AuthController struct {
	authService services.IAuthService
	jwtService  *auth.JWTService
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.IAuthService, jwtService *auth.JWTService) *AuthController {
	return &AuthController{
		authService: authService,
		jwtService:  jwtService,
	}
}

// Login godoc
// @Summary Log in
// @Description Authenticates with username and password, returning an API token and a role-specific profile summary. Also sets the session cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse}
// @Failure 400 {object} dto.ErrorResponse "Missing username or password"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (ctrl *AuthController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.HandleValidationError(c, err)
		return
	}

	resp, sessionToken, err := ctrl.authService.Login(c.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	ctrl.setSessionCookie(c, sessionToken)
	c.JSON(http.StatusOK, dto.SuccessResponse(resp))
}

// Logout godoc
// @Summary Log out
// @Description Revokes the caller's API tokens and clears the session cookie, whichever credential authenticated the request.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.LogoutResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/logout [post]
func (ctrl *AuthController) Logout(c *gin.Context) {
	if err := ctrl.authService.Logout(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	ctrl.clearSessionCookie(c)
	c.JSON(http.StatusOK, dto.SuccessResponse(dto.LogoutResponse{Message: "Logged out"}))
}

// Me godoc
// @Summary Current user
// @Description Returns the authenticated user's identity and freshly resolved role profile; profile is null when no profile row exists.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.MeResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (ctrl *AuthController) Me(c *gin.Context) {
	resp, err := ctrl.authService.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(resp))
}

// RegisterParent godoc
// @Summary Register a parent
// @Description Creates a parent account with a freshly generated family code and logs the new user in.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterParentRequest true "Parent registration"
// @Success 201 {object} dto.APIResponse{data=dto.LoginResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Username or email already exists"
// @Router /auth/register/parent [post]
func (ctrl *AuthController) RegisterParent(c *gin.Context) {
	var req dto.RegisterParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.HandleValidationError(c, err)
		return
	}

	resp, sessionToken, err := ctrl.authService.RegisterParent(c.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	ctrl.setSessionCookie(c, sessionToken)
	c.JSON(http.StatusCreated, dto.SuccessResponse(resp))
}

// RegisterStudent godoc
// @Summary Register a student
// @Description Creates a student account with a freshly generated student code and logs the new user in. A supplied family code links the student immediately.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterStudentRequest true "Student registration"
// @Success 201 {object} dto.APIResponse{data=dto.LoginResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Unknown family code"
// @Failure 409 {object} dto.ErrorResponse "Username or email already exists"
// @Router /auth/register/student [post]
func (ctrl *AuthController) RegisterStudent(c *gin.Context) {
	var req dto.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.HandleValidationError(c, err)
		return
	}

	resp, sessionToken, err := ctrl.authService.RegisterStudent(c.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	ctrl.setSessionCookie(c, sessionToken)
	c.JSON(http.StatusCreated, dto.SuccessResponse(resp))
}

func (ctrl *AuthController) setSessionCookie(c *gin.Context, sessionToken string) {
	c.SetCookie(
		middleware.SessionCookieName,
		sessionToken,
		int(ctrl.jwtService.SessionExpiry().Seconds()),
		"/",
		"",
		false,
		true,
	)
}

func (ctrl *AuthController) clearSessionCookie(c *gin.Context) {
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
}
