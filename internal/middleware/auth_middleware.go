package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emre/famlink/internal/app/models"
	"github.com/emre/famlink/internal/app/models/dto"
	"github.com/emre/famlink/internal/app/repositories"
	"github.com/emre/famlink/internal/pkg/auth"
	"github.com/emre/famlink/internal/pkg/logger"
)

// Context keys set by the auth middleware.
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextRoleType = "roleType"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "famlink_session"

// AuthMiddleware authenticates requests via either credential the service
// issues: the opaque DB-backed bearer token in the Authorization header, or
// the signed session cookie.
type AuthMiddleware struct {
	tokenRepo  repositories.ITokenRepository
	userRepo   repositories.IUserRepository
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokenRepo repositories.ITokenRepository, userRepo repositories.IUserRepository, jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenRepo:  tokenRepo,
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// Authenticate rejects the request unless a usable credential is presented.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			m.authenticateBearer(c, authHeader)
			return
		}

		if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
			m.authenticateSession(c, cookie)
			return
		}

		abortUnauthorized(c, "Authentication required")
	}
}

func (m *AuthMiddleware) authenticateBearer(c *gin.Context, authHeader string) {
	token, err := auth.ExtractBearerToken(authHeader)
	if err != nil {
		abortUnauthorized(c, "Invalid authorization header")
		return
	}

	userID, err := m.tokenRepo.GetUserIDByToken(c.Request.Context(), token)
	if err != nil {
		logger.Debug().Err(err).Msg("Bearer token rejected")
		abortUnauthorized(c, "Invalid or expired token")
		return
	}

	user, err := m.userRepo.GetUserByID(c.Request.Context(), userID)
	if err != nil || !user.IsActive {
		abortUnauthorized(c, "Invalid or expired token")
		return
	}

	c.Set(ContextUserID, user.ID)
	c.Set(ContextUsername, user.Username)
	c.Set(ContextRoleType, string(user.Role()))
	c.Next()
}

func (m *AuthMiddleware) authenticateSession(c *gin.Context, cookie string) {
	claims, err := m.jwtService.ValidateToken(cookie)
	if err != nil {
		logger.Debug().Err(err).Msg("Session token rejected")
		abortUnauthorized(c, "Invalid or expired session")
		return
	}

	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextRoleType, claims.RoleType)
	c.Next()
}

// RequireRole allows the request through only when the authenticated user
// holds one of the given roles. Must run after Authenticate.
func RequireRole(roles ...models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleValue, exists := c.Get(ContextRoleType)
		if !exists {
			abortUnauthorized(c, "Authentication required")
			return
		}

		role := models.RoleType(roleValue.(string))
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeForbidden, "Insufficient permissions")))
	}
}

// GetUserID returns the authenticated user's ID from the request context.
func GetUserID(c *gin.Context) int64 {
	if v, exists := c.Get(ContextUserID); exists {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeUnauthorized, message)))
}
