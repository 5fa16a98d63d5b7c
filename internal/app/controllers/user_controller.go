package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emre/famlink/internal/app/models/dto"
	"github.com/emre/famlink/internal/app/services"
	"github.com/emre/famlink/internal/middleware"
	"github.com/emre/famlink/internal/pkg/helpers"
)

// UserController handles admin identity CRUD requests
type UserController struct {
	userService services.IUserService
}

// NewUserController creates a new UserController
func NewUserController(userService services.IUserService) *UserController {
	return &UserController{userService: userService}
}

// ListUsers godoc
// @Summary List users
// @Description Returns a page of users, newest first. Page size defaults to 10 and caps at 100.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)" default(1)
// @Param page-size query int false "Items per page" default(10) maximum(100)
// @Success 200 {object} dto.APIResponse{data=dto.PagedResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /users [get]
func (ctrl *UserController) ListUsers(c *gin.Context) {
	page, size := helpers.ParsePaginationParams(c)

	users, total, err := ctrl.userService.ListUsers(c.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(dto.PagedResponse{
		Items:      dto.NewUserListResponse(users),
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}))
}

// CreateUser godoc
// @Summary Create a user
// @Description Creates an identity record. The role tag is optional and may be assigned later.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "User"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Username or email already exists"
// @Router /users [post]
func (ctrl *UserController) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.HandleValidationError(c, err)
		return
	}

	user, err := ctrl.userService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SuccessResponse(dto.NewUserResponse(user)))
}

// GetUser godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /users/{username} [get]
func (ctrl *UserController) GetUser(c *gin.Context) {
	user, err := ctrl.userService.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(dto.NewUserResponse(user)))
}

// UpdateUser godoc
// @Summary Update a user
// @Description Applies the provided fields; omitted fields keep their stored value, so the same body serves PUT and PATCH.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Param request body dto.UpdateUserRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /users/{username} [put]
func (ctrl *UserController) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.HandleValidationError(c, err)
		return
	}

	user, err := ctrl.userService.UpdateUser(c.Request.Context(), c.Param("username"), &req)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(dto.NewUserResponse(user)))
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Deletes a user and its profile row. Students referencing a deleted parent's family code keep the stored code and resolve as unlinked.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse
// @Router /users/{username} [delete]
func (ctrl *UserController) DeleteUser(c *gin.Context) {
	if err := ctrl.userService.DeleteUser(c.Request.Context(), c.Param("username")); err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
