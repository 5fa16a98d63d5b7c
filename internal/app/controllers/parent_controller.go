package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emre/famlink/internal/app/models"
	"github.com/emre/famlink/internal/app/models/dto"
	"github.com/emre/famlink/internal/app/services"
	"github.com/emre/famlink/internal/middleware"
	"github.com/emre/famlink/internal/pkg/apperrors"
)

// ParentController handles the parent-facing family endpoints
type ParentController struct {
	parentService services.IParentService
}

// NewParentController creates a new ParentController
func NewParentController(parentService services.IParentService) *ParentController {
	return &ParentController{parentService: parentService}
}

// GetProfile godoc
// @Summary Own parent profile
// @Description Returns the authenticated parent's profile with the live student count.
// @Tags parents
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ParentResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "No parent profile for this user"
// @Router /parents/me [get]
func (ctrl *ParentController) GetProfile(c *gin.Context) {
	parent, count, err := ctrl.parentService.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(dto.NewParentResponse(parent, count)))
}

// UpdateProfile godoc
// @Summary Update own parent profile
// @Description Updates contact details and notification preferences. The family code never changes.
// @Tags parents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateParentRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.ParentResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /parents/me [put]
func (ctrl *ParentController) UpdateProfile(c *gin.Context) {
	var req dto.UpdateParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.HandleValidationError(c, err)
		return
	}

	parent, count, err := ctrl.parentService.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(dto.NewParentResponse(parent, count)))
}

// GetStudents godoc
// @Summary Own students
// @Description Returns every student whose stored code matches the parent's family code. Siblings share one code.
// @Tags parents
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.StudentResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /parents/me/students [get]
func (ctrl *ParentController) GetStudents(c *gin.Context) {
	students, err := ctrl.parentService.GetStudents(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	// These students matched the parent's live code, so they are linked.
	responses := dto.NewStudentListResponse(students, func(_ *models.Student) bool { return true })
	c.JSON(http.StatusOK, dto.SuccessResponse(responses))
}

// CheckStudent godoc
// @Summary Check a student link
// @Description Reports whether the given student's stored family code matches the authenticated parent's code.
// @Tags parents
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Student user ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentCheckResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Parent profile or student not found"
// @Router /parents/me/students/{userId}/check [get]
func (ctrl *ParentController) CheckStudent(c *gin.Context) {
	studentUserID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		middleware.HandleAPIError(c, apperrors.NewBadRequestError("userId must be an integer"))
		return
	}

	valid, err := ctrl.parentService.CheckStudent(c.Request.Context(), middleware.GetUserID(c), studentUserID)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(dto.StudentCheckResponse{
		StudentUserID: studentUserID,
		Valid:         valid,
	}))
}
