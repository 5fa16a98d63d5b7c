package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emre/famlink/internal/app/models"
	"github.com/emre/famlink/internal/app/models/dto"
	"github.com/emre/famlink/internal/app/services"
	"github.com/emre/famlink/internal/middleware"
	"github.com/emre/famlink/internal/pkg/helpers"
)

// StudentController handles the student-facing family endpoints
type StudentController struct {
	studentService services.IStudentService
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.IStudentService) *StudentController {
	return &StudentController{studentService: studentService}
}

// GetProfile godoc
// @Summary Own student profile
// @Description Returns the authenticated student's profile. A stored family code whose parent no longer exists reads as unlinked.
// @Tags students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "No student profile for this user"
// @Router /students/me [get]
func (ctrl *StudentController) GetProfile(c *gin.Context) {
	student, linked, err := ctrl.studentService.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(dto.NewStudentResponse(student, linked)))
}

// Link godoc
// @Summary Link to a family
// @Description Stores the given family code on the student after verifying a parent holds it. Re-linking to the same code is a no-op success.
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.LinkRequest true "Family code"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Unknown family code"
// @Router /students/me/link [post]
func (ctrl *StudentController) Link(c *gin.Context) {
	var req dto.LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.HandleValidationError(c, err)
		return
	}

	student, err := ctrl.studentService.Link(c.Request.Context(), middleware.GetUserID(c), req.FamilyCode)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(dto.NewStudentResponse(student, true)))
}

// Unlink godoc
// @Summary Unlink from the family
// @Description Clears the student's stored family code. Unlinking an already unlinked student is a no-op success.
// @Tags students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /students/me/unlink [post]
func (ctrl *StudentController) Unlink(c *gin.Context) {
	student, err := ctrl.studentService.Unlink(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(dto.NewStudentResponse(student, false)))
}

// ListStudents godoc
// @Summary List students
// @Description Returns a page of students for administrators, optionally filtered by link state via ?linked=true|false.
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param linked query bool false "Filter by stored family code presence"
// @Param page query int false "Page number (1-based)" default(1)
// @Param page-size query int false "Items per page" default(10) maximum(100)
// @Success 200 {object} dto.APIResponse{data=dto.PagedResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /students [get]
func (ctrl *StudentController) ListStudents(c *gin.Context) {
	page, size := helpers.ParsePaginationParams(c)

	var linked *bool
	switch c.Query("linked") {
	case "true":
		v := true
		linked = &v
	case "false":
		v := false
		linked = &v
	}

	students, total, err := ctrl.studentService.ListStudents(c.Request.Context(), linked, page, size)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	// The filter partitions by stored-code presence; report that here rather
	// than resolving each code against live parents per row.
	responses := dto.NewStudentListResponse(students, func(s *models.Student) bool { return s.HasFamilyCode() })
	c.JSON(http.StatusOK, dto.SuccessResponse(dto.PagedResponse{
		Items:      responses,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}))
}
