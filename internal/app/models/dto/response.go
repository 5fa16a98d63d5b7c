package dto

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// APIResponse is the envelope for successful requests.
type APIResponse struct {
	Data interface{} `json:"data"`
}

// SuccessResponse wraps data into the standard success envelope
func SuccessResponse(data interface{}) APIResponse {
	return APIResponse{Data: data}
}

// PaginationInfo carries page metadata for list responses.
type PaginationInfo struct {
	CurrentPage int   `json:"current_page" example:"1"`
	PageSize    int   `json:"page_size" example:"10"`
	TotalItems  int64 `json:"total_items" example:"42"`
	TotalPages  int   `json:"total_pages" example:"5"`
}

// PagedResponse is a list payload together with its pagination metadata.
type PagedResponse struct {
	Items      interface{}    `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}

// HandleValidationError converts binding failures into a 400 response with
// per-field messages when the error came from the validator.
func HandleValidationError(c *gin.Context, err error) {
	detail := NewErrorDetail(ErrorCodeValidationFailed, "Validation failed")

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, fieldErr := range validationErrors {
			fields[fieldErr.Field()] = validationMessage(fieldErr)
		}
		detail = detail.WithFields(fields)
	} else {
		detail.Message = "Invalid request body"
	}

	c.JSON(http.StatusBadRequest, NewErrorResponse(detail))
}

func validationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fieldErr.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fieldErr.Param())
	case "len":
		return fmt.Sprintf("Must be exactly %s characters", fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fieldErr.Param())
	default:
		return fmt.Sprintf("Failed validation: %s", fieldErr.Tag())
	}
}
