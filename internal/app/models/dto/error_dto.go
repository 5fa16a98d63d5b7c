package dto

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

const (
	// Auth errors
	ErrorCodeInvalidCredentials ErrorCode = "AUTH_001"
	ErrorCodeTokenExpired       ErrorCode = "AUTH_002"
	ErrorCodeTokenInvalid       ErrorCode = "AUTH_003"
	ErrorCodeAccountDisabled    ErrorCode = "AUTH_004"
	ErrorCodeUnauthorized       ErrorCode = "AUTH_005"
	ErrorCodeForbidden          ErrorCode = "AUTH_006"

	// Resource errors
	ErrorCodeResourceNotFound ErrorCode = "RES_001"
	ErrorCodeResourceExists   ErrorCode = "RES_002"

	// Validation errors
	ErrorCodeValidationFailed ErrorCode = "VAL_001"
	ErrorCodeInvalidFormat    ErrorCode = "VAL_002"

	// Server errors
	ErrorCodeInternalServer ErrorCode = "SRV_001"
)

// ErrorDetail describes a single error in a response body.
type ErrorDetail struct {
	Code    ErrorCode         `json:"code" example:"VAL_001"`
	Message string            `json:"message" example:"Validation failed"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse is the envelope for failed requests.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// NewErrorDetail creates an ErrorDetail
func NewErrorDetail(code ErrorCode, message string) ErrorDetail {
	return ErrorDetail{Code: code, Message: message}
}

// WithFields attaches per-field validation messages to the detail.
func (d ErrorDetail) WithFields(fields map[string]string) ErrorDetail {
	d.Fields = fields
	return d
}

// NewErrorResponse wraps an ErrorDetail into a response envelope
func NewErrorResponse(detail ErrorDetail) ErrorResponse {
	return ErrorResponse{Error: detail}
}
