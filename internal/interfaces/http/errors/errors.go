package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Code          string   `json:"code"`
	Error         string   `json:"error"`
	RequiredRoles []string `json:"required_roles,omitempty"`
	UserRoles     []string `json:"user_roles,omitempty"`
}

// Error codes
const (
	ErrCodeMissingToken     = "MISSING_TOKEN"
	ErrCodeInvalidToken     = "INVALID_TOKEN"
	ErrCodeNotAuthenticated = "NOT_AUTHENTICATED"
	ErrCodeInsufficientRole = "INSUFFICIENT_ROLE"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// RespondWithError sends a standardized error response
func RespondWithError(w http.ResponseWriter, code string, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:  code,
		Error: message,
	})
}

// RespondWithRoleError sends a forbidden response naming the required roles
// and the roles the caller actually holds. The caller is already
// authenticated at this point, so the disclosure is intentional.
func RespondWithRoleError(w http.ResponseWriter, required, actual []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:          ErrCodeInsufficientRole,
		Error:         "insufficient role",
		RequiredRoles: required,
		UserRoles:     actual,
	})
}
