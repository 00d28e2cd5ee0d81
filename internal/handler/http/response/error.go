package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/security"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var denied *attendance.PolicyDeniedError
	if errors.As(err, &denied) {
		Forbidden(w, denied.Reason)
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, jwt.ErrMissingClaims):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrRefreshTokenRevoked):
		Unauthorized(w, "Refresh token revoked")
	case errors.Is(err, auth.ErrGoogleAccountNotFound):
		Forbidden(w, err.Error())
	case errors.Is(err, auth.ErrGoogleLoginDisabled):
		NotFound(w, err.Error())
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrUserEmailExists), errors.Is(err, user.ErrOAuthProviderIDExists):
		Conflict(w, err.Error())

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Conflict(w, err.Error())
	case errors.Is(err, employee.ErrNoEmployeeForAccount), errors.Is(err, attendance.ErrNoEmployeeProfile):
		Forbidden(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrAlreadyClockedIn),
		errors.Is(err, attendance.ErrNotClockedIn),
		errors.Is(err, attendance.ErrAlreadyClockedOut):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrInvalidMonth):
		BadRequest(w, err.Error(), nil)

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayrollRecordNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, payroll.ErrPayrollRecordAlreadyPaid):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrNothingToExport):
		NotFound(w, err.Error())
	case errors.Is(err, payroll.ErrInvalidPeriod), errors.Is(err, payroll.ErrEmployeeHasNoBaseSalary):
		BadRequest(w, err.Error(), nil)

	// Security
	case errors.Is(err, security.ErrAlertNotFound):
		NotFound(w, "Security alert not found")

	// Files
	case errors.Is(err, storage.ErrFileNotFound):
		NotFound(w, "File not found")
	case errors.Is(err, storage.ErrInvalidPath):
		BadRequest(w, "Invalid file path", nil)

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
