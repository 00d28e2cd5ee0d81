package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/validator"
)

const (
	ReasonFutureDate     = "cannot mark beyond today"
	ReasonRecordLocked   = "record is locked"
	ReasonSuperAdminOnly = "only Super Admin can override"
	ReasonTooShort       = "reason must be at least 5 characters"

	minEditReasonLength = 5
	superAdminRole      = "super admin"
)

// Decision is the outcome of a permission check. Reason is empty when Allowed.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// IsDateInFuture reports whether the calendar day of date is after the calendar day of now.
// Each value is read in its own location; time of day is ignored.
func IsDateInFuture(date, now time.Time) bool {
	dy, dm, dd := date.Date()
	ny, nm, nd := now.Date()
	return civilDay(dy, dm, dd).After(civilDay(ny, nm, nd))
}

func civilDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isSuperAdmin(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), superAdminRole)
}

// CanEditAttendance checks, in order, the date, the lock and the role.
// The first failing check decides the reason.
func CanEditAttendance(role string, date time.Time, isLocked bool, now time.Time) Decision {
	if IsDateInFuture(date, now) {
		return deny(ReasonFutureDate)
	}
	if isLocked {
		return deny(ReasonRecordLocked)
	}
	if !isSuperAdmin(role) {
		return deny(ReasonSuperAdminOnly)
	}
	return allow()
}

// CanDeleteAttendance applies the lock and role checks of CanEditAttendance without the date check.
func CanDeleteAttendance(role string, isLocked bool) Decision {
	if isLocked {
		return deny(ReasonRecordLocked)
	}
	if !isSuperAdmin(role) {
		return deny(ReasonSuperAdminOnly)
	}
	return allow()
}

// EditInput is the payload of an administrative attendance correction.
type EditInput struct {
	Date   time.Time
	Status string
	Reason string
}

// EditValidation lists every violation found; Valid is true only when Errors is empty.
type EditValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateAttendanceEdit runs every check and collects all violations.
func ValidateAttendanceEdit(in EditInput, now time.Time) EditValidation {
	errs := EditErrors(in, now)
	return EditValidation{
		Valid:  len(errs) == 0,
		Errors: errs.Messages(),
	}
}

// EditErrors is ValidateAttendanceEdit in field-addressed form.
func EditErrors(in EditInput, now time.Time) validator.ValidationErrors {
	errs := validator.ValidationErrors{}

	if IsDateInFuture(in.Date, now) {
		errs = append(errs, validator.ValidationError{Field: "date", Message: ReasonFutureDate})
	}
	if len([]rune(strings.TrimSpace(in.Reason))) < minEditReasonLength {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: ReasonTooShort})
	}

	return errs
}
