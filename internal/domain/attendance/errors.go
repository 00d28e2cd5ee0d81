package attendance

import "errors"

// Attendance domain errors
var (
	// Clock-in errors
	ErrAlreadyClockedIn  = errors.New("you have already clocked in today")
	ErrNotClockedIn      = errors.New("you have not clocked in yet")
	ErrAlreadyClockedOut = errors.New("you have already clocked out")
	ErrNoEmployeeProfile = errors.New("no employee profile linked to this account")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrInvalidMonth       = errors.New("month must be in YYYY-MM format")
)

// PolicyDeniedError carries the reason a mutation was refused by the attendance policy.
type PolicyDeniedError struct {
	Reason string
}

func (e *PolicyDeniedError) Error() string {
	return "attendance change not allowed: " + e.Reason
}

// DeniedError converts a refused Decision into an error; it returns nil when allowed.
func DeniedError(d Decision) error {
	if d.Allowed {
		return nil
	}
	return &PolicyDeniedError{Reason: d.Reason}
}
