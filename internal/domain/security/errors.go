package security

import "errors"

var (
	ErrAlertNotFound   = errors.New("security alert not found")
	ErrInvalidLocation = errors.New("invalid login location")
)
