package auth

import (
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/security"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/validator"
)

type LoginRequest struct {
	Email    string             `json:"email"`
	Password string             `json:"password"`
	Location *security.Location `json:"location,omitempty"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	// Email
	if validator.IsEmpty(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is required",
		})
	} else if len(r.Email) > 254 {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email must not exceed 254 characters",
		})
	} else if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email must be a valid email address",
		})
	}

	// Password
	if validator.IsEmpty(r.Password) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password is required",
		})
	} else if len(r.Password) < 8 {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password must be at least 8 characters long",
		})
	} else if len(r.Password) > 255 {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password must not exceed 255 characters",
		})
	}

	if r.Location != nil {
		if err := r.Location.Validate(); err != nil {
			if locErrs, ok := err.(validator.ValidationErrors); ok {
				errs = append(errs, locErrs...)
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshTokenRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RefreshToken) {
		errs = append(errs, validator.ValidationError{
			Field:   "refresh_token",
			Message: "refresh_token is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// SessionTrackingRequest describes the client a session was opened from.
type SessionTrackingRequest struct {
	UserAgent string
	IPAddress string
	Location  security.Location
}

type TokenResponse struct {
	AccessToken           string             `json:"access_token"`
	AccessTokenExpiresIn  int64              `json:"access_token_expires_in"`
	RefreshToken          string             `json:"refresh_token"`
	RefreshTokenExpiresIn int64              `json:"refresh_token_expires_in"`
	RiskLevel             security.RiskLevel `json:"risk_level"`
}

type AccessTokenResponse struct {
	AccessToken          string `json:"access_token"`
	AccessTokenExpiresIn int64  `json:"access_token_expires_in"`
}
