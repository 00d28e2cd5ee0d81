package auth

import (
	"testing"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/security"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRequest_Validate(t *testing.T) {
	valid := LoginRequest{Email: "chef@cafe.test", Password: "password123"}
	assert.NoError(t, valid.Validate())

	bad := LoginRequest{Email: "not-an-email", Password: "short"}
	err := bad.Validate()
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := verrs.ToMap()
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestLoginRequest_ValidateLocation(t *testing.T) {
	lat := 120.0
	req := LoginRequest{
		Email:    "chef@cafe.test",
		Password: "password123",
		Location: &security.Location{Country: "ID", Latitude: &lat},
	}

	var verrs validator.ValidationErrors
	require.ErrorAs(t, req.Validate(), &verrs)
	assert.Contains(t, verrs.ToMap(), "location.latitude")
}

func TestRefreshTokenRequest_Validate(t *testing.T) {
	assert.Error(t, (&RefreshTokenRequest{}).Validate())
	assert.NoError(t, (&RefreshTokenRequest{RefreshToken: "abc"}).Validate())
}
