package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/security"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAccessExp  = "1h"
	testRefreshExp = "24h"
	testSecret     = "test-secret-key-for-jwt"
	testPassword   = "password123"
)

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUserRepo struct {
	users  map[string]user.User // by email
	linked []string
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	u, ok := f.users[email]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (user.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUserRepo) ListByRoles(context.Context, ...user.Role) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) LinkGoogleAccount(_ context.Context, googleID string, email string) (user.User, error) {
	u := f.users[email]
	provider := "google"
	u.OAuthProvider = &provider
	u.OAuthProviderID = &googleID
	f.users[email] = u
	f.linked = append(f.linked, email)
	return u, nil
}

type storedToken struct {
	userID  string
	revoked bool
	session auth.SessionTrackingRequest
}

type fakeTokenRepo struct {
	tokens map[string]*storedToken
}

func (f *fakeTokenRepo) CreateRefreshToken(_ context.Context, userID string, token string, _ int64, session auth.SessionTrackingRequest) error {
	f.tokens[token] = &storedToken{userID: userID, session: session}
	return nil
}

func (f *fakeTokenRepo) IsRefreshTokenRevoked(_ context.Context, token string) (string, bool, error) {
	t, ok := f.tokens[token]
	if !ok {
		return "", false, auth.ErrInvalidToken
	}
	return t.userID, t.revoked, nil
}

func (f *fakeTokenRepo) RevokeRefreshToken(_ context.Context, token string) error {
	if t, ok := f.tokens[token]; ok {
		t.revoked = true
	}
	return nil
}

type fakeSecurity struct {
	attempts []security.LoginAttempt
	level    security.RiskLevel
	err      error
}

func (f *fakeSecurity) AssessLogin(_ context.Context, attempt security.LoginAttempt) (security.RiskAssessment, error) {
	f.attempts = append(f.attempts, attempt)
	if f.err != nil {
		return security.RiskAssessment{}, f.err
	}
	return security.RiskAssessment{Level: f.level}, nil
}

func (f *fakeSecurity) ListAlerts(context.Context, security.AlertFilter) (security.ListAlertsResponse, error) {
	return security.ListAlertsResponse{}, nil
}

func (f *fakeSecurity) Subscribe(context.Context, string) (<-chan security.AlertEvent, func()) {
	return nil, func() {}
}

func (f *fakeSecurity) Stop() {}

type fixture struct {
	svc      *AuthServiceImpl
	jwt      jwt.Service
	users    *fakeUserRepo
	tokens   *fakeTokenRepo
	security *fakeSecurity
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	hashed := string(hash)
	employeeID, outletID := "emp-1", "outlet-1"
	googleID := "google-123"

	users := &fakeUserRepo{users: map[string]user.User{
		"barista@cafe.test": {
			ID: "user-1", Email: "barista@cafe.test", PasswordHash: &hashed,
			Role: user.RoleStaff, EmployeeID: &employeeID, OutletID: &outletID,
		},
		"owner@cafe.test": {ID: "user-2", Email: "owner@cafe.test", Role: user.RoleSuperAdmin},
		"linked@cafe.test": {
			ID: "user-3", Email: "linked@cafe.test", Role: user.RoleAdmin, OAuthProviderID: &googleID,
		},
	}}
	tokens := &fakeTokenRepo{tokens: map[string]*storedToken{}}
	sec := &fakeSecurity{level: security.RiskLow}
	jwtService := jwt.NewJWTService(testSecret, testAccessExp, testRefreshExp)

	svc := NewAuthService(passthroughTx{}, users, jwtService, tokens, sec).(*AuthServiceImpl)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }

	return fixture{svc: svc, jwt: jwtService, users: users, tokens: tokens, security: sec}
}

func claimsOf(t *testing.T, svc jwt.Service, token string) jwt.AccessClaims {
	t.Helper()
	parsed, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)
	claims, err := jwt.ClaimsFromContext(jwtauth.NewContext(context.Background(), parsed, nil))
	require.NoError(t, err)
	return claims
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	session := auth.SessionTrackingRequest{UserAgent: "test-agent", IPAddress: "10.0.0.1"}
	lat, lng := -6.2, 106.8

	resp, err := f.svc.Login(context.Background(), auth.LoginRequest{
		Email:    "barista@cafe.test",
		Password: testPassword,
		Location: &security.Location{Country: "ID", City: "Jakarta", Latitude: &lat, Longitude: &lng},
	}, session)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, security.RiskLow, resp.RiskLevel)

	claims := claimsOf(t, f.jwt, resp.AccessToken)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, user.RoleStaff, claims.Role)
	assert.Equal(t, "emp-1", claims.EmployeeIDOrEmpty())
	assert.Equal(t, "outlet-1", claims.OutletIDOrEmpty())

	stored := f.tokens.tokens[resp.RefreshToken]
	require.NotNil(t, stored)
	assert.Equal(t, "user-1", stored.userID)
	assert.Equal(t, "10.0.0.1", stored.session.IPAddress)

	require.Len(t, f.security.attempts, 1)
	attempt := f.security.attempts[0]
	assert.Equal(t, "user-1", attempt.UserID)
	assert.Equal(t, "Jakarta", attempt.Location.City)
	assert.Equal(t, "test-agent", attempt.UserAgent)
	assert.Equal(t, f.svc.now(), attempt.At)
}

func TestLogin_ReportsHighRisk(t *testing.T) {
	f := newFixture(t)
	f.security.level = security.RiskHigh

	resp, err := f.svc.Login(context.Background(), auth.LoginRequest{Email: "barista@cafe.test", Password: testPassword}, auth.SessionTrackingRequest{})
	require.NoError(t, err)
	assert.Equal(t, security.RiskHigh, resp.RiskLevel)
}

func TestLogin_AssessmentFailureDoesNotBlockLogin(t *testing.T) {
	f := newFixture(t)
	f.security.err = errors.New("db down")

	resp, err := f.svc.Login(context.Background(), auth.LoginRequest{Email: "barista@cafe.test", Password: testPassword}, auth.SessionTrackingRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Empty(t, resp.RiskLevel)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@cafe.test", testPassword},
		{"wrong password", "barista@cafe.test", "wrongpassword"},
		{"account without password", "owner@cafe.test", testPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Login(context.Background(), auth.LoginRequest{Email: tt.email, Password: tt.password}, auth.SessionTrackingRequest{})
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
			assert.Empty(t, f.tokens.tokens)
			assert.Empty(t, f.security.attempts)
		})
	}
}

func TestLogin_ValidationError(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Login(context.Background(), auth.LoginRequest{Email: "not-an-email", Password: "short"}, auth.SessionTrackingRequest{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginWithGoogle(t *testing.T) {
	t.Run("links existing account on first sign-in", func(t *testing.T) {
		f := newFixture(t)
		resp, err := f.svc.LoginWithGoogle(context.Background(), "barista@cafe.test", "google-999", auth.SessionTrackingRequest{})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, []string{"barista@cafe.test"}, f.users.linked)
		assert.Len(t, f.security.attempts, 1)
	})

	t.Run("already linked account", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.LoginWithGoogle(context.Background(), "linked@cafe.test", "google-123", auth.SessionTrackingRequest{})
		require.NoError(t, err)
		assert.Empty(t, f.users.linked)
	})

	t.Run("different google account", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.LoginWithGoogle(context.Background(), "linked@cafe.test", "google-other", auth.SessionTrackingRequest{})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.LoginWithGoogle(context.Background(), "stranger@gmail.com", "google-1", auth.SessionTrackingRequest{})
		assert.ErrorIs(t, err, auth.ErrGoogleAccountNotFound)
	})
}

func TestRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, auth.LoginRequest{Email: "barista@cafe.test", Password: testPassword}, auth.SessionTrackingRequest{})
	require.NoError(t, err)

	resp, err := f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "user-1", claimsOf(t, f.jwt, resp.AccessToken).UserID)

	// an access token is not a refresh token
	_, err = f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{RefreshToken: login.AccessToken})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{RefreshToken: "garbage"})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRefreshToken_UnknownToken(t *testing.T) {
	f := newFixture(t)

	token, _, err := f.jwt.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	_, err = f.svc.RefreshToken(context.Background(), auth.RefreshTokenRequest{RefreshToken: token})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, auth.LoginRequest{Email: "barista@cafe.test", Password: testPassword}, auth.SessionTrackingRequest{})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, login.RefreshToken))
	assert.True(t, f.tokens.tokens[login.RefreshToken].revoked)

	_, err = f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, auth.ErrRefreshTokenRevoked)

	// second logout and unknown tokens are no-ops
	assert.NoError(t, f.svc.Logout(ctx, login.RefreshToken))
	assert.NoError(t, f.svc.Logout(ctx, "unknown"))
}

func TestRefreshToken_RevokedInDatabase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, auth.LoginRequest{Email: "barista@cafe.test", Password: testPassword}, auth.SessionTrackingRequest{})
	require.NoError(t, err)
	f.tokens.tokens[login.RefreshToken].revoked = true

	_, err = f.svc.RefreshToken(ctx, auth.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, auth.ErrRefreshTokenRevoked)
}
