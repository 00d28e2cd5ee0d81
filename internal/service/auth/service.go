package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/security"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceImpl struct {
	db database.Transactor
	user.UserRepository
	jwt.Service
	tokens   auth.RefreshTokenRepository
	security security.Service
	now      func() time.Time
}

func NewAuthService(db database.Transactor, userRepository user.UserRepository, jwtService jwt.Service, tokenRepository auth.RefreshTokenRepository, securityService security.Service) auth.AuthService {
	return &AuthServiceImpl{
		db:             db,
		UserRepository: userRepository,
		Service:        jwtService,
		tokens:         tokenRepository,
		security:       securityService,
		now:            time.Now,
	}
}

func claimsFor(u user.User) jwt.AccessClaims {
	return jwt.AccessClaims{
		UserID:     u.ID,
		Email:      u.Email,
		EmployeeID: u.EmployeeID,
		OutletID:   u.OutletID,
		Role:       u.Role,
	}
}

// issueTokens creates both tokens and persists the refresh token in one transaction.
func (a *AuthServiceImpl) issueTokens(ctx context.Context, u user.User, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	var tokenResponse auth.TokenResponse

	err := a.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		tokenResponse.AccessToken, tokenResponse.AccessTokenExpiresIn, err = a.Service.GenerateAccessToken(claimsFor(u))
		if err != nil {
			return fmt.Errorf("failed to create access token: %w", err)
		}
		tokenResponse.RefreshToken, tokenResponse.RefreshTokenExpiresIn, err = a.Service.GenerateRefreshToken(u.ID)
		if err != nil {
			return fmt.Errorf("failed to create refresh token: %w", err)
		}

		if err := a.tokens.CreateRefreshToken(txCtx, u.ID, tokenResponse.RefreshToken, tokenResponse.RefreshTokenExpiresIn, session); err != nil {
			return fmt.Errorf("failed to save refresh token to database: %w", err)
		}
		return nil
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}
	return tokenResponse, nil
}

// assess scores the login. A failure is logged and leaves the risk level empty
// so a broken alert pipeline never locks staff out.
func (a *AuthServiceImpl) assess(ctx context.Context, userID string, session auth.SessionTrackingRequest) security.RiskLevel {
	if a.security == nil {
		return ""
	}
	assessment, err := a.security.AssessLogin(ctx, security.LoginAttempt{
		UserID:    userID,
		IPAddress: session.IPAddress,
		UserAgent: session.UserAgent,
		Location:  session.Location,
		At:        a.now(),
	})
	if err != nil {
		slog.Error("login risk assessment error", "user_id", userID, "error", err)
		return ""
	}
	return assessment.Level
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, loginReq auth.LoginRequest, sessionTrackReq auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if err := loginReq.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}
	if loginReq.Location != nil {
		sessionTrackReq.Location = *loginReq.Location
	}

	userData, err := a.UserRepository.GetByEmail(ctx, loginReq.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !userData.HasPassword() {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*userData.PasswordHash), []byte(loginReq.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	tokenResponse, err := a.issueTokens(ctx, userData, sessionTrackReq)
	if err != nil {
		return auth.TokenResponse{}, err
	}
	tokenResponse.RiskLevel = a.assess(ctx, userData.ID, sessionTrackReq)

	return tokenResponse, nil
}

// LoginWithGoogle implements auth.AuthService. Only existing staff accounts may sign in;
// the first Google sign-in links the account.
func (a *AuthServiceImpl) LoginWithGoogle(ctx context.Context, googleEmail string, googleID string, sessionTrackReq auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	userData, err := a.UserRepository.GetByEmail(ctx, googleEmail)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrGoogleAccountNotFound
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user data by email: %w", err)
	}

	if userData.OAuthProviderID == nil {
		userData, err = a.UserRepository.LinkGoogleAccount(ctx, googleID, userData.Email)
		if err != nil {
			return auth.TokenResponse{}, fmt.Errorf("failed to link google account: %w", err)
		}
	} else if *userData.OAuthProviderID != googleID {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	tokenResponse, err := a.issueTokens(ctx, userData, sessionTrackReq)
	if err != nil {
		return auth.TokenResponse{}, err
	}
	tokenResponse.RiskLevel = a.assess(ctx, userData.ID, sessionTrackReq)

	return tokenResponse, nil
}

// Logout implements auth.AuthService. Unknown or already revoked tokens are not an error.
func (a *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	err := a.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		_, isRevoked, err := a.tokens.IsRefreshTokenRevoked(txCtx, token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				return nil
			}
			return fmt.Errorf("failed to check if refresh token is revoked: %w", err)
		}
		if !isRevoked {
			if err := a.tokens.RevokeRefreshToken(txCtx, token); err != nil {
				return fmt.Errorf("failed to revoke refresh token: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.Service.RevokeToken(token)
	return nil
}

// RefreshToken implements auth.AuthService.
func (a *AuthServiceImpl) RefreshToken(ctx context.Context, req auth.RefreshTokenRequest) (auth.AccessTokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.AccessTokenResponse{}, err
	}
	if a.Service.IsTokenRevoked(req.RefreshToken) {
		return auth.AccessTokenResponse{}, auth.ErrRefreshTokenRevoked
	}

	// 1. Verify JWT signature and expiry
	token, err := jwtauth.VerifyToken(a.JWTAuth(), req.RefreshToken)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}

	// 2. Check token type is "refresh"
	tokenType, ok := token.Get("type")
	if !ok || tokenType != jwt.TokenTypeRefresh {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}

	// 3. Check DB for revocation/expiry
	userID, isRevoked, err := a.tokens.IsRefreshTokenRevoked(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return auth.AccessTokenResponse{}, auth.ErrInvalidToken
		}
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to check refresh token: %w", err)
	}
	if isRevoked {
		return auth.AccessTokenResponse{}, auth.ErrRefreshTokenRevoked
	}

	// 4. Reload the user so role or outlet changes apply on the next access token
	userData, err := a.UserRepository.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.AccessTokenResponse{}, auth.ErrUserNotFound
		}
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	var accessTokenResponse auth.AccessTokenResponse
	accessTokenResponse.AccessToken, accessTokenResponse.AccessTokenExpiresIn, err = a.Service.GenerateAccessToken(claimsFor(userData))
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessTokenResponse, nil
}
