package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the identity carried by an access token.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// IsSuperAdmin reports whether the token grants administrator access.
func (c Claims) IsSuperAdmin() bool { return c.Role == models.RoleSuperAdmin }

// TokenPair is issued on login and rotated on refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, accessTTL, refreshTTL time.Duration, log *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) createUser(ctx context.Context, name, email, password, role string) (*models.User, error) {
	email = normalizeEmail(email)
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("User with this email exists!")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.Unexpected(err, "failed to look up user")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to hash password")
	}

	user := &models.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: string(hashedPassword),
		Role:     role,
	}
	err = s.userRepo.Create(ctx, user)
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, apperr.Conflict("User with this email exists!")
	}
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to register user")
	}
	return user, nil
}

// RegisterUser creates a customer account.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.createUser(ctx, name, email, password, models.RoleUser)
}

// CreateSuperAdmin creates an administrator account.
func (s *AuthService) CreateSuperAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.createUser(ctx, name, email, password, models.RoleSuperAdmin)
}

// LoginUser authenticates a user and issues a fresh token pair.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, apperr.Unauthenticated("Invalid credentials")
		}
		return nil, nil, apperr.Unexpected(err, "failed to look up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, apperr.Unauthenticated("Invalid credentials")
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// RefreshTokens rotates both tokens of the user holding refreshToken.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*models.User, *TokenPair, error) {
	if refreshToken == "" {
		return nil, nil, apperr.Unauthenticated("Invalid refresh token")
	}
	user, err := s.userRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, apperr.Unauthenticated("Invalid refresh token")
		}
		return nil, nil, apperr.Unexpected(err, "failed to look up refresh token")
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Logout revokes refreshToken. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	user, err := s.userRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return apperr.Unexpected(err, "failed to look up refresh token")
	}
	if err := s.userRepo.SetRefreshToken(ctx, user.ID, nil); err != nil {
		return apperr.Unexpected(err, "failed to revoke refresh token")
	}
	return nil
}

// GetProfile returns the account of userID.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, repoErr(err, "User not found", "failed to fetch profile")
	}
	return user, nil
}

// UpdateProfile changes the name and email of userID. The email must not
// belong to another account.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name, email string) (*models.User, error) {
	email = normalizeEmail(email)
	existing, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != userID:
		return nil, apperr.Conflict("Email already in use by another user")
	case err != nil && !errors.Is(err, repositories.ErrNotFound):
		return nil, apperr.Unexpected(err, "failed to look up user")
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, strings.TrimSpace(name), email)
	if err != nil {
		return nil, repoErr(err, "User not found", "failed to update profile")
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	now := time.Now()
	pair := &TokenPair{
		RefreshToken:     uuid.NewString(),
		AccessExpiresAt:  now.Add(s.accessTTL),
		RefreshExpiresAt: now.Add(s.refreshTTL),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": user.ID,
		"email":  user.Email,
		"role":   user.Role,
		"exp":    pair.AccessExpiresAt.Unix(),
		"iat":    now.Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to generate token")
	}
	pair.AccessToken = signed

	if err := s.userRepo.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, apperr.Unexpected(err, "failed to store refresh token")
	}
	return pair, nil
}

// ValidateToken parses and validates an access token.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.log.Debug("token validation failed", zap.Error(err))
		return nil, apperr.Unauthenticated("Invalid or expired token")
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperr.Unauthenticated("Invalid or expired token")
	}
	claims := &Claims{}
	claims.UserID, _ = mc["userId"].(string)
	claims.Email, _ = mc["email"].(string)
	claims.Role, _ = mc["role"].(string)
	if claims.UserID == "" {
		return nil, apperr.Unauthenticated("Invalid or expired token")
	}
	return claims, nil
}
