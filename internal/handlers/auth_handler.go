package handlers

import (
	"time"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles HTTP requests for accounts and sessions.
type AuthHandler struct {
	service      *services.AuthService
	guards       Guards
	secureCookie bool
	validate     *validator.Validate
	log          *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks session cookies Secure.
func NewAuthHandler(service *services.AuthService, guards Guards, secureCookie bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service:      service,
		guards:       guards,
		secureCookie: secureCookie,
		validate:     newValidator(),
		log:          log,
	}
}

// RegisterRoutes registers the auth routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	auth := router.Group("/auth")
	auth.Post("/register", h.HandleRegister)
	auth.Post("/login", h.HandleLogin)
	auth.Post("/refresh-token", h.HandleRefreshToken)
	auth.Post("/logout", h.HandleLogout)
	auth.Get("/profile", h.guards.Auth, h.HandleGetProfile)
	auth.Put("/profile", h.guards.Auth, h.HandleUpdateProfile)
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, name, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) setTokens(c *fiber.Ctx, tokens *services.TokenPair) {
	h.setCookie(c, middleware.AccessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt)
	h.setCookie(c, middleware.RefreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt)
}

func userBody(user *models.User) fiber.Map {
	return fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	}
}

// HandleRegister creates a customer account.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.service.RegisterUser(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return respondError(c, h.log, err, "Registration failed")
	}

	h.log.Info("user registered", zap.String("user_id", user.ID))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully",
		"userId":  user.ID,
	})
}

// HandleLogin verifies credentials and starts a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	user, tokens, err := h.service.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.log, err, "Login failed")
	}

	h.setTokens(c, tokens)
	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "Login successfully",
		"user":        userBody(user),
		"accessToken": tokens.AccessToken,
	})
}

// HandleRefreshToken rotates the session tokens.
func (h *AuthHandler) HandleRefreshToken(c *fiber.Ctx) error {
	_, tokens, err := h.service.RefreshTokens(c.UserContext(), c.Cookies(middleware.RefreshTokenCookie))
	if err != nil {
		return respondError(c, h.log, err, "Refresh token error")
	}

	h.setTokens(c, tokens)
	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "Refresh token refreshed successfully",
		"accessToken": tokens.AccessToken,
	})
}

// HandleLogout revokes the refresh token and clears both cookies.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.service.Logout(c.UserContext(), c.Cookies(middleware.RefreshTokenCookie)); err != nil {
		return respondError(c, h.log, err, "Logout failed")
	}

	expired := time.Unix(0, 0)
	h.setCookie(c, middleware.AccessTokenCookie, "", expired)
	h.setCookie(c, middleware.RefreshTokenCookie, "", expired)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User logged out successfully",
	})
}

// HandleGetProfile returns the signed-in account.
func (h *AuthHandler) HandleGetProfile(c *fiber.Ctx) error {
	user, err := h.service.GetProfile(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.log, err, "Failed to fetch user profile")
	}
	return c.JSON(fiber.Map{"success": true, "user": userBody(user)})
}

// HandleUpdateProfile changes the name and email of the signed-in account.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req profileRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.service.UpdateProfile(c.UserContext(), middleware.UserID(c), req.Name, req.Email)
	if err != nil {
		return respondError(c, h.log, err, "Failed to update user profile")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated successfully",
		"user":    userBody(user),
	})
}
