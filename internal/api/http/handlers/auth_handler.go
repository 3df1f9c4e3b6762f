package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-platform/internal/api/dto"
	"github.com/spec-kit/task-platform/internal/service"
	"github.com/spec-kit/task-platform/internal/token"
	apperrors "github.com/spec-kit/task-platform/pkg/util"
)

// AuthHandler exposes registration, login, and token introspection.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.Register(c.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.RegisterResponse{User: user.SafeView()})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, signed, expiresAt, err := h.auth.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.LoginResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      user.SafeView(),
	})
}

// Verify handles GET /api/auth/verify. Other services call it to confirm a
// token without holding the public key themselves.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	raw := token.FromAuthorizationHeader(c.Get(fiber.HeaderAuthorization))
	if raw == "" {
		return apperrors.NewUnauthorized("missing or invalid authorization header")
	}

	claims, err := h.auth.VerifyToken(raw)
	if err != nil {
		return err
	}

	return c.JSON(dto.VerifyResponse{UserID: claims.UserID, Username: claims.Username})
}
