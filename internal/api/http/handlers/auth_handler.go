package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/api/dto"
	"github.com/spec-kit/storefront-auth/internal/auth"
	apperrors "github.com/spec-kit/storefront-auth/pkg/util/errorutil"
)

// AuthHandler exposes the credential exchange endpoints.
type AuthHandler struct {
	accounts AccountService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(accounts AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, session, err := h.accounts.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.NewAuthResponse(session),
		},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, session, err := h.accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.NewAuthResponse(session),
		},
	})
}

// Me handles GET /auth/me. Token authorities may lag behind the stored
// ones until the token is reissued.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	ac := auth.ContextFrom(c)
	subjectID, ok := ac.SubjectID()
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	user, err := h.accounts.GetUser(c.UserContext(), subjectID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user":              dto.NewUserResponse(user),
			"token_authorities": ac.Authorities(),
		},
	})
}
