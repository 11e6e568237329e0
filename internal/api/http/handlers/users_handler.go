package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/api/dto"
	"github.com/spec-kit/storefront-auth/internal/auth"
	apperrors "github.com/spec-kit/storefront-auth/pkg/util/errorutil"
)

// UserIDParam is the route parameter carrying the account id.
const UserIDParam = "userId"

// UsersHandler exposes account endpoints.
type UsersHandler struct {
	accounts AccountService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(accounts AccountService) *UsersHandler {
	return &UsersHandler{accounts: accounts}
}

// GetUser handles GET /users/:userId.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	user, err := h.accounts.GetUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateAuthorities handles PUT /users/:userId/authorities.
func (h *UsersHandler) UpdateAuthorities(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	var req dto.UpdateAuthoritiesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.accounts.SetAuthorities(c.UserContext(), auth.ContextFrom(c), id, req.Authorities)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

func userIDParam(c *fiber.Ctx) (int64, error) {
	raw := c.Params(UserIDParam)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid user id", map[string]any{"user_id": raw})
	}
	return id, nil
}
