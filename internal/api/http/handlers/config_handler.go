package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/domain"
)

// ConfigHandler exposes the authorization configuration.
type ConfigHandler struct{}

// NewConfigHandler constructs handler.
func NewConfigHandler() *ConfigHandler {
	return &ConfigHandler{}
}

// Authorities handles GET /config/authorities.
func (h *ConfigHandler) Authorities(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"authorities":       domain.Catalog(),
			"token_ttl_seconds": int(auth.TokenTTL.Seconds()),
			"signing_algorithm": "HS512",
		},
	})
}
