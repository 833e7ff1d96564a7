package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-lifecycle/internal/api/dto"
	"github.com/spec-kit/ticket-lifecycle/internal/auth"
	"github.com/spec-kit/ticket-lifecycle/internal/config"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// AuthHandler issues operator tokens against the configured credentials.
type AuthHandler struct {
	cfg    config.AuthConfig
	tokens *auth.TokenManager
}

// NewAuthHandler creates the handler.
func NewAuthHandler(cfg config.AuthConfig, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{cfg: cfg, tokens: tokens}
}

// IssueToken handles POST /auth/token.
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	if h.cfg.OperatorPasswordHash == "" {
		return apperrors.NewConfigurationError("operator credentials are not configured", nil)
	}
	if req.Name != h.cfg.OperatorName {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.CheckPassword(h.cfg.OperatorPasswordHash, req.Password); err != nil {
		return err
	}

	token, expiresAt, err := h.tokens.Generate(req.Name, "operator")
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{Token: token, ExpiresAt: expiresAt})
}
