package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-lifecycle/internal/api/dto"
	"github.com/spec-kit/ticket-lifecycle/internal/auth"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// MaintenanceHandler serves maintenance window management.
type MaintenanceHandler struct {
	maintenance *service.MaintenanceService
}

// NewMaintenanceHandler creates the handler.
func NewMaintenanceHandler(maintenance *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenance: maintenance}
}

// List handles GET /api/v1/maintenance?scope_id=...
func (h *MaintenanceHandler) List(c *fiber.Ctx) error {
	scopeID := c.Query("scope_id")
	if scopeID == "" {
		return apperrors.NewValidationError("scope_id query parameter is required", nil)
	}

	windows, err := h.maintenance.List(c.UserContext(), scopeID)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromWindows(windows))
}

// Schedule handles POST /api/v1/maintenance.
func (h *MaintenanceHandler) Schedule(c *fiber.Ctx) error {
	var req dto.ScheduleWindowRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.ScopeID == "" {
		return apperrors.NewValidationError("scope_id is required", nil)
	}

	createdBy := "api"
	if claims := auth.OperatorFromCtx(c); claims != nil {
		createdBy = claims.Name
	}

	window, err := h.maintenance.Schedule(c.UserContext(), req.ScopeID, req.StartTime, req.EndTime, req.Description, createdBy)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromWindow(window))
}

// Cancel handles POST /api/v1/maintenance/:id/cancel.
func (h *MaintenanceHandler) Cancel(c *fiber.Ctx) error {
	window, err := h.maintenance.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromWindow(window))
}
