package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-lifecycle/internal/api/dto"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// StaffHandler serves staff performance reads.
type StaffHandler struct {
	lifecycle *service.LifecycleService
}

// NewStaffHandler creates the handler.
func NewStaffHandler(lifecycle *service.LifecycleService) *StaffHandler {
	return &StaffHandler{lifecycle: lifecycle}
}

// Performance handles GET /api/v1/staff/:id/performance?scope_id=...
func (h *StaffHandler) Performance(c *fiber.Ctx) error {
	scopeID := c.Query("scope_id")
	if scopeID == "" {
		return apperrors.NewValidationError("scope_id query parameter is required", nil)
	}

	record, err := h.lifecycle.GetStaffPerformance(c.UserContext(), scopeID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromStaffPerformance(record))
}
