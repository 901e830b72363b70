package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/wardline-health/staff-access-service/internal/api/dto"
	"github.com/wardline-health/staff-access-service/internal/auth"
	"github.com/wardline-health/staff-access-service/internal/domain"
	"github.com/wardline-health/staff-access-service/internal/service"
	apperrors "github.com/wardline-health/staff-access-service/pkg/util/errorutil"
	"github.com/wardline-health/staff-access-service/pkg/validator"
)

// OverridesHandler exposes override administration and the manager registry.
type OverridesHandler struct {
	overrides *service.OverrideService
}

// NewOverridesHandler constructs handler.
func NewOverridesHandler(overrides *service.OverrideService) *OverridesHandler {
	return &OverridesHandler{overrides: overrides}
}

// List handles GET /api/v1/overrides.
func (h *OverridesHandler) List(c *fiber.Ctx) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	entries, err := h.overrides.ListOverrides(c.UserContext(), identity)
	if err != nil {
		return err
	}
	resp := make([]dto.OverrideEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.NewOverrideEntryResponse(entry))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /api/v1/overrides/:email.
func (h *OverridesHandler) Get(c *fiber.Ctx) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	if err := h.overrides.RequireManager(c.UserContext(), identity); err != nil {
		return err
	}
	entry, err := h.overrides.GetOverride(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOverrideEntryResponse(*entry)})
}

// SetModule handles PUT /api/v1/overrides/:email/modules/:module.
func (h *OverridesHandler) SetModule(c *fiber.Ctx) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	var req dto.SetOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validator.Check(&req); err != nil {
		return err
	}
	entry, err := h.overrides.SetOverride(c.UserContext(), identity, c.Params("email"), c.Params("module"), service.OverrideInput{
		Flags:              req.Flags,
		RestrictedFeatures: req.RestrictedFeatures,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOverrideEntryResponse(*entry)})
}

// ClearModule handles DELETE /api/v1/overrides/:email/modules/:module.
func (h *OverridesHandler) ClearModule(c *fiber.Ctx) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	if err := h.overrides.ClearOverride(c.UserContext(), identity, c.Params("email"), c.Params("module")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListManagers handles GET /api/v1/managers.
func (h *OverridesHandler) ListManagers(c *fiber.Ctx) error {
	registry, err := h.overrides.ListManagers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewManagerRegistryResponse(registry)})
}

// AddManagerEmail handles POST /api/v1/managers/emails/:email.
func (h *OverridesHandler) AddManagerEmail(c *fiber.Ctx) error {
	return h.editManagers(c, h.overrides.AddManagerEmail, c.Params("email"))
}

// RemoveManagerEmail handles DELETE /api/v1/managers/emails/:email.
func (h *OverridesHandler) RemoveManagerEmail(c *fiber.Ctx) error {
	return h.editManagers(c, h.overrides.RemoveManagerEmail, c.Params("email"))
}

// AddManagerRole handles POST /api/v1/managers/roles/:role.
func (h *OverridesHandler) AddManagerRole(c *fiber.Ctx) error {
	return h.editManagers(c, h.overrides.AddManagerRole, c.Params("role"))
}

// RemoveManagerRole handles DELETE /api/v1/managers/roles/:role.
func (h *OverridesHandler) RemoveManagerRole(c *fiber.Ctx) error {
	return h.editManagers(c, h.overrides.RemoveManagerRole, c.Params("role"))
}

func (h *OverridesHandler) editManagers(c *fiber.Ctx, edit func(context.Context, domain.Identity, string) error, value string) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	if err := edit(c.UserContext(), identity, value); err != nil {
		return err
	}
	registry, err := h.overrides.ListManagers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewManagerRegistryResponse(registry)})
}
