package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wardline-health/staff-access-service/internal/api/dto"
	"github.com/wardline-health/staff-access-service/internal/auth"
	"github.com/wardline-health/staff-access-service/internal/service"
	apperrors "github.com/wardline-health/staff-access-service/pkg/util/errorutil"
	"github.com/wardline-health/staff-access-service/pkg/validator"
)

// PersonalPermissionsHandler exposes delegation profiles.
type PersonalPermissionsHandler struct {
	personal *service.PersonalPermissionService
}

// NewPersonalPermissionsHandler constructs handler.
func NewPersonalPermissionsHandler(personal *service.PersonalPermissionService) *PersonalPermissionsHandler {
	return &PersonalPermissionsHandler{personal: personal}
}

// GetMine handles GET /api/v1/personal-permissions/me.
func (h *PersonalPermissionsHandler) GetMine(c *fiber.Ctx) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	profile, err := h.personal.Get(c.UserContext(), string(identity.Email))
	if err != nil {
		return err
	}
	if profile.OwnerRole == "" {
		profile.OwnerRole = identity.Role
	}
	return c.JSON(fiber.Map{"data": dto.NewPersonalPermissionsResponse(*profile)})
}

// SetMine handles PUT /api/v1/personal-permissions/me.
func (h *PersonalPermissionsHandler) SetMine(c *fiber.Ctx) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	var req dto.PersonalPermissionsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validator.Check(&req); err != nil {
		return err
	}
	profile, err := h.personal.Set(c.UserContext(), identity, string(identity.Email), req.Permissions)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPersonalPermissionsResponse(*profile)})
}

// GetByOwner handles GET /api/v1/personal-permissions/:email, the peer lookup.
func (h *PersonalPermissionsHandler) GetByOwner(c *fiber.Ctx) error {
	if _, err := auth.IdentityFromContext(c); err != nil {
		return err
	}
	profile, err := h.personal.Get(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPersonalPermissionsResponse(*profile)})
}
