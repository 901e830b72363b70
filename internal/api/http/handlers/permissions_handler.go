package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wardline-health/staff-access-service/internal/api/dto"
	"github.com/wardline-health/staff-access-service/internal/auth"
	"github.com/wardline-health/staff-access-service/internal/domain"
	"github.com/wardline-health/staff-access-service/internal/service"
	apperrors "github.com/wardline-health/staff-access-service/pkg/util/errorutil"
)

// PermissionsHandler answers authorization queries for the caller.
type PermissionsHandler struct {
	access *service.AccessService
}

// NewPermissionsHandler constructs handler.
func NewPermissionsHandler(access *service.AccessService) *PermissionsHandler {
	return &PermissionsHandler{access: access}
}

// Me handles GET /api/v1/permissions/me.
func (h *PermissionsHandler) Me(c *fiber.Ctx) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	modules := h.access.EffectivePermissions(ctx, identity)
	resp := dto.MyPermissionsResponse{
		Email:     string(identity.Email),
		Role:      string(identity.Role),
		IsManager: h.access.IsManager(ctx, identity),
		Modules:   make([]dto.ModuleAccessResponse, 0, len(modules)),
	}
	for _, access := range modules {
		resp.Modules = append(resp.Modules, dto.NewModuleAccessResponse(access))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Module handles GET /api/v1/permissions/:module.
func (h *PermissionsHandler) Module(c *fiber.Ctx) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	module, ok := domain.ParseModule(c.Params("module"))
	if !ok {
		return apperrors.NewValidationError("unknown module", map[string]any{"module": c.Params("module")})
	}
	flags := h.access.Resolve(c.UserContext(), identity, module)
	return c.JSON(fiber.Map{"data": fiber.Map{
		"module": module,
		"flags":  dto.NewFlagsResponse(flags),
	}})
}

// Feature handles GET /api/v1/permissions/:module/features/:feature.
func (h *PermissionsHandler) Feature(c *fiber.Ctx) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	module, ok := domain.ParseModule(c.Params("module"))
	if !ok {
		return apperrors.NewValidationError("unknown module", map[string]any{"module": c.Params("module")})
	}
	feature, ok := domain.ParseFeature(c.Params("feature"))
	if !ok {
		return apperrors.NewValidationError("unknown feature", map[string]any{"feature": c.Params("feature")})
	}
	decision := h.access.Decide(c.UserContext(), identity, module, feature)
	return c.JSON(fiber.Map{"data": dto.FeatureDecisionResponse{
		Module:     string(module),
		Feature:    string(feature),
		Flags:      dto.NewFlagsResponse(decision.Flags),
		Restricted: decision.Restricted,
		Allowed:    decision.Allowed,
	}})
}
