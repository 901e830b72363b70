package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/wardline-health/staff-access-service/internal/api/dto"
	"github.com/wardline-health/staff-access-service/internal/auth"
	"github.com/wardline-health/staff-access-service/internal/service"
	apperrors "github.com/wardline-health/staff-access-service/pkg/util/errorutil"
	"github.com/wardline-health/staff-access-service/pkg/validator"
)

// AccessRequestsHandler exposes the access request workflow.
type AccessRequestsHandler struct {
	requests *service.AccessRequestService
}

// NewAccessRequestsHandler constructs handler.
func NewAccessRequestsHandler(requests *service.AccessRequestService) *AccessRequestsHandler {
	return &AccessRequestsHandler{requests: requests}
}

// Create handles POST /api/v1/access-requests.
func (h *AccessRequestsHandler) Create(c *fiber.Ctx) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateAccessRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validator.Check(&req); err != nil {
		return err
	}
	created, err := h.requests.Create(c.UserContext(), identity, req.Module, req.Feature, req.Reason)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAccessRequestResponse(*created)})
}

// List handles GET /api/v1/access-requests.
func (h *AccessRequestsHandler) List(c *fiber.Ctx) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	filter := service.AccessRequestListFilter{
		Module:    c.Query("module"),
		Feature:   c.Query("feature"),
		Status:    c.Query("status"),
		Requester: c.Query("requester"),
		Limit:     c.QueryInt("limit", 20),
		Offset:    c.QueryInt("offset", 0),
	}
	items, err := h.requests.List(c.UserContext(), identity, filter)
	if err != nil {
		return err
	}
	resp := make([]dto.AccessRequestResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, dto.NewAccessRequestResponse(item))
	}
	limit, offset := filter.Page()
	return c.JSON(fiber.Map{
		"data": resp,
		"meta": fiber.Map{"limit": limit, "offset": offset, "count": len(resp)},
	})
}

// Get handles GET /api/v1/access-requests/:id.
func (h *AccessRequestsHandler) Get(c *fiber.Ctx) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	req, err := h.requests.Get(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAccessRequestResponse(*req)})
}

// Review handles POST /api/v1/access-requests/:id/review.
func (h *AccessRequestsHandler) Review(c *fiber.Ctx) error {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ReviewAccessRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validator.Check(&req); err != nil {
		return err
	}
	updated, err := h.requests.Review(c.UserContext(), c.Params("id"), identity, req.Decision, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAccessRequestResponse(*updated)})
}
