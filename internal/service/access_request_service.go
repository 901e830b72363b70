package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wardline-health/staff-access-service/internal/domain"
	"github.com/wardline-health/staff-access-service/internal/events"
	"github.com/wardline-health/staff-access-service/internal/repository"
	apperrors "github.com/wardline-health/staff-access-service/pkg/util/errorutil"
)

// MaxReasonLength caps free-text reasons and review comments, in characters.
const MaxReasonLength = 1000

// AccessRequestService runs the request/review workflow for restricted features.
type AccessRequestService struct {
	requests   repository.AccessRequestRepository
	access     *AccessService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AccessRequestDependencies bundles repositories and collaborators.
type AccessRequestDependencies struct {
	RequestRepo repository.AccessRequestRepository
	Access      *AccessService
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAccessRequestService creates the service.
func NewAccessRequestService(deps AccessRequestDependencies) *AccessRequestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessRequestService{
		requests:   deps.RequestRepo,
		access:     deps.Access,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// AccessRequestListFilter is the caller-facing list filter.
type AccessRequestListFilter struct {
	Module    string
	Feature   string
	Status    string
	Requester string
	Limit     int
	Offset    int
}

// Page returns the limit and offset List actually applies.
func (f AccessRequestListFilter) Page() (int, int) {
	return repository.NormalizePage(f.Limit, f.Offset)
}

// Create files a request for a feature that is restricted for requester.
func (s *AccessRequestService) Create(ctx context.Context, requester domain.Identity, rawModule, rawFeature, reason string) (*domain.AccessRequest, error) {
	if requester.Email == "" {
		return nil, apperrors.NewUnauthorized("identity required")
	}
	module, err := parseModule(rawModule)
	if err != nil {
		return nil, err
	}
	feature, err := parseFeature(rawFeature)
	if err != nil {
		return nil, err
	}
	if !s.access.IsFeatureRestricted(ctx, requester, module, feature) {
		return nil, apperrors.NewValidationError("feature is not restricted for requester", map[string]any{
			"module":  module,
			"feature": feature,
		})
	}

	if existing, err := s.requests.FindPending(ctx, requester.Email, module, feature); err == nil {
		return nil, duplicatePending(existing.ID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	req := &domain.AccessRequest{
		ID:             uuid.NewString(),
		RequesterEmail: requester.Email,
		RequesterRole:  requester.Role,
		RequesterName:  requester.Name,
		Module:         module,
		Feature:        feature,
		Reason:         clipText(reason),
		Status:         domain.AccessRequestPending,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicatePending("")
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("access request created",
		zap.String("request_id", req.ID),
		zap.String("requester", string(req.RequesterEmail)),
		zap.String("module", string(module)),
		zap.String("feature", string(feature)))
	s.publish(ctx, requester, events.EventAccessRequestCreated, req, events.AccessRequestCreatedPayload{
		RequesterEmail: req.RequesterEmail,
		Module:         module,
		Feature:        feature,
	})
	return req, nil
}

// List returns requests newest first. Non-managers only ever see their own.
func (s *AccessRequestService) List(ctx context.Context, caller domain.Identity, filter AccessRequestListFilter) ([]domain.AccessRequest, error) {
	repoFilter := repository.AccessRequestFilter{Limit: filter.Limit, Offset: filter.Offset}
	if strings.TrimSpace(filter.Module) != "" {
		module, err := parseModule(filter.Module)
		if err != nil {
			return nil, err
		}
		repoFilter.Module = &module
	}
	if strings.TrimSpace(filter.Feature) != "" {
		feature, err := parseFeature(filter.Feature)
		if err != nil {
			return nil, err
		}
		repoFilter.Feature = &feature
	}
	if strings.TrimSpace(filter.Status) != "" {
		status, ok := domain.ParseAccessRequestStatus(filter.Status)
		if !ok {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": filter.Status})
		}
		repoFilter.Status = &status
	}

	if s.access.IsManager(ctx, caller) {
		if strings.TrimSpace(filter.Requester) != "" {
			email, err := parseEmail(filter.Requester)
			if err != nil {
				return nil, err
			}
			repoFilter.RequesterEmail = &email
		}
	} else {
		own := caller.Email
		repoFilter.RequesterEmail = &own
	}

	items, err := s.requests.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// Get returns one request to its requester or to a manager.
func (s *AccessRequestService) Get(ctx context.Context, caller domain.Identity, id string) (*domain.AccessRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.RequesterEmail != caller.Email && !s.access.IsManager(ctx, caller) {
		return nil, apperrors.NewForbidden("access request belongs to another staff member")
	}
	return req, nil
}

// Review approves or rejects a pending request. The status change and the
// reviewer audit fields are written in one conditional update; a request that
// already left pending yields INVALID_STATE and is left untouched.
func (s *AccessRequestService) Review(ctx context.Context, id string, reviewer domain.Identity, rawDecision string, comment *string) (*domain.AccessRequest, error) {
	if !s.access.IsManager(ctx, reviewer) {
		return nil, apperrors.NewForbidden("permission manager required")
	}
	decision, ok := domain.ParseReviewDecision(rawDecision)
	if !ok {
		return nil, apperrors.NewValidationError("decision must be approve or reject", map[string]any{"decision": rawDecision})
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFoundRequest(id)
	}

	review := domain.AccessReview{
		Status:        decision.Status(),
		ReviewerEmail: reviewer.Email,
		ReviewerRole:  reviewer.Role,
		ReviewedAt:    s.now().UTC(),
	}
	if comment != nil {
		if clipped := clipText(*comment); clipped != "" {
			review.Comment = &clipped
		}
	}

	updated, err := s.requests.Review(ctx, id, review)
	switch {
	case errors.Is(err, repository.ErrNotPending):
		return nil, apperrors.NewInvalidState("access request is not pending", map[string]any{"request_id": id})
	case errors.Is(err, repository.ErrNotFound):
		return nil, notFoundRequest(id)
	case err != nil:
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("access request reviewed",
		zap.String("request_id", id),
		zap.String("status", string(updated.Status)),
		zap.String("reviewer", string(reviewer.Email)))
	s.publish(ctx, reviewer, events.EventAccessRequestReviewed, updated, events.AccessRequestReviewedPayload{
		RequesterEmail: updated.RequesterEmail,
		Module:         updated.Module,
		Feature:        updated.Feature,
		Status:         updated.Status,
		Comment:        updated.ReviewComment,
	})
	return updated, nil
}

func (s *AccessRequestService) load(ctx context.Context, id string) (*domain.AccessRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFoundRequest(id)
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundRequest(id)
		}
		return nil, apperrors.MapError(err)
	}
	return req, nil
}

func (s *AccessRequestService) publish(ctx context.Context, actor domain.Identity, eventType events.EventType, req *domain.AccessRequest, payload any) {
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   req.ID,
		Actor:     events.ActorFrom(actor),
		Timestamp: s.now().UTC(),
		Payload:   payload,
	})
}

func notFoundRequest(id string) error {
	return apperrors.NewNotFound("access request", map[string]any{"request_id": id})
}

func duplicatePending(existingID string) error {
	details := map[string]any{}
	if existingID != "" {
		details["request_id"] = existingID
	}
	return apperrors.NewConflict("a pending request already exists for this feature", details)
}

// clipText trims s and caps it at MaxReasonLength characters.
func clipText(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > MaxReasonLength {
		return string(runes[:MaxReasonLength])
	}
	return s
}
