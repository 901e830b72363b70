package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wardline-health/staff-access-service/internal/authz"
	"github.com/wardline-health/staff-access-service/internal/domain"
	"github.com/wardline-health/staff-access-service/internal/events"
	"github.com/wardline-health/staff-access-service/internal/repository"
	apperrors "github.com/wardline-health/staff-access-service/pkg/util/errorutil"
)

// OverrideService manages per-email overrides and the manager registry.
type OverrideService struct {
	overrides  repository.OverrideRepository
	managers   repository.ManagerRepository
	settings   *SettingsService
	access     *AccessService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// OverrideDependencies bundles repositories and collaborators.
type OverrideDependencies struct {
	OverrideRepo repository.OverrideRepository
	ManagerRepo  repository.ManagerRepository
	Settings     *SettingsService
	Access       *AccessService
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewOverrideService creates the service.
func NewOverrideService(deps OverrideDependencies) *OverrideService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverrideService{
		overrides:  deps.OverrideRepo,
		managers:   deps.ManagerRepo,
		settings:   deps.Settings,
		access:     deps.Access,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// OverrideInput is an administrator's edit of one module override.
type OverrideInput struct {
	Flags              *domain.FlagPatch
	RestrictedFeatures []string
}

// RequireManager returns Forbidden unless actor is a permission manager.
func (s *OverrideService) RequireManager(ctx context.Context, actor domain.Identity) error {
	if !s.access.IsManager(ctx, actor) {
		return apperrors.NewForbidden("permission manager required")
	}
	return nil
}

// GetOverride returns the override entry for rawEmail.
func (s *OverrideService) GetOverride(ctx context.Context, rawEmail string) (*domain.OverrideEntry, error) {
	email, err := parseEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	entry, err := s.overrides.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("override", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	return entry, nil
}

// ListOverrides returns every override entry ordered by email.
func (s *OverrideService) ListOverrides(ctx context.Context, actor domain.Identity) ([]domain.OverrideEntry, error) {
	if err := s.RequireManager(ctx, actor); err != nil {
		return nil, err
	}
	entries, err := s.overrides.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// SetOverride replaces the override for one module of rawEmail.
func (s *OverrideService) SetOverride(ctx context.Context, actor domain.Identity, rawEmail, rawModule string, input OverrideInput) (*domain.OverrideEntry, error) {
	if err := s.RequireManager(ctx, actor); err != nil {
		return nil, err
	}
	email, err := parseEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	module, err := parseModule(rawModule)
	if err != nil {
		return nil, err
	}
	restricted := make([]domain.Feature, 0, len(input.RestrictedFeatures))
	for _, raw := range input.RestrictedFeatures {
		feature, err := parseFeature(raw)
		if err != nil {
			return nil, err
		}
		restricted = append(restricted, feature)
	}

	override := domain.ModuleOverride{
		Flags:              input.Flags,
		RestrictedFeatures: authz.NormalizeFeatures(restricted),
		UpdatedBy:          actor.Email,
	}
	entry, err := s.overrides.UpsertModule(ctx, email, module, override)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.settings.Invalidate(ctx)
	s.logger.Info("override updated",
		zap.String("email", string(email)),
		zap.String("module", string(module)),
		zap.String("actor", string(actor.Email)))
	s.publish(ctx, actor, events.EventOverrideUpdated, string(email), events.OverrideUpdatedPayload{Email: email, Module: module})
	return entry, nil
}

// ClearOverride removes the module override so the module falls back to role defaults.
func (s *OverrideService) ClearOverride(ctx context.Context, actor domain.Identity, rawEmail, rawModule string) error {
	if err := s.RequireManager(ctx, actor); err != nil {
		return err
	}
	email, err := parseEmail(rawEmail)
	if err != nil {
		return err
	}
	module, err := parseModule(rawModule)
	if err != nil {
		return err
	}
	if err := s.overrides.DeleteModule(ctx, email, module); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("override", map[string]any{"email": email, "module": module})
		}
		return apperrors.MapError(err)
	}
	s.settings.Invalidate(ctx)
	s.logger.Info("override cleared",
		zap.String("email", string(email)),
		zap.String("module", string(module)),
		zap.String("actor", string(actor.Email)))
	s.publish(ctx, actor, events.EventOverrideUpdated, string(email), events.OverrideUpdatedPayload{Email: email, Module: module, Cleared: true})
	return nil
}

// ListManagers returns the manager registry.
func (s *OverrideService) ListManagers(ctx context.Context) (domain.ManagerRegistry, error) {
	registry, err := s.managers.Get(ctx)
	if err != nil {
		return domain.ManagerRegistry{}, apperrors.MapError(err)
	}
	return registry, nil
}

// AddManagerEmail registers rawEmail as a permission manager.
func (s *OverrideService) AddManagerEmail(ctx context.Context, actor domain.Identity, rawEmail string) error {
	return s.editManagerEmail(ctx, actor, rawEmail, false)
}

// RemoveManagerEmail drops rawEmail from the registry.
func (s *OverrideService) RemoveManagerEmail(ctx context.Context, actor domain.Identity, rawEmail string) error {
	return s.editManagerEmail(ctx, actor, rawEmail, true)
}

// AddManagerRole makes every holder of rawRole a permission manager.
func (s *OverrideService) AddManagerRole(ctx context.Context, actor domain.Identity, rawRole string) error {
	return s.editManagerRole(ctx, actor, rawRole, false)
}

// RemoveManagerRole drops rawRole from the registry.
func (s *OverrideService) RemoveManagerRole(ctx context.Context, actor domain.Identity, rawRole string) error {
	return s.editManagerRole(ctx, actor, rawRole, true)
}

func (s *OverrideService) editManagerEmail(ctx context.Context, actor domain.Identity, rawEmail string, remove bool) error {
	if actor.Role != domain.RoleSuperAdmin {
		return apperrors.NewForbidden("only super_admin may edit the manager registry")
	}
	email, err := parseEmail(rawEmail)
	if err != nil {
		return err
	}
	if remove {
		err = s.managers.RemoveEmail(ctx, email)
	} else {
		err = s.managers.AddEmail(ctx, email)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("manager", map[string]any{"email": email})
		}
		return apperrors.MapError(err)
	}
	s.settings.Invalidate(ctx)
	s.logger.Info("manager registry updated",
		zap.String("email", string(email)),
		zap.Bool("removed", remove),
		zap.String("actor", string(actor.Email)))
	s.publish(ctx, actor, events.EventManagersUpdated, string(email), events.ManagersUpdatedPayload{Email: &email, Removed: remove})
	return nil
}

func (s *OverrideService) editManagerRole(ctx context.Context, actor domain.Identity, rawRole string, remove bool) error {
	if actor.Role != domain.RoleSuperAdmin {
		return apperrors.NewForbidden("only super_admin may edit the manager registry")
	}
	role, ok := domain.ParseRole(rawRole)
	if !ok {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": rawRole})
	}
	var err error
	if remove {
		err = s.managers.RemoveRole(ctx, role)
	} else {
		err = s.managers.AddRole(ctx, role)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("manager role", map[string]any{"role": role})
		}
		return apperrors.MapError(err)
	}
	s.settings.Invalidate(ctx)
	s.logger.Info("manager registry updated",
		zap.String("role", string(role)),
		zap.Bool("removed", remove),
		zap.String("actor", string(actor.Email)))
	s.publish(ctx, actor, events.EventManagersUpdated, string(role), events.ManagersUpdatedPayload{Role: &role, Removed: remove})
	return nil
}

func (s *OverrideService) publish(ctx context.Context, actor domain.Identity, eventType events.EventType, subject string, payload any) {
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Actor:     events.ActorFrom(actor),
		Timestamp: s.now().UTC(),
		Payload:   payload,
	})
}
