package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/wardline-health/staff-access-service/internal/authz"
	"github.com/wardline-health/staff-access-service/internal/domain"
	"github.com/wardline-health/staff-access-service/internal/observability"
)

// AccessService answers authorization queries. Queries never fail: when the
// settings snapshot cannot be loaded every flag resolves to false.
type AccessService struct {
	settings *SettingsService
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAccessService creates the service. metrics may be nil.
func NewAccessService(settings *SettingsService, metrics *observability.Metrics, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{settings: settings, metrics: metrics, logger: logger}
}

func (s *AccessService) snapshot(ctx context.Context) (*authz.Snapshot, bool) {
	snapshot, err := s.settings.Snapshot(ctx)
	if err != nil {
		s.logger.Error("settings snapshot unavailable, denying", zap.Error(err))
		return nil, false
	}
	return snapshot, true
}

// Resolve returns the effective flags for identity on module.
func (s *AccessService) Resolve(ctx context.Context, identity domain.Identity, module domain.Module) domain.PermissionFlags {
	snapshot, ok := s.snapshot(ctx)
	if !ok {
		return domain.PermissionFlags{}
	}
	return snapshot.Resolve(identity, module)
}

// IsFeatureRestricted reports whether an override restricts feature for identity.
func (s *AccessService) IsFeatureRestricted(ctx context.Context, identity domain.Identity, module domain.Module, feature domain.Feature) bool {
	snapshot, ok := s.snapshot(ctx)
	if !ok {
		return false
	}
	return snapshot.IsFeatureRestricted(identity, module, feature)
}

// CanUseFeature is the combined decision and is recorded in metrics.
func (s *AccessService) CanUseFeature(ctx context.Context, identity domain.Identity, module domain.Module, feature domain.Feature) bool {
	allowed := false
	if snapshot, ok := s.snapshot(ctx); ok {
		allowed = snapshot.CanUseFeature(identity, module, feature)
	}
	s.metrics.RecordDecision(string(module), string(feature), allowed)
	return allowed
}

// Decision bundles both axes for one feature check.
type Decision struct {
	Flags      domain.PermissionFlags
	Restricted bool
	Allowed    bool
}

// Decide evaluates flags, restriction and the combined answer against one snapshot.
func (s *AccessService) Decide(ctx context.Context, identity domain.Identity, module domain.Module, feature domain.Feature) Decision {
	var decision Decision
	if snapshot, ok := s.snapshot(ctx); ok {
		decision.Flags = snapshot.Resolve(identity, module)
		decision.Restricted = snapshot.IsFeatureRestricted(identity, module, feature)
		decision.Allowed = decision.Flags.Allows(feature) && !decision.Restricted
	}
	s.metrics.RecordDecision(string(module), string(feature), decision.Allowed)
	return decision
}

// IsManager reports whether identity is a permission manager. Without a
// snapshot only super_admin qualifies.
func (s *AccessService) IsManager(ctx context.Context, identity domain.Identity) bool {
	snapshot, _ := s.snapshot(ctx)
	return snapshot.IsManager(identity)
}

// EffectivePermissions resolves every module for identity.
func (s *AccessService) EffectivePermissions(ctx context.Context, identity domain.Identity) []domain.ModuleAccess {
	snapshot, ok := s.snapshot(ctx)
	if ok {
		return snapshot.EffectivePermissions(identity)
	}
	out := make([]domain.ModuleAccess, 0, len(domain.AllModules))
	for _, module := range domain.AllModules {
		out = append(out, domain.ModuleAccess{Module: module, RestrictedFeatures: []domain.Feature{}})
	}
	return out
}
