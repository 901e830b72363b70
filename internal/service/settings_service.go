package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wardline-health/staff-access-service/internal/authz"
	"github.com/wardline-health/staff-access-service/internal/config"
	"github.com/wardline-health/staff-access-service/internal/repository"
)

// SnapshotCache is the shared cache for the settings snapshot.
type SnapshotCache interface {
	Get(ctx context.Context) (*authz.Snapshot, bool, error)
	Set(ctx context.Context, snapshot *authz.Snapshot) error
	Invalidate(ctx context.Context) error
}

// SettingsService assembles the settings snapshot that every resolution runs against.
type SettingsService struct {
	overrides repository.OverrideRepository
	managers  repository.ManagerRepository
	cache     SnapshotCache
	logger    *zap.Logger
	now       func() time.Time
}

// SettingsDependencies bundles repositories and the optional cache.
type SettingsDependencies struct {
	OverrideRepo repository.OverrideRepository
	ManagerRepo  repository.ManagerRepository
	Cache        SnapshotCache
	Logger       *zap.Logger
}

// NewSettingsService creates the service. Cache may be nil.
func NewSettingsService(deps SettingsDependencies) *SettingsService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{
		overrides: deps.OverrideRepo,
		managers:  deps.ManagerRepo,
		cache:     deps.Cache,
		logger:    logger,
		now:       time.Now,
	}
}

// Snapshot returns the cached snapshot or loads a fresh one from the repositories.
// Cache failures are logged and bypassed.
func (s *SettingsService) Snapshot(ctx context.Context) (*authz.Snapshot, error) {
	if s.cache != nil {
		snapshot, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("snapshot cache read failed", zap.Error(err))
		} else if ok {
			return snapshot, nil
		}
	}

	entries, err := s.overrides.List(ctx)
	if err != nil {
		return nil, err
	}
	managers, err := s.managers.Get(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := authz.NewSnapshot(entries, managers, s.now().UTC())

	if s.cache != nil {
		if err := s.cache.Set(ctx, snapshot); err != nil {
			s.logger.Warn("snapshot cache write failed", zap.Error(err))
		}
	}
	return snapshot, nil
}

// Refresh reloads the snapshot from the repositories and replaces the cached copy.
func (s *SettingsService) Refresh(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	s.Invalidate(ctx)
	_, err := s.Snapshot(ctx)
	return err
}

// Invalidate drops the cached snapshot after a settings write.
func (s *SettingsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("snapshot cache invalidation failed", zap.Error(err))
	}
}

// ApplySeed writes bootstrap managers and overrides. Existing rows for the same
// keys are overwritten.
func (s *SettingsService) ApplySeed(ctx context.Context, seed *config.SeedData) error {
	if seed == nil {
		return nil
	}
	for _, email := range seed.Managers.Emails {
		if err := s.managers.AddEmail(ctx, email); err != nil {
			return err
		}
	}
	for _, role := range seed.Managers.Roles {
		if err := s.managers.AddRole(ctx, role); err != nil {
			return err
		}
	}
	for _, item := range seed.Overrides {
		override := item.Override
		override.RestrictedFeatures = authz.NormalizeFeatures(override.RestrictedFeatures)
		if _, err := s.overrides.UpsertModule(ctx, item.Email, item.Module, override); err != nil {
			return err
		}
	}
	s.Invalidate(ctx)
	s.logger.Info("settings seed applied",
		zap.Int("manager_emails", len(seed.Managers.Emails)),
		zap.Int("manager_roles", len(seed.Managers.Roles)),
		zap.Int("overrides", len(seed.Overrides)))
	return nil
}
