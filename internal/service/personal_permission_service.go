package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wardline-health/staff-access-service/internal/domain"
	"github.com/wardline-health/staff-access-service/internal/events"
	"github.com/wardline-health/staff-access-service/internal/repository"
	apperrors "github.com/wardline-health/staff-access-service/pkg/util/errorutil"
)

var actionKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// PersonalPermissionService manages delegation of personally owned resources to peers.
type PersonalPermissionService struct {
	profiles   repository.PersonalPermissionRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewPersonalPermissionService creates the service.
func NewPersonalPermissionService(profiles repository.PersonalPermissionRepository, dispatcher events.Dispatcher, logger *zap.Logger) *PersonalPermissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersonalPermissionService{profiles: profiles, dispatcher: dispatcher, logger: logger, now: time.Now}
}

// Get returns the profile owned by rawOwner. A missing profile is returned
// empty, which delegates nothing.
func (s *PersonalPermissionService) Get(ctx context.Context, rawOwner string) (*domain.PersonalPermissionProfile, error) {
	owner, err := parseEmail(rawOwner)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, owner)
}

func (s *PersonalPermissionService) load(ctx context.Context, owner domain.Email) (*domain.PersonalPermissionProfile, error) {
	profile, err := s.profiles.Get(ctx, owner)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.PersonalPermissionProfile{Owner: owner, Permissions: domain.PersonalPermissions{}}, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

// Set overwrites the caller's own profile with permissions.
func (s *PersonalPermissionService) Set(ctx context.Context, caller domain.Identity, rawOwner string, permissions map[string]map[string]bool) (*domain.PersonalPermissionProfile, error) {
	owner, err := parseEmail(rawOwner)
	if err != nil {
		return nil, err
	}
	if caller.Email != owner {
		return nil, apperrors.NewForbidden("only the owner may change personal permissions")
	}

	allowed := make(map[domain.PersonalModule]bool)
	for _, module := range domain.PersonalModulesByRole[caller.Role] {
		allowed[module] = true
	}

	grid := make(domain.PersonalPermissions, len(permissions))
	for rawModule, actions := range permissions {
		module := domain.PersonalModule(rawModule)
		if !allowed[module] {
			return nil, apperrors.NewValidationError("module is not delegable for this role", map[string]any{
				"module": rawModule,
				"role":   caller.Role,
			})
		}
		copied := make(map[string]bool, len(actions))
		for action, granted := range actions {
			if !actionKeyPattern.MatchString(action) {
				return nil, apperrors.NewValidationError("malformed action key", map[string]any{
					"module": rawModule,
					"action": action,
				})
			}
			copied[action] = granted
		}
		grid[module] = copied
	}

	profile := &domain.PersonalPermissionProfile{Owner: owner, OwnerRole: caller.Role, Permissions: grid}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, apperrors.MapError(err)
	}

	modules := make([]domain.PersonalModule, 0, len(grid))
	for _, module := range domain.PersonalModulesByRole[caller.Role] {
		if _, ok := grid[module]; ok {
			modules = append(modules, module)
		}
	}
	s.logger.Info("personal permissions updated", zap.String("owner", string(owner)), zap.Int("modules", len(modules)))
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPersonalPermissionsUpdated,
		Subject:   string(owner),
		Actor:     events.ActorFrom(caller),
		Timestamp: s.now().UTC(),
		Payload:   events.PersonalPermissionsUpdatedPayload{Owner: owner, Modules: modules},
	})
	return profile, nil
}

// IsDelegated reports whether actor may perform action on owner's module.
// Owners always act on their own resources. Peers need a delegation-compatible
// role and an explicit true entry; any lookup failure denies.
func (s *PersonalPermissionService) IsDelegated(ctx context.Context, actor domain.Identity, owner domain.Email, module domain.PersonalModule, action string) bool {
	if actor.Email != "" && actor.Email == owner {
		return true
	}
	profile, err := s.load(ctx, owner)
	if err != nil {
		s.logger.Warn("personal permission lookup failed, denying", zap.String("owner", string(owner)), zap.Error(err))
		return false
	}
	compatible := false
	for _, role := range domain.DelegateRoles[profile.OwnerRole] {
		if role == actor.Role {
			compatible = true
			break
		}
	}
	return compatible && profile.Permissions.Allows(module, action)
}
