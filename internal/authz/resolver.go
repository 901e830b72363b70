package authz

import (
	"sort"
	"time"

	"github.com/wardline-health/staff-access-service/internal/domain"
)

// Snapshot is an immutable view of the administrative settings that resolution
// runs against. Callers fetch one per request and pass it in; the resolver keeps
// no state of its own.
type Snapshot struct {
	Overrides map[domain.Email]*domain.OverrideEntry `json:"overrides"`
	Managers  domain.ManagerRegistry                 `json:"managers"`
	LoadedAt  time.Time                              `json:"loaded_at"`
}

// NewSnapshot indexes entries by email.
func NewSnapshot(entries []domain.OverrideEntry, managers domain.ManagerRegistry, loadedAt time.Time) *Snapshot {
	overrides := make(map[domain.Email]*domain.OverrideEntry, len(entries))
	for i := range entries {
		overrides[entries[i].Email] = entries[i].Clone()
	}
	return &Snapshot{Overrides: overrides, Managers: managers, LoadedAt: loadedAt}
}

func (s *Snapshot) moduleOverride(identity domain.Identity, module domain.Module) (domain.ModuleOverride, bool) {
	if s == nil || identity.Email == "" {
		return domain.ModuleOverride{}, false
	}
	entry, ok := s.Overrides[identity.Email]
	if !ok {
		return domain.ModuleOverride{}, false
	}
	return entry.Module(module)
}

// Resolve returns the effective flags. An override that names the module
// replaces the baseline for that module entirely; unset flags are false.
func (s *Snapshot) Resolve(identity domain.Identity, module domain.Module) domain.PermissionFlags {
	if override, ok := s.moduleOverride(identity, module); ok {
		return override.Flags.Fill()
	}
	return Baseline(identity.Role, module)
}

// IsFeatureRestricted is true only when an override lists feature for module,
// whatever the flags say.
func (s *Snapshot) IsFeatureRestricted(identity domain.Identity, module domain.Module, feature domain.Feature) bool {
	override, ok := s.moduleOverride(identity, module)
	if !ok {
		return false
	}
	return override.Restricts(feature)
}

// CanUseFeature combines the flag and restriction axes.
func (s *Snapshot) CanUseFeature(identity domain.Identity, module domain.Module, feature domain.Feature) bool {
	return s.Resolve(identity, module).Allows(feature) && !s.IsFeatureRestricted(identity, module, feature)
}

// IsManager reports whether identity may author overrides and review requests.
func (s *Snapshot) IsManager(identity domain.Identity) bool {
	if s == nil {
		return identity.Role == domain.RoleSuperAdmin
	}
	return s.Managers.Includes(identity)
}

// EffectivePermissions resolves every module for identity.
func (s *Snapshot) EffectivePermissions(identity domain.Identity) []domain.ModuleAccess {
	out := make([]domain.ModuleAccess, 0, len(domain.AllModules))
	for _, module := range domain.AllModules {
		access := domain.ModuleAccess{
			Module:             module,
			Flags:              s.Resolve(identity, module),
			RestrictedFeatures: []domain.Feature{},
		}
		if override, ok := s.moduleOverride(identity, module); ok {
			access.Overridden = true
			access.RestrictedFeatures = NormalizeFeatures(override.RestrictedFeatures)
		}
		out = append(out, access)
	}
	return out
}

// NormalizeFeatures folds case, drops duplicates and sorts in CRUD order.
func NormalizeFeatures(features []domain.Feature) []domain.Feature {
	seen := make(map[domain.Feature]struct{}, len(features))
	out := make([]domain.Feature, 0, len(features))
	for _, feature := range features {
		normalized := domain.NormalizeFeature(string(feature))
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return featureRank(out[i]) < featureRank(out[j])
	})
	return out
}

func featureRank(feature domain.Feature) int {
	for i, known := range domain.AllFeatures {
		if known == feature {
			return i
		}
	}
	return len(domain.AllFeatures)
}
