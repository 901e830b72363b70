package dto

import (
	"time"

	"github.com/wardline-health/staff-access-service/internal/domain"
)

// PermissionFlagsResponse mirrors domain.PermissionFlags.
type PermissionFlagsResponse struct {
	CanView   bool `json:"can_view"`
	CanCreate bool `json:"can_create"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

// ModuleAccessResponse is one row of the caller's effective permissions.
type ModuleAccessResponse struct {
	Module             string                  `json:"module"`
	Flags              PermissionFlagsResponse `json:"flags"`
	RestrictedFeatures []string                `json:"restricted_features"`
	Overridden         bool                    `json:"overridden"`
}

// MyPermissionsResponse is the body of GET /permissions/me.
type MyPermissionsResponse struct {
	Email     string                 `json:"email"`
	Role      string                 `json:"role"`
	IsManager bool                   `json:"is_manager"`
	Modules   []ModuleAccessResponse `json:"modules"`
}

// FeatureDecisionResponse answers a single feature check.
type FeatureDecisionResponse struct {
	Module     string                  `json:"module"`
	Feature    string                  `json:"feature"`
	Flags      PermissionFlagsResponse `json:"flags"`
	Restricted bool                    `json:"restricted"`
	Allowed    bool                    `json:"allowed"`
}

// SetOverrideRequest payload for PUT /overrides/:email/modules/:module.
type SetOverrideRequest struct {
	Flags              *domain.FlagPatch `json:"flags"`
	RestrictedFeatures []string          `json:"restricted_features" validate:"omitempty,dive,feature"`
}

// ModuleOverrideResponse is one module override.
type ModuleOverrideResponse struct {
	Flags              *domain.FlagPatch `json:"flags,omitempty"`
	RestrictedFeatures []string          `json:"restricted_features"`
	UpdatedBy          string            `json:"updated_by,omitempty"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// OverrideEntryResponse is every override for one email.
type OverrideEntryResponse struct {
	Email     string                            `json:"email"`
	Modules   map[string]ModuleOverrideResponse `json:"modules"`
	UpdatedAt time.Time                         `json:"updated_at"`
}

// ManagerRegistryResponse lists permission managers.
type ManagerRegistryResponse struct {
	Emails []string `json:"emails"`
	Roles  []string `json:"roles"`
}

// PersonalPermissionsRequest payload for PUT /personal-permissions/me.
type PersonalPermissionsRequest struct {
	Permissions map[string]map[string]bool `json:"permissions" validate:"required"`
}

// PersonalPermissionsResponse is an owner's delegation grid.
type PersonalPermissionsResponse struct {
	Owner       string                     `json:"owner"`
	OwnerRole   string                     `json:"owner_role,omitempty"`
	Permissions map[string]map[string]bool `json:"permissions"`
	UpdatedAt   *time.Time                 `json:"updated_at,omitempty"`
}

// NewModuleAccessResponse maps domain.ModuleAccess.
func NewModuleAccessResponse(access domain.ModuleAccess) ModuleAccessResponse {
	return ModuleAccessResponse{
		Module:             string(access.Module),
		Flags:              NewFlagsResponse(access.Flags),
		RestrictedFeatures: featureStrings(access.RestrictedFeatures),
		Overridden:         access.Overridden,
	}
}

// NewFlagsResponse maps domain.PermissionFlags.
func NewFlagsResponse(flags domain.PermissionFlags) PermissionFlagsResponse {
	return PermissionFlagsResponse{
		CanView:   flags.CanView,
		CanCreate: flags.CanCreate,
		CanEdit:   flags.CanEdit,
		CanDelete: flags.CanDelete,
	}
}

// NewOverrideEntryResponse maps domain.OverrideEntry.
func NewOverrideEntryResponse(entry domain.OverrideEntry) OverrideEntryResponse {
	out := OverrideEntryResponse{
		Email:     string(entry.Email),
		Modules:   make(map[string]ModuleOverrideResponse, len(entry.Modules)),
		UpdatedAt: entry.UpdatedAt,
	}
	for module, override := range entry.Modules {
		out.Modules[string(module)] = ModuleOverrideResponse{
			Flags:              override.Flags,
			RestrictedFeatures: featureStrings(override.RestrictedFeatures),
			UpdatedBy:          string(override.UpdatedBy),
			UpdatedAt:          override.UpdatedAt,
		}
	}
	return out
}

// NewManagerRegistryResponse maps domain.ManagerRegistry.
func NewManagerRegistryResponse(registry domain.ManagerRegistry) ManagerRegistryResponse {
	out := ManagerRegistryResponse{Emails: []string{}, Roles: []string{}}
	for _, email := range registry.Emails {
		out.Emails = append(out.Emails, string(email))
	}
	for _, role := range registry.Roles {
		out.Roles = append(out.Roles, string(role))
	}
	return out
}

// NewPersonalPermissionsResponse maps a profile.
func NewPersonalPermissionsResponse(profile domain.PersonalPermissionProfile) PersonalPermissionsResponse {
	out := PersonalPermissionsResponse{
		Owner:       string(profile.Owner),
		OwnerRole:   string(profile.OwnerRole),
		Permissions: make(map[string]map[string]bool, len(profile.Permissions)),
	}
	for module, actions := range profile.Permissions {
		copied := make(map[string]bool, len(actions))
		for action, granted := range actions {
			copied[action] = granted
		}
		out.Permissions[string(module)] = copied
	}
	if !profile.UpdatedAt.IsZero() {
		updatedAt := profile.UpdatedAt
		out.UpdatedAt = &updatedAt
	}
	return out
}

func featureStrings(features []domain.Feature) []string {
	out := make([]string, 0, len(features))
	for _, feature := range features {
		out = append(out, string(feature))
	}
	return out
}
