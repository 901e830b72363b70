package domain

import "time"

// PermissionFlags are four independent grants; none implies another.
type PermissionFlags struct {
	CanView   bool `json:"can_view"`
	CanCreate bool `json:"can_create"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

// Allows returns the flag backing feature. Unknown features use the view flag.
func (f PermissionFlags) Allows(feature Feature) bool {
	switch NormalizeFeature(string(feature)) {
	case FeatureCreate:
		return f.CanCreate
	case FeatureEdit:
		return f.CanEdit
	case FeatureDelete:
		return f.CanDelete
	default:
		return f.CanView
	}
}

// FlagPatch is a partially specified flag set authored by an administrator.
type FlagPatch struct {
	CanView   *bool `json:"can_view,omitempty" yaml:"can_view,omitempty"`
	CanCreate *bool `json:"can_create,omitempty" yaml:"can_create,omitempty"`
	CanEdit   *bool `json:"can_edit,omitempty" yaml:"can_edit,omitempty"`
	CanDelete *bool `json:"can_delete,omitempty" yaml:"can_delete,omitempty"`
}

// Fill resolves the patch against an all-false baseline.
func (p *FlagPatch) Fill() PermissionFlags {
	if p == nil {
		return PermissionFlags{}
	}
	return PermissionFlags{
		CanView:   deref(p.CanView),
		CanCreate: deref(p.CanCreate),
		CanEdit:   deref(p.CanEdit),
		CanDelete: deref(p.CanDelete),
	}
}

func deref(v *bool) bool {
	return v != nil && *v
}

// ModuleOverride is the administrator exception for one module.
type ModuleOverride struct {
	Flags              *FlagPatch `json:"flags,omitempty"`
	RestrictedFeatures []Feature  `json:"restricted_features"`
	UpdatedBy          Email      `json:"updated_by,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Restricts reports whether feature is listed as restricted.
func (m ModuleOverride) Restricts(feature Feature) bool {
	target := NormalizeFeature(string(feature))
	for _, restricted := range m.RestrictedFeatures {
		if NormalizeFeature(string(restricted)) == target {
			return true
		}
	}
	return false
}

// OverrideEntry holds every module override for one staff email.
type OverrideEntry struct {
	Email     Email                     `json:"email"`
	Modules   map[Module]ModuleOverride `json:"modules"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// Module returns the override for module when one is defined.
func (e *OverrideEntry) Module(module Module) (ModuleOverride, bool) {
	if e == nil || e.Modules == nil {
		return ModuleOverride{}, false
	}
	override, ok := e.Modules[module]
	return override, ok
}

// Clone returns a deep copy safe to hand across goroutines.
func (e *OverrideEntry) Clone() *OverrideEntry {
	if e == nil {
		return nil
	}
	out := &OverrideEntry{Email: e.Email, UpdatedAt: e.UpdatedAt, Modules: make(map[Module]ModuleOverride, len(e.Modules))}
	for module, override := range e.Modules {
		copied := override
		if override.Flags != nil {
			flags := *override.Flags
			copied.Flags = &flags
		}
		copied.RestrictedFeatures = append([]Feature(nil), override.RestrictedFeatures...)
		out.Modules[module] = copied
	}
	return out
}

// ManagerRegistry lists who may author overrides and review access requests.
type ManagerRegistry struct {
	Emails []Email `json:"emails"`
	Roles  []Role  `json:"roles"`
}

// Includes reports whether identity is a permission manager.
// super_admin is always a manager.
func (r ManagerRegistry) Includes(identity Identity) bool {
	if identity.Role == RoleSuperAdmin {
		return true
	}
	for _, role := range r.Roles {
		if role == identity.Role {
			return true
		}
	}
	if identity.Email == "" {
		return false
	}
	for _, email := range r.Emails {
		if email == identity.Email {
			return true
		}
	}
	return false
}

// ModuleAccess is the effective view of one module for one identity.
type ModuleAccess struct {
	Module             Module          `json:"module"`
	Flags              PermissionFlags `json:"flags"`
	RestrictedFeatures []Feature       `json:"restricted_features"`
	Overridden         bool            `json:"overridden"`
}
