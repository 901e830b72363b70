package authz

import (
	"testing"
	"time"

	"github.com/wardline-health/staff-access-service/internal/domain"
)

func boolPtr(v bool) *bool {
	return &v
}

func identity(role domain.Role, email string) domain.Identity {
	normalized, err := domain.NormalizeEmail(email)
	if err != nil {
		panic(err)
	}
	return domain.Identity{Email: normalized, Role: role}
}

func snapshotWith(entries ...domain.OverrideEntry) *Snapshot {
	return NewSnapshot(entries, domain.ManagerRegistry{}, time.Now())
}

func TestBaselineUnknownRoleOrModuleIsClosed(t *testing.T) {
	if got := Baseline(domain.Role("janitor"), domain.ModulePatients); got != (domain.PermissionFlags{}) {
		t.Fatalf("expected all-false for unknown role, got %+v", got)
	}
	if got := Baseline(domain.RoleSuperAdmin, domain.Module("morgue")); got != (domain.PermissionFlags{}) {
		t.Fatalf("expected all-false for unknown module, got %+v", got)
	}
}

func TestBaselineSuperAdminHasEverything(t *testing.T) {
	for _, module := range domain.AllModules {
		if got := Baseline(domain.RoleSuperAdmin, module); got != vced {
			t.Fatalf("super_admin %s: got %+v", module, got)
		}
	}
}

func TestResolveWithoutOverrideEqualsBaseline(t *testing.T) {
	snapshot := snapshotWith()
	for _, role := range domain.AllRoles {
		for _, module := range domain.AllModules {
			id := identity(role, "staff@hospital.org")
			if got, want := snapshot.Resolve(id, module), Baseline(role, module); got != want {
				t.Fatalf("%s/%s: got %+v want %+v", role, module, got, want)
			}
		}
	}
}

func TestResolveOverrideReplacesBaselineEntirely(t *testing.T) {
	id := identity(domain.RoleHospitalAdmin, "admin@hospital.org")
	snapshot := snapshotWith(domain.OverrideEntry{
		Email: id.Email,
		Modules: map[domain.Module]domain.ModuleOverride{
			domain.ModuleBeds: {Flags: &domain.FlagPatch{CanView: boolPtr(true), CanEdit: boolPtr(true)}},
		},
	})

	got := snapshot.Resolve(id, domain.ModuleBeds)
	want := domain.PermissionFlags{CanView: true, CanEdit: true}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if got.CanDelete {
		t.Fatalf("baseline delete must not leak through override")
	}
	if other := snapshot.Resolve(id, domain.ModuleBilling); other != Baseline(domain.RoleHospitalAdmin, domain.ModuleBilling) {
		t.Fatalf("unmentioned module should fall through to baseline, got %+v", other)
	}
}

func TestRestrictedWithoutFlagsYieldsAllFalse(t *testing.T) {
	id := identity(domain.RoleDoctor, "Dr.House@Hospital.org ")
	if Baseline(domain.RoleDoctor, domain.ModulePatients) != vce {
		t.Fatalf("unexpected doctor/patients baseline")
	}
	snapshot := snapshotWith(domain.OverrideEntry{
		Email: id.Email,
		Modules: map[domain.Module]domain.ModuleOverride{
			domain.ModulePatients: {RestrictedFeatures: []domain.Feature{"edit"}},
		},
	})

	if got := snapshot.Resolve(id, domain.ModulePatients); got != (domain.PermissionFlags{}) {
		t.Fatalf("expected all-false flags, got %+v", got)
	}
	if !snapshot.IsFeatureRestricted(id, domain.ModulePatients, domain.FeatureEdit) {
		t.Fatalf("expected edit to be restricted")
	}
	if !snapshot.IsFeatureRestricted(id, domain.ModulePatients, domain.Feature("EDIT")) {
		t.Fatalf("restriction match should ignore case")
	}
	if snapshot.CanUseFeature(id, domain.ModulePatients, domain.FeatureEdit) {
		t.Fatalf("expected edit to be unusable")
	}
}

func TestNurseBillingScenario(t *testing.T) {
	id := identity(domain.RoleNurse, "nurse@hospital.org")
	snapshot := snapshotWith()
	if got := snapshot.Resolve(id, domain.ModuleBilling); got != (domain.PermissionFlags{}) {
		t.Fatalf("expected all-false, got %+v", got)
	}
	if snapshot.CanUseFeature(id, domain.ModuleBilling, domain.FeatureView) {
		t.Fatalf("nurse must not view billing")
	}
}

func TestIsFeatureRestrictedFalseWithoutOverride(t *testing.T) {
	snapshot := snapshotWith()
	for _, role := range domain.AllRoles {
		for _, module := range domain.AllModules {
			for _, feature := range domain.AllFeatures {
				if snapshot.IsFeatureRestricted(identity(role, "x@y.org"), module, feature) {
					t.Fatalf("%s/%s/%s restricted without override", role, module, feature)
				}
			}
		}
	}
}

func TestCanUseFeatureIsFlagAndNotRestricted(t *testing.T) {
	id := identity(domain.RoleDoctor, "doc@hospital.org")
	for _, granted := range []bool{false, true} {
		for _, restricted := range []bool{false, true} {
			override := domain.ModuleOverride{Flags: &domain.FlagPatch{CanCreate: boolPtr(granted)}}
			if restricted {
				override.RestrictedFeatures = []domain.Feature{domain.FeatureCreate}
			}
			snapshot := snapshotWith(domain.OverrideEntry{
				Email:   id.Email,
				Modules: map[domain.Module]domain.ModuleOverride{domain.ModuleLab: override},
			})
			got := snapshot.CanUseFeature(id, domain.ModuleLab, domain.FeatureCreate)
			if want := granted && !restricted; got != want {
				t.Fatalf("granted=%v restricted=%v: got %v want %v", granted, restricted, got, want)
			}
		}
	}
}

func TestUnknownFeatureUsesViewFlag(t *testing.T) {
	id := identity(domain.RoleNurse, "nurse@hospital.org")
	snapshot := snapshotWith()
	if !snapshot.CanUseFeature(id, domain.ModuleDashboard, domain.Feature("export")) {
		t.Fatalf("unknown feature should fall back to view flag")
	}
	if snapshot.CanUseFeature(id, domain.ModuleBilling, domain.Feature("export")) {
		t.Fatalf("unknown feature should fall back to view flag (denied)")
	}
}

func TestIsManager(t *testing.T) {
	snapshot := NewSnapshot(nil, domain.ManagerRegistry{
		Emails: []domain.Email{"lead@hospital.org"},
		Roles:  []domain.Role{domain.RoleHospitalAdmin},
	}, time.Now())

	cases := []struct {
		id   domain.Identity
		want bool
	}{
		{identity(domain.RoleSuperAdmin, "root@hospital.org"), true},
		{identity(domain.RoleHospitalAdmin, "admin@hospital.org"), true},
		{identity(domain.RoleHeadNurse, "lead@hospital.org"), true},
		{identity(domain.RoleNurse, "nurse@hospital.org"), false},
	}
	for _, tc := range cases {
		if got := snapshot.IsManager(tc.id); got != tc.want {
			t.Fatalf("%s/%s: got %v want %v", tc.id.Role, tc.id.Email, got, tc.want)
		}
	}

	var empty *Snapshot
	if !empty.IsManager(identity(domain.RoleSuperAdmin, "root@hospital.org")) {
		t.Fatalf("super_admin is always a manager")
	}
}

func TestEffectivePermissionsCoversEveryModule(t *testing.T) {
	id := identity(domain.RoleNurse, "nurse@hospital.org")
	snapshot := snapshotWith(domain.OverrideEntry{
		Email: id.Email,
		Modules: map[domain.Module]domain.ModuleOverride{
			domain.ModuleLab: {
				Flags:              &domain.FlagPatch{CanView: boolPtr(true), CanCreate: boolPtr(true)},
				RestrictedFeatures: []domain.Feature{"Create", "create", "view"},
			},
		},
	})

	access := snapshot.EffectivePermissions(id)
	if len(access) != len(domain.AllModules) {
		t.Fatalf("expected %d modules, got %d", len(domain.AllModules), len(access))
	}
	for _, entry := range access {
		if entry.Module != domain.ModuleLab {
			if entry.Overridden || len(entry.RestrictedFeatures) != 0 {
				t.Fatalf("unexpected override data on %s", entry.Module)
			}
			continue
		}
		if !entry.Overridden {
			t.Fatalf("lab should be overridden")
		}
		if len(entry.RestrictedFeatures) != 2 || entry.RestrictedFeatures[0] != domain.FeatureView || entry.RestrictedFeatures[1] != domain.FeatureCreate {
			t.Fatalf("unexpected restricted features %v", entry.RestrictedFeatures)
		}
	}
}
