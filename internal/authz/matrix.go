package authz

import "github.com/wardline-health/staff-access-service/internal/domain"

var (
	none = domain.PermissionFlags{}
	v    = domain.PermissionFlags{CanView: true}
	vc   = domain.PermissionFlags{CanView: true, CanCreate: true}
	ve   = domain.PermissionFlags{CanView: true, CanEdit: true}
	vce  = domain.PermissionFlags{CanView: true, CanCreate: true, CanEdit: true}
	vced = domain.PermissionFlags{CanView: true, CanCreate: true, CanEdit: true, CanDelete: true}
)

// baseline is the role x module default table. Missing cells mean no access.
var baseline = map[domain.Role]map[domain.Module]domain.PermissionFlags{
	domain.RoleSuperAdmin: allModules(vced),
	domain.RoleHospitalAdmin: withCells(allModules(vced), map[domain.Module]domain.PermissionFlags{
		domain.ModuleSettings: ve,
	}),
	domain.RoleHeadNurse: {
		domain.ModuleDashboard:     v,
		domain.ModuleBeds:          vce,
		domain.ModuleAdmissions:    vce,
		domain.ModulePatients:      ve,
		domain.ModuleDoctors:       v,
		domain.ModuleNurses:        vce,
		domain.ModuleAppointments:  v,
		domain.ModuleFacilities:    v,
		domain.ModuleReports:       v,
		domain.ModuleNotifications: vce,
		domain.ModuleTasks:         vced,
		domain.ModuleLab:           v,
		domain.ModulePharmacy:      v,
		domain.ModuleVitals:        vce,
	},
	domain.RoleDoctor: {
		domain.ModuleDashboard:     v,
		domain.ModuleBeds:          v,
		domain.ModuleAdmissions:    vce,
		domain.ModulePatients:      vce,
		domain.ModuleDoctors:       v,
		domain.ModuleNurses:        v,
		domain.ModuleAppointments:  vce,
		domain.ModuleFacilities:    v,
		domain.ModuleReports:       v,
		domain.ModuleNotifications: vc,
		domain.ModuleTasks:         vce,
		domain.ModuleLab:           vce,
		domain.ModulePharmacy:      v,
		domain.ModuleVitals:        vce,
	},
	domain.RoleNurse: {
		domain.ModuleDashboard:     v,
		domain.ModuleBeds:          ve,
		domain.ModuleAdmissions:    v,
		domain.ModulePatients:      ve,
		domain.ModuleDoctors:       v,
		domain.ModuleNurses:        v,
		domain.ModuleAppointments:  v,
		domain.ModuleFacilities:    v,
		domain.ModuleNotifications: v,
		domain.ModuleTasks:         ve,
		domain.ModuleLab:           v,
		domain.ModulePharmacy:      v,
		domain.ModuleVitals:        vce,
	},
	domain.RoleReceptionist: {
		domain.ModuleDashboard:     v,
		domain.ModuleBeds:          v,
		domain.ModuleAdmissions:    vce,
		domain.ModulePatients:      vce,
		domain.ModuleDoctors:       v,
		domain.ModuleAppointments:  vced,
		domain.ModuleFacilities:    v,
		domain.ModuleBilling:       v,
		domain.ModuleNotifications: v,
	},
	domain.RoleBillingStaff: {
		domain.ModuleDashboard:     v,
		domain.ModuleAdmissions:    v,
		domain.ModulePatients:      v,
		domain.ModuleBilling:       vce,
		domain.ModuleReports:       v,
		domain.ModuleNotifications: v,
		domain.ModulePharmacy:      v,
	},
}

func allModules(flags domain.PermissionFlags) map[domain.Module]domain.PermissionFlags {
	out := make(map[domain.Module]domain.PermissionFlags, len(domain.AllModules))
	for _, module := range domain.AllModules {
		out[module] = flags
	}
	return out
}

func withCells(base, cells map[domain.Module]domain.PermissionFlags) map[domain.Module]domain.PermissionFlags {
	for module, flags := range cells {
		base[module] = flags
	}
	return base
}

// Baseline returns the role default for module. Unknown role or module yields
// the all-false set.
func Baseline(role domain.Role, module domain.Module) domain.PermissionFlags {
	modules, ok := baseline[role]
	if !ok {
		return none
	}
	flags, ok := modules[module]
	if !ok {
		return none
	}
	return flags
}
