package domain

import "time"

// PersonalModule is a resource family a staff member owns and may delegate.
type PersonalModule string

const (
	PersonalPrescriptions PersonalModule = "prescriptions"
	PersonalSchedule      PersonalModule = "schedule"
	PersonalTasks         PersonalModule = "tasks"
	PersonalVitals        PersonalModule = "vitals"
	PersonalTransfer      PersonalModule = "transfer"
	PersonalAssign        PersonalModule = "assign"
	PersonalReject        PersonalModule = "reject"
)

var nursePersonalModules = []PersonalModule{PersonalTasks, PersonalVitals, PersonalTransfer, PersonalAssign, PersonalReject}

// PersonalModulesByRole lists the delegable modules per owner role.
var PersonalModulesByRole = map[Role][]PersonalModule{
	RoleDoctor:    {PersonalPrescriptions, PersonalSchedule},
	RoleNurse:     nursePersonalModules,
	RoleHeadNurse: nursePersonalModules,
}

// DelegateRoles lists which peer roles may act on a grant made by the owner role.
var DelegateRoles = map[Role][]Role{
	RoleDoctor:    {RoleDoctor},
	RoleNurse:     {RoleNurse, RoleHeadNurse},
	RoleHeadNurse: {RoleNurse, RoleHeadNurse},
}

// PersonalPermissions maps module -> action -> granted.
type PersonalPermissions map[PersonalModule]map[string]bool

// Allows reports whether action on module is delegated. Missing keys deny.
func (p PersonalPermissions) Allows(module PersonalModule, action string) bool {
	actions, ok := p[module]
	if !ok {
		return false
	}
	return actions[action]
}

// Clone copies the grid.
func (p PersonalPermissions) Clone() PersonalPermissions {
	out := make(PersonalPermissions, len(p))
	for module, actions := range p {
		copied := make(map[string]bool, len(actions))
		for action, granted := range actions {
			copied[action] = granted
		}
		out[module] = copied
	}
	return out
}

// PersonalPermissionProfile is owned by one staff member.
type PersonalPermissionProfile struct {
	Owner       Email
	OwnerRole   Role
	Permissions PersonalPermissions
	UpdatedAt   time.Time
}
