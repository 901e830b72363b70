package domain

import "strings"

// Role enumerates hospital staff roles.
type Role string

const (
	RoleSuperAdmin    Role = "super_admin"
	RoleHospitalAdmin Role = "hospital_admin"
	RoleHeadNurse     Role = "head_nurse"
	RoleDoctor        Role = "doctor"
	RoleNurse         Role = "nurse"
	RoleReceptionist  Role = "receptionist"
	RoleBillingStaff  Role = "billing_staff"
)

// AllRoles lists the closed role set in display order.
var AllRoles = []Role{
	RoleSuperAdmin,
	RoleHospitalAdmin,
	RoleHeadNurse,
	RoleDoctor,
	RoleNurse,
	RoleReceptionist,
	RoleBillingStaff,
}

// ParseRole converts user input into a Role.
func ParseRole(raw string) (Role, bool) {
	candidate := Role(strings.ToLower(strings.TrimSpace(raw)))
	for _, role := range AllRoles {
		if role == candidate {
			return role, true
		}
	}
	return "", false
}

// Valid reports whether the role is part of the closed set.
func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}
