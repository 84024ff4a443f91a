package authroles

import (
	domainauth "github.com/fixpoint/repair-api/internal/domain/auth"
)

// StaticRoleMapper maps groups by simple string membership rules.
// Precedence is admin over employee over user; unknown groups map to guest.
type StaticRoleMapper struct {
	AdminGroup    string
	EmployeeGroup string
	UserGroup     string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	for _, g := range groups {
		if m.EmployeeGroup != "" && g == m.EmployeeGroup {
			return domainauth.RoleEmployee
		}
	}
	for _, g := range groups {
		if m.UserGroup != "" && g == m.UserGroup {
			return domainauth.RoleUser
		}
	}
	return domainauth.RoleGuest
}
