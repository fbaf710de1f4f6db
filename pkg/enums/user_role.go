package enums

import (
	"fmt"
	"strings"
)

// UserRole is the platform-wide role carried in access tokens.
type UserRole string

const (
	UserRoleCustomer        UserRole = "customer"
	UserRoleAdmin           UserRole = "admin"
	UserRoleBusinessManager UserRole = "business_manager"
	UserRoleTechnician      UserRole = "technician"
	UserRoleServiceAdvisor  UserRole = "service_advisor"
)

var validUserRoles = []UserRole{
	UserRoleCustomer,
	UserRoleAdmin,
	UserRoleBusinessManager,
	UserRoleTechnician,
	UserRoleServiceAdvisor,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role belongs to service-center staff.
func (r UserRole) IsStaff() bool {
	return r.IsValid() && r != UserRoleCustomer
}

// ParseUserRole converts raw input into a UserRole. Upper-case values such as
// "SERVICE_ADVISOR" are accepted.
func ParseUserRole(value string) (UserRole, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validUserRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
