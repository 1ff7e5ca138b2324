// Package auth resolves the tenant/role context for every request.
//
// The pipeline core trusts the resolved Identity as ground truth and
// never guesses tenant membership on its own.
package auth

import "fmt"

// Role is the closed set of caller roles. Unknown role strings resolve
// to RoleUnassigned, which can see and mutate nothing.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleTrainer    Role = "trainer"
	RoleSupport    Role = "support"
	RoleUnassigned Role = "unassigned"
)

// ParseRole maps a role string to a Role, defaulting to RoleUnassigned.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleTrainer, RoleSupport:
		return Role(s)
	default:
		return RoleUnassigned
	}
}

// Identity is the resolved caller context: who, which tenant, what role.
type Identity struct {
	UserID   string
	TenantID string
	Role     Role
}

// Validate checks that the identity is usable for core calls.
func (id Identity) Validate() error {
	if id.UserID == "" {
		return fmt.Errorf("auth: user ID is required")
	}
	if id.TenantID == "" {
		return fmt.Errorf("auth: tenant ID is required")
	}
	return nil
}
