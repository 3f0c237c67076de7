package domain

import (
	"encoding/json"
	"fmt"
)

// Role is an ordered account role: User < Manager < Admin.
type Role int

const (
	RoleUser Role = iota
	RoleManager
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleUser:    "User",
	RoleManager: "Manager",
	RoleAdmin:   "Admin",
}

// String returns the wire name of the role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "User"
}

// AtLeast reports whether the role grants at least the capabilities of min.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// ParseRole maps a wire name back to a Role.
func ParseRole(name string) (Role, bool) {
	for role, n := range roleNames {
		if n == name {
			return role, true
		}
	}
	return RoleUser, false
}

// MarshalJSON encodes the role as its wire name.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a role from its wire name.
func (r *Role) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	role, ok := ParseRole(name)
	if !ok {
		return fmt.Errorf("unknown role %q", name)
	}
	*r = role
	return nil
}
