package domain

import "strings"

// Identity is the principal attached to a request after successful
// authentication. It is created once per request and read-only afterwards.
type Identity struct {
	ID       string
	Username string
	Email    string
	Roles    []string
}

// HasRole reports whether the identity carries the given role.
// Comparison is case-insensitive.
func (i *Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the identity carries at least one of the given roles
func (i *Identity) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if i.HasRole(role) {
			return true
		}
	}
	return false
}
