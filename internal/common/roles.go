// File: internal/common/roles.go
package common

// Marketplace roles. Every profile carries exactly one of these.
const (
	RoleClient  = "client"
	RoleStylist = "stylist"
	RoleAdmin   = "admin"
)

// ValidRole reports whether the given string is a known role.
func ValidRole(role string) bool {
	switch role {
	case RoleClient, RoleStylist, RoleAdmin:
		return true
	}
	return false
}

// RoleOrDefault returns the role if valid, otherwise the client role.
// Signup metadata from the auth provider is untrusted input.
func RoleOrDefault(role string) string {
	if ValidRole(role) {
		return role
	}
	return RoleClient
}
