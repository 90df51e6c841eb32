package domain

import "strings"

type Role string

const RoleAdmin Role = "admin"

// A Session is the current user identity read from client storage.
//
// The zero value is an anonymous session.
type Session struct {
	Email string
	Role  Role
	Token string
}

func (s Session) LoggedIn() bool {
	return strings.TrimSpace(s.Email) != ""
}

type Permissions uint8

const (
	PermAddToCart Permissions = 1 << iota
	PermManageCatalog
)

// PermissionsOf resolves what the session holder may do.
func PermissionsOf(s Session) Permissions {
	var p Permissions
	if s.LoggedIn() {
		p |= PermAddToCart
	}
	if s.Role == RoleAdmin {
		p |= PermManageCatalog
	}
	return p
}

func (p Permissions) Has(perm Permissions) bool {
	return p&perm == perm
}
