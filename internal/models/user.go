package models

import "time"

// Role is the closed set of account roles recognised by the RBAC gate.
type Role string

const (
	RoleSuperAdmin      Role = "SUPER_ADMIN"
	RoleAdminKTP        Role = "ADMIN_KTP"
	RoleAdminIKD        Role = "ADMIN_IKD"
	RoleAdminPerkawinan Role = "ADMIN_PERKAWINAN"
	RoleRT              Role = "RT"
)

// LoginRoles lists the roles allowed to authenticate. Public residents submit
// through unauthenticated endpoints and never hold accounts, so every stored
// role is currently loginable; the allow-list still guards future role values.
var LoginRoles = map[Role]struct{}{
	RoleSuperAdmin:      {},
	RoleAdminKTP:        {},
	RoleAdminIKD:        {},
	RoleAdminPerkawinan: {},
	RoleRT:              {},
}

// CanLogin reports whether the role may authenticate against the API.
func (r Role) CanLogin() bool {
	_, ok := LoginRoles[r]
	return ok
}

// User represents an account stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	UUID         string    `db:"uuid" json:"uuid"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing accounts.
type UserFilter struct {
	Role      *Role
	Search    string
	Page      int
	PerPage   int
	SortBy    string
	SortOrder string
}
