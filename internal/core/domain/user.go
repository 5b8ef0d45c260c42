package domain

import "time"

type Role string

const (
	RoleAdmin            Role = "admin"
	RoleSalesperson      Role = "salesperson"
	RoleWarehouseManager Role = "warehouse_manager"
)

// Valid reports whether r is one of the recognised roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSalesperson, RoleWarehouseManager:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusInvited UserStatus = "invited"
	UserStatusActive  UserStatus = "active"
)

type User struct {
	ID                     string
	Email                  string
	FirstName              string
	LastName               string
	PhoneNumber            string
	EmergencyContactNumber string
	PasswordHash           string
	Role                   Role
	Status                 UserStatus
	CreatedAt              time.Time
}

// Actor is the authenticated principal attached to a request by the auth
// middleware. It carries only what authorization decisions need.
type Actor struct {
	UserID string
	Role   Role
}

// HasAnyRole reports whether the actor holds one of the given roles.
func (a Actor) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
