package domain

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

// ParseRole validates a raw role string at the boundary.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleEmployee, RoleManager:
		return Role(raw), true
	}
	return "", false
}

// Account is the domain model for registered users.
type Account struct {
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
