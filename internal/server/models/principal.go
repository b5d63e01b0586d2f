// Package models holds the server-side records shared by the auth
// services and the repositories.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Role is the closed set of authorization roles.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole accepts exactly "USER" or "ADMIN". Any other spelling, including
// "admin", is unknown.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// RoleOrDefault maps empty or unrecognized input to the least-privileged role.
func RoleOrDefault(s string) Role {
	r, err := ParseRole(s)
	if err != nil {
		return RoleUser
	}
	return r
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (r Role) String() string { return string(r) }

// Principal is an authenticated identity as stored in the users table.
type Principal struct {
	ID           int64
	UID          string
	PasswordHash string
	Role         Role
	StarCount    int
	CreatedAt    time.Time
}
