package user

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Role gates mutating actions. Closed set; unknown values are rejected
// at the boundary, never stored.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleAdmin, RoleSuperAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// ValidateRole is registered on gin's validator engine as "userrole".
func ValidateRole(fl validator.FieldLevel) bool {
	_, err := ParseRole(fl.Field().String())
	return err == nil
}

type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	HashedPassword string     `json:"-"`
	FullName       string     `json:"full_name,omitempty"`
	IsActive       bool       `json:"is_active"`
	Role           Role       `json:"role"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}
