package model

import "strings"

// Roles understood by the backend.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
	RoleClient   = "CLIENT"
)

type User struct {
	Id         string `json:"_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role,omitempty"`
	UserRole   string `json:"userRole,omitempty"`
	UserStatus string `json:"userStatus,omitempty"`
	Token      string `json:"token,omitempty"`
}

// EffectiveRole returns the role in upper case, whichever field carried it.
func (u User) EffectiveRole() string {
	role := u.UserRole
	if role == "" {
		role = u.Role
	}
	return strings.ToUpper(strings.TrimSpace(role))
}

// Credentials is the payload for sign-in and sign-up.
type Credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
	UserRole string `json:"userRole,omitempty"`
}

// Label is the name shown for the user, falling back to the email.
func (u User) Label() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return u.Email
}
