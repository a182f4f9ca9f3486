package entities

import (
	"strings"
	"time"
)

// Role drives route access and content permissions
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleModerator   Role = "moderator"
	RoleContributor Role = "contributor"
)

// AllRoles lists every role in display order
var AllRoles = []Role{RoleAdmin, RoleModerator, RoleContributor}

// ParseRole lowercases and trims a role as returned by the server.
// Unknown values are returned as-is so route guards can reject them.
func ParseRole(value string) Role {
	return Role(strings.ToLower(strings.TrimSpace(value)))
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleContributor:
		return true
	}
	return false
}

// Session is the persisted login state
type Session struct {
	Token    string `json:"token"`
	Role     Role   `json:"role"`
	Username string `json:"username"`
}

// CurrentUser is the logged-in user as resolved from the profile endpoint
type CurrentUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Profile mirrors the profile/ response: a nested user plus a role
type Profile struct {
	User struct {
		ID        OwnerRef `json:"id"`
		Username  string   `json:"username"`
		Email     string   `json:"email"`
		FirstName string   `json:"first_name"`
		LastName  string   `json:"last_name"`
	} `json:"user"`
	Role string `json:"role"`
}

// CurrentUser flattens the profile
func (p *Profile) CurrentUser() *CurrentUser {
	return &CurrentUser{
		ID:       p.User.ID.ID,
		Username: p.User.Username,
		Email:    p.User.Email,
		Role:     ParseRole(p.Role),
	}
}

// AuthResponse is returned by login/ and register/
type AuthResponse struct {
	Message  string `json:"message"`
	Token    string `json:"token"`
	Role     string `json:"role"`
	Username string `json:"username"`
}

// RegisterInput is the register/ request body
type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     Role   `json:"role,omitempty"`
}

// User is one row of the users/ listing
type User struct {
	ID         OwnerRef   `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	DateJoined *time.Time `json:"date_joined,omitempty"`
}
