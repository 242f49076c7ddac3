package domain

import "strings"

type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

func ParseRole(v string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(v))) {
	case RoleEmployee:
		return RoleEmployee, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type EnforceRequest struct {
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}

// Guard holds the ownership and role checks feature services run before touching data.
type Guard interface {
	RequireSelfOrAdmin(actor Actor, ownerID string) error
	RequireAdmin(actor Actor) error
}
