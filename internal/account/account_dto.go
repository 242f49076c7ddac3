package account

import (
	"strings"
	"time"

	"go-leave/internal/balance"
)

type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Role       string `json:"role" binding:"required"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	EmployeeID string `json:"employee_id"`
}

type AccountResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	FullName   string    `json:"full_name,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Department string    `json:"department,omitempty"`
	EmployeeID string    `json:"employee_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type AccountWithBalanceResponse struct {
	AccountResponse
	Balance balance.Allocation `json:"balance"`
}

// optional trims v and returns nil when nothing is left.
func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func mapToResponse(a Account) AccountResponse {
	return AccountResponse{
		ID:         a.ID,
		Email:      a.Email,
		Role:       a.Role,
		FullName:   deref(a.FullName),
		Phone:      deref(a.Phone),
		Department: deref(a.Department),
		EmployeeID: deref(a.EmployeeNumber),
		CreatedAt:  a.CreatedAt,
	}
}
