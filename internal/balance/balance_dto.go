package balance

import "time"

// MaxBalanceDays is the largest value the int4 ledger columns hold.
const MaxBalanceDays = 1<<31 - 1

type SetBalanceRequest struct {
	Annual *int `json:"annual" binding:"omitempty,min=0,max=2147483647"`
	Sick   *int `json:"sick" binding:"omitempty,min=0,max=2147483647"`
	Casual *int `json:"casual" binding:"omitempty,min=0,max=2147483647"`
}

type BalanceResponse struct {
	AccountID string     `json:"account_id"`
	Annual    int        `json:"annual"`
	Sick      int        `json:"sick"`
	Casual    int        `json:"casual"`
	IsDefault bool       `json:"is_default"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func mapToResponse(b Balance) BalanceResponse {
	updatedAt := b.UpdatedAt
	return BalanceResponse{
		AccountID: b.AccountID,
		Annual:    b.Annual,
		Sick:      b.Sick,
		Casual:    b.Casual,
		UpdatedAt: &updatedAt,
	}
}

func defaultResponse(accountID string, a Allocation) BalanceResponse {
	return BalanceResponse{
		AccountID: accountID,
		Annual:    a.Annual,
		Sick:      a.Sick,
		Casual:    a.Casual,
		IsDefault: true,
	}
}
