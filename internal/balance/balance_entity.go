package balance

import (
	"time"

	"go-leave/internal/domain"
)

type Balance struct {
	AccountID string `gorm:"type:varchar(128);primaryKey"`
	Annual    int    `gorm:"type:int;not null"`
	Sick      int    `gorm:"type:int;not null"`
	Casual    int    `gorm:"type:int;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Balance) TableName() string {
	return "leave_balances"
}

// Allocation is a set of per-category day counts.
type Allocation struct {
	Annual int `json:"annual"`
	Sick   int `json:"sick"`
	Casual int `json:"casual"`
}

func (a Allocation) Get(c domain.Category) int {
	switch c {
	case domain.CategoryAnnual:
		return a.Annual
	case domain.CategorySick:
		return a.Sick
	case domain.CategoryCasual:
		return a.Casual
	default:
		return 0
	}
}

// With returns a copy of a with category c replaced by days.
func (a Allocation) With(c domain.Category, days int) Allocation {
	switch c {
	case domain.CategoryAnnual:
		a.Annual = days
	case domain.CategorySick:
		a.Sick = days
	case domain.CategoryCasual:
		a.Casual = days
	}
	return a
}

func (b Balance) Allocation() Allocation {
	return Allocation{Annual: b.Annual, Sick: b.Sick, Casual: b.Casual}
}

// Patch carries an admin overwrite; nil fields keep their stored value.
type Patch struct {
	Annual *int
	Sick   *int
	Casual *int
}

func (p Patch) Empty() bool {
	return p.Annual == nil && p.Sick == nil && p.Casual == nil
}

// Over applies p on top of base.
func (p Patch) Over(base Allocation) Allocation {
	if p.Annual != nil {
		base.Annual = *p.Annual
	}
	if p.Sick != nil {
		base.Sick = *p.Sick
	}
	if p.Casual != nil {
		base.Casual = *p.Casual
	}
	return base
}
