package domain

import "strings"

type Category string

const (
	CategoryAnnual Category = "annual"
	CategorySick   Category = "sick"
	CategoryCasual Category = "casual"
	CategoryUnpaid Category = "unpaid"
)

func ParseCategory(v string) (Category, bool) {
	switch c := Category(strings.ToLower(strings.TrimSpace(v))); c {
	case CategoryAnnual, CategorySick, CategoryCasual, CategoryUnpaid:
		return c, true
	default:
		return "", false
	}
}

// Ledgered reports whether approving leave of this category debits the balance ledger.
func (c Category) Ledgered() bool {
	switch c {
	case CategoryAnnual, CategorySick, CategoryCasual:
		return true
	default:
		return false
	}
}
