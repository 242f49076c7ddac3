package balance

import (
	"context"
	"database/sql"
	"fmt"

	"go-leave/internal/domain"

	"gorm.io/gorm"
)

// ledgerColumns whitelists the category columns that may be interpolated into SQL.
var ledgerColumns = map[domain.Category]string{
	domain.CategoryAnnual: "annual",
	domain.CategorySick:   "sick",
	domain.CategoryCasual: "casual",
}

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindByAccountID(ctx context.Context, accountID string) (*Balance, error)
	FindByAccountIDs(ctx context.Context, accountIDs []string) ([]Balance, error)
	AccountExists(ctx context.Context, accountID string) (bool, error)
	Debit(ctx context.Context, accountID string, category domain.Category, amount int, defaults Allocation) (Balance, error)
	Set(ctx context.Context, accountID string, patch Patch, defaults Allocation) (Balance, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) FindByAccountID(ctx context.Context, accountID string) (*Balance, error) {
	var b Balance
	err := r.conn(ctx).
		Where("account_id = ?", accountID).
		Take(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) FindByAccountIDs(ctx context.Context, accountIDs []string) ([]Balance, error) {
	var balances []Balance
	if len(accountIDs) == 0 {
		return balances, nil
	}
	err := r.conn(ctx).
		Where("account_id IN ?", accountIDs).
		Find(&balances).Error
	return balances, err
}

func (r *repository) AccountExists(ctx context.Context, accountID string) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Table("accounts").
		Where("id = ?", accountID).
		Count(&count).Error
	return count > 0, err
}

// Debit subtracts amount from one category in a single upsert, clamping at zero.
// A missing row is created from defaults with the debit already applied.
func (r *repository) Debit(ctx context.Context, accountID string, category domain.Category, amount int, defaults Allocation) (Balance, error) {
	col, ok := ledgerColumns[category]
	if !ok {
		return Balance{}, fmt.Errorf("category %q has no ledger column", category)
	}

	initial := defaults.With(category, max(defaults.Get(category)-amount, 0))
	query := fmt.Sprintf(`
INSERT INTO leave_balances (account_id, annual, sick, casual, created_at, updated_at)
VALUES (?, ?, ?, ?, NOW(), NOW())
ON CONFLICT (account_id) DO UPDATE
SET %[1]s = GREATEST(leave_balances.%[1]s - ?, 0),
	updated_at = NOW()
RETURNING account_id, annual, sick, casual, created_at, updated_at
`, col)

	var b Balance
	err := r.conn(ctx).
		Raw(query, accountID, initial.Annual, initial.Sick, initial.Casual, amount).
		Scan(&b).Error
	return b, err
}

// Set overwrites the given categories in a single upsert; nil fields keep the stored value
// or, for a missing row, the default.
func (r *repository) Set(ctx context.Context, accountID string, patch Patch, defaults Allocation) (Balance, error) {
	initial := patch.Over(defaults)
	query := `
INSERT INTO leave_balances (account_id, annual, sick, casual, created_at, updated_at)
VALUES (?, ?, ?, ?, NOW(), NOW())
ON CONFLICT (account_id) DO UPDATE
SET annual = COALESCE(CAST(? AS INTEGER), leave_balances.annual),
	sick = COALESCE(CAST(? AS INTEGER), leave_balances.sick),
	casual = COALESCE(CAST(? AS INTEGER), leave_balances.casual),
	updated_at = NOW()
RETURNING account_id, annual, sick, casual, created_at, updated_at
`

	var b Balance
	err := r.conn(ctx).
		Raw(query,
			accountID, initial.Annual, initial.Sick, initial.Casual,
			patch.Annual, patch.Sick, patch.Casual,
		).
		Scan(&b).Error
	return b, err
}
