package account

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, a *Account) error
	FindByID(ctx context.Context, id string) (*Account, error)
	FindAll(ctx context.Context) ([]Account, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *repository) Create(ctx context.Context, a *Account) error {
	return r.conn(ctx).Create(a).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Account, error) {
	var a Account
	err := r.conn(ctx).
		Where("id = ?", id).
		Take(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) FindAll(ctx context.Context) ([]Account, error) {
	var accounts []Account
	err := r.conn(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&accounts).Error
	return accounts, err
}
