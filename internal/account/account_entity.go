package account

import "time"

type Account struct {
	ID             string  `gorm:"type:varchar(128);primaryKey"`
	Email          string  `gorm:"type:varchar(255);not null;uniqueIndex:uq_accounts_email"`
	Role           string  `gorm:"type:varchar(20);not null;default:'employee'"`
	FullName       *string `gorm:"type:varchar(255)"`
	Phone          *string `gorm:"type:varchar(50)"`
	Department     *string `gorm:"type:varchar(100)"`
	EmployeeNumber *string `gorm:"type:varchar(50)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
