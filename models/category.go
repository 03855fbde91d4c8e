package models

import (
	"context"
	"time"

	"github.com/adepafin/adepa_backend/config"
)

// Category is the user-visible spending category. The rows mirror the
// static table the categorization engine scores against; seeding happens
// at migration time so category ids referenced by transactions always
// resolve.
type Category struct {
	ID        string          `gorm:"primary_key;size:64" json:"id"`
	Name      string          `gorm:"size:128;not null" json:"name"`
	Type      TransactionType `gorm:"type:enum('income','expense');not null" json:"type"`
	Icon      string          `gorm:"size:64" json:"icon"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func GetCategories(ctx context.Context) ([]Category, error) {
	db := config.GetDB()
	var categories []Category
	err := db.WithContext(ctx).Order("id").Find(&categories).Error
	return categories, err
}
