package models

import (
	"context"
	"errors"
	"time"

	"github.com/adepafin/adepa_backend/config"
	"gorm.io/gorm"
)

// LinkedAccount is a user's authorized connection to one external
// financial platform. The platform is fixed at link time; the handle
// fields are platform-specific (bank account id vs MSISDN).
type LinkedAccount struct {
	ID              int               `gorm:"primary_key" json:"id"`
	UserId          int               `gorm:"index;not null" json:"user_id"`
	Platform        Platform          `gorm:"type:enum('bank','mobile_money');not null" json:"platform"`
	BankAccountId   string            `gorm:"size:128" json:"bank_account_id"`
	PhoneNumber     string            `gorm:"size:32" json:"phone_number"`
	InstitutionName string            `gorm:"size:255" json:"institution_name"`
	IsActive        bool              `gorm:"default:true;index" json:"is_active"`
	SyncStatus      AccountSyncStatus `gorm:"size:20;default:'active'" json:"sync_status"`
	LastSyncedAt    *time.Time        `json:"last_synced_at"`
	LastSyncAttempt *time.Time        `json:"last_sync_attempt"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// Handle returns the platform-specific external account handle.
func (a LinkedAccount) Handle() string {
	if a.Platform == PlatformBank {
		return a.BankAccountId
	}
	return a.PhoneNumber
}

func GetLinkedAccountById(ctx context.Context, id int) (*LinkedAccount, error) {
	db := config.GetDB()
	var account LinkedAccount
	err := db.WithContext(ctx).Where("id = ?", id).Take(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetActiveLinkedAccounts lists every active account eligible for
// background sync. Soft-deactivated accounts are never returned.
func GetActiveLinkedAccounts(ctx context.Context) ([]LinkedAccount, error) {
	db := config.GetDB()
	var accounts []LinkedAccount
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&accounts).Error
	return accounts, err
}

func CountLinkedAccountsByStatus(ctx context.Context, status AccountSyncStatus) (int64, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).
		Model(&LinkedAccount{}).
		Where("is_active = ? AND sync_status = ?", true, status).
		Count(&count).Error
	return count, err
}

func CountStaleLinkedAccounts(ctx context.Context, olderThan time.Time) (int64, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).
		Model(&LinkedAccount{}).
		Where("is_active = ? AND (last_synced_at IS NULL OR last_synced_at < ?)", true, olderThan).
		Count(&count).Error
	return count, err
}

// DeactivateLinkedAccount soft-unlinks; transaction history keeps
// referencing the row, so it is never hard-deleted.
func DeactivateLinkedAccount(ctx context.Context, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).
		Model(&LinkedAccount{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false}).Error
}
