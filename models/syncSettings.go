package models

import (
	"context"
	"errors"
	"time"

	"github.com/adepafin/adepa_backend/config"
	"gorm.io/gorm"
)

// SyncSettings is the single mutable background-sync configuration
// record. Updates take effect on the next orchestrator invocation; an
// in-flight run never re-reads it.
type SyncSettings struct {
	ID                    int       `gorm:"primary_key" json:"id"`
	Enabled               bool      `gorm:"default:true" json:"enabled"`
	FrequencyHours        int       `gorm:"default:24" json:"frequency_hours"`
	MaxConcurrentAccounts int       `gorm:"default:3" json:"max_concurrent_accounts"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const syncSettingsRowId = 1

func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		ID:                    syncSettingsRowId,
		Enabled:               true,
		FrequencyHours:        24,
		MaxConcurrentAccounts: 3,
	}
}

func GetSyncSettings(ctx context.Context) (SyncSettings, error) {
	db := config.GetDB()
	var settings SyncSettings
	err := db.WithContext(ctx).Where("id = ?", syncSettingsRowId).Take(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DefaultSyncSettings(), nil
		}
		return SyncSettings{}, err
	}
	return settings, nil
}

func UpdateSyncSettings(ctx context.Context, updates map[string]interface{}) error {
	db := config.GetDB()
	return db.WithContext(ctx).
		Model(&SyncSettings{}).
		Where("id = ?", syncSettingsRowId).
		Updates(updates).Error
}
