package models

import (
	"context"
	"errors"
	"time"

	"github.com/adepafin/adepa_backend/config"
	"github.com/adepafin/adepa_backend/utils"
	"gorm.io/gorm"
)

// SyncLog is the audit record of one reconciliation attempt. Exactly one
// row exists per attempt: created in_progress before the attempt starts
// and finalized before the attempt returns.
type SyncLog struct {
	ID                 int           `gorm:"primary_key" json:"id"`
	UserId             int           `gorm:"index;not null" json:"user_id"`
	AccountId          int           `gorm:"index" json:"account_id"`
	SyncType           SyncType      `gorm:"size:20;not null" json:"sync_type"`
	SyncStatus         SyncLogStatus `gorm:"size:20;not null" json:"sync_status"`
	TransactionsSynced int           `gorm:"default:0" json:"transactions_synced"`
	StartedAt          time.Time     `gorm:"not null" json:"started_at"`
	CompletedAt        *time.Time    `json:"completed_at"`
	DurationMs         int64         `json:"duration_ms"`
	ErrorMessage       string        `gorm:"type:text" json:"error_message"`
	CreatedAt          time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func GetSyncLogById(ctx context.Context, userId int, id int) (*SyncLog, error) {
	db := config.GetDB()
	var entry SyncLog
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userId).
		Take(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func GetRecentSyncLogs(ctx context.Context, userId int, limit int) ([]SyncLog, error) {
	db := config.GetDB()
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var logs []SyncLog
	err := db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("id desc").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
