package accountsync

import (
	"context"
	"time"

	"github.com/adepafin/adepa_backend/config"
	"github.com/adepafin/adepa_backend/models"
)

// Repository is the persistence contract the sync components depend on.
// Everything here is atomic at the single-row level; no multi-row
// transactions are required.
type Repository interface {
	FindTransactionByExternalId(ctx context.Context, userId int, externalId string) (*models.Transaction, error)
	FindSyncedTransaction(ctx context.Context, externalId string) (*models.Transaction, error)
	InsertTransaction(ctx context.Context, input *models.NewTransaction) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, id int, updates map[string]interface{}) error

	InsertSyncLog(ctx context.Context, log *models.SyncLog) error
	UpdateSyncLog(ctx context.Context, id int, updates map[string]interface{}) error
	RecentSyncLogs(ctx context.Context, userId int, limit int) ([]models.SyncLog, error)
	SyncLogById(ctx context.Context, userId int, id int) (*models.SyncLog, error)

	UpdateLinkedAccount(ctx context.Context, id int, updates map[string]interface{}) error
	ActiveLinkedAccounts(ctx context.Context) ([]models.LinkedAccount, error)
	CountAccountsByStatus(ctx context.Context, status models.AccountSyncStatus) (int64, error)
	CountStaleAccounts(ctx context.Context, olderThan time.Time) (int64, error)

	SyncSettings(ctx context.Context) (models.SyncSettings, error)
}

type gormRepository struct{}

// NewRepository returns the gorm-backed Repository.
func NewRepository() Repository {
	return gormRepository{}
}

func (gormRepository) FindTransactionByExternalId(ctx context.Context, userId int, externalId string) (*models.Transaction, error) {
	return models.GetTransactionByExternalId(ctx, userId, externalId)
}

func (gormRepository) FindSyncedTransaction(ctx context.Context, externalId string) (*models.Transaction, error) {
	return models.GetSyncedTransactionByExternalId(ctx, externalId)
}

func (gormRepository) InsertTransaction(ctx context.Context, input *models.NewTransaction) (*models.Transaction, error) {
	return models.CreateTransaction(ctx, input)
}

func (gormRepository) UpdateTransaction(ctx context.Context, id int, updates map[string]interface{}) error {
	return models.UpdateTransactionFields(ctx, id, updates)
}

func (gormRepository) InsertSyncLog(ctx context.Context, log *models.SyncLog) error {
	return config.GetDB().WithContext(ctx).Create(log).Error
}

func (gormRepository) UpdateSyncLog(ctx context.Context, id int, updates map[string]interface{}) error {
	return config.GetDB().WithContext(ctx).
		Model(&models.SyncLog{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (gormRepository) RecentSyncLogs(ctx context.Context, userId int, limit int) ([]models.SyncLog, error) {
	return models.GetRecentSyncLogs(ctx, userId, limit)
}

func (gormRepository) SyncLogById(ctx context.Context, userId int, id int) (*models.SyncLog, error) {
	return models.GetSyncLogById(ctx, userId, id)
}

func (gormRepository) UpdateLinkedAccount(ctx context.Context, id int, updates map[string]interface{}) error {
	return config.GetDB().WithContext(ctx).
		Model(&models.LinkedAccount{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (gormRepository) ActiveLinkedAccounts(ctx context.Context) ([]models.LinkedAccount, error) {
	return models.GetActiveLinkedAccounts(ctx)
}

func (gormRepository) CountAccountsByStatus(ctx context.Context, status models.AccountSyncStatus) (int64, error) {
	return models.CountLinkedAccountsByStatus(ctx, status)
}

func (gormRepository) CountStaleAccounts(ctx context.Context, olderThan time.Time) (int64, error) {
	return models.CountStaleLinkedAccounts(ctx, olderThan)
}

func (gormRepository) SyncSettings(ctx context.Context) (models.SyncSettings, error) {
	return models.GetSyncSettings(ctx)
}
