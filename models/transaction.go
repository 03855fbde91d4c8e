package models

import (
	"context"
	"errors"
	"time"

	"github.com/adepafin/adepa_backend/config"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrDuplicateExternalId marks a lost insert race on the
// (user_id, external_id) unique index.
var ErrDuplicateExternalId = errors.New("transaction with this external id already exists")

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// Transaction is the reconciled financial record. Amount is always stored
// as an absolute value; direction lives in Type.
type Transaction struct {
	ID                        int             `gorm:"primary_key" json:"id"`
	UserId                    int             `gorm:"uniqueIndex:idx_user_external,priority:1;index;not null" json:"user_id"`
	AccountId                 int             `gorm:"index" json:"account_id"`
	Amount                    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Type                      TransactionType `gorm:"type:enum('income','expense');not null" json:"type"`
	CategoryId                string          `gorm:"size:64;index" json:"category_id"`
	Description               string          `gorm:"type:text" json:"description"`
	TransactionDate           time.Time       `gorm:"not null;index" json:"transaction_date"`
	ExternalId                *string         `gorm:"uniqueIndex:idx_user_external,priority:2;size:128" json:"external_id"`
	ExternalStatus            string          `gorm:"size:20" json:"external_status"`
	ExternalFinancialId       string          `gorm:"size:128" json:"external_financial_id"`
	IsSynced                  bool            `gorm:"default:false" json:"is_synced"`
	AutoCategorized           bool            `gorm:"default:false" json:"auto_categorized"`
	CategorizationConfidence  int             `gorm:"default:0" json:"categorization_confidence"`
	CreatedAt                 time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                 time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTransaction struct {
	UserId                   int             `json:"user_id"`
	AccountId                int             `json:"account_id"`
	Amount                   decimal.Decimal `json:"amount"`
	Type                     TransactionType `json:"type"`
	CategoryId               string          `json:"category_id"`
	Description              string          `json:"description"`
	TransactionDate          time.Time       `json:"transaction_date"`
	ExternalId               *string         `json:"external_id"`
	ExternalStatus           string          `json:"external_status"`
	ExternalFinancialId      string          `json:"external_financial_id"`
	IsSynced                 bool            `json:"is_synced"`
	AutoCategorized          bool            `json:"auto_categorized"`
	CategorizationConfidence int             `json:"categorization_confidence"`
}

// GetTransactionByExternalId returns (nil, nil) when no matching record exists.
func GetTransactionByExternalId(ctx context.Context, userId int, externalId string) (*Transaction, error) {
	db := config.GetDB()
	var txn Transaction
	err := db.WithContext(ctx).
		Where("user_id = ? AND external_id = ?", userId, externalId).
		Take(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// GetSyncedTransactionByExternalId resolves a provider callback that
// carries no user context. Returns (nil, nil) when nothing matches.
func GetSyncedTransactionByExternalId(ctx context.Context, externalId string) (*Transaction, error) {
	db := config.GetDB()
	var txn Transaction
	err := db.WithContext(ctx).
		Where("external_id = ?", externalId).
		Take(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func CreateTransaction(ctx context.Context, input *NewTransaction) (*Transaction, error) {
	db := config.GetDB()
	txn := Transaction{
		UserId:                   input.UserId,
		AccountId:                input.AccountId,
		Amount:                   input.Amount.Abs(),
		Type:                     input.Type,
		CategoryId:               input.CategoryId,
		Description:              input.Description,
		TransactionDate:          input.TransactionDate,
		ExternalId:               input.ExternalId,
		ExternalStatus:           input.ExternalStatus,
		ExternalFinancialId:      input.ExternalFinancialId,
		IsSynced:                 input.IsSynced,
		AutoCategorized:          input.AutoCategorized,
		CategorizationConfidence: input.CategorizationConfidence,
	}
	if err := db.WithContext(ctx).Create(&txn).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return nil, ErrDuplicateExternalId
		}
		return nil, err
	}
	return &txn, nil
}

func UpdateTransactionFields(ctx context.Context, id int, updates map[string]interface{}) error {
	db := config.GetDB()
	return db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ?", id).
		Updates(updates).Error
}
