package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

func (t *TransactionType) Scan(value interface{}) error {
	s, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("transaction type must be string")
		}
		s = []byte(str)
	}
	*t = TransactionType(s)
	if !t.Valid() {
		return fmt.Errorf("invalid transaction type %q", string(s))
	}
	return nil
}

func (t TransactionType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid transaction type %q", string(t))
	}
	return string(t), nil
}

type Platform string

const (
	PlatformBank        Platform = "bank"
	PlatformMobileMoney Platform = "mobile_money"
)

func (p Platform) Valid() bool {
	return p == PlatformBank || p == PlatformMobileMoney
}

// AccountSyncStatus is driven only by reconciliation outcomes.
type AccountSyncStatus string

const (
	AccountSyncStatusActive       AccountSyncStatus = "active"
	AccountSyncStatusAuthRequired AccountSyncStatus = "auth_required"
	AccountSyncStatusError        AccountSyncStatus = "error"
	AccountSyncStatusInProgress   AccountSyncStatus = "in_progress"
)

type SyncLogStatus string

const (
	SyncLogStatusInProgress SyncLogStatus = "in_progress"
	SyncLogStatusSuccess    SyncLogStatus = "success"
	SyncLogStatusFailed     SyncLogStatus = "failed"
)

type SyncType string

const (
	SyncTypeManual     SyncType = "manual"
	SyncTypeWebhook    SyncType = "webhook"
	SyncTypeBackground SyncType = "background"
)

// MomoStatus is the provider-side transaction status carried by mobile
// money webhooks and fetches.
type MomoStatus string

const (
	MomoStatusPending    MomoStatus = "PENDING"
	MomoStatusSuccessful MomoStatus = "SUCCESSFUL"
	MomoStatusFailed     MomoStatus = "FAILED"
)

func (s MomoStatus) Valid() bool {
	return s == MomoStatusPending || s == MomoStatusSuccessful || s == MomoStatusFailed
}
