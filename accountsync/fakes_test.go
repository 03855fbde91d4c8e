package accountsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adepafin/adepa_backend/models"
	"github.com/adepafin/adepa_backend/utils"
	"github.com/shopspring/decimal"
)

// fakeRepository keeps everything in maps so reconciliation tests run
// without a database.
type fakeRepository struct {
	mu sync.Mutex

	transactions map[string]*models.Transaction
	nextTxnId    int

	syncLogs   []*models.SyncLog
	nextLogId  int
	logUpdates map[int][]map[string]interface{}

	accounts       []models.LinkedAccount
	accountUpdates map[int][]map[string]interface{}

	settings models.SyncSettings

	authCount  int64
	errorCount int64
	staleCount int64

	txnUpdates map[int][]map[string]interface{}

	findErr   error
	insertErr error

	failNextAccountUpdate bool

	// Keys whose next Find returns nil even though the row exists,
	// simulating a concurrent writer landing between find and insert.
	findMissOnce map[string]bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		transactions:   map[string]*models.Transaction{},
		logUpdates:     map[int][]map[string]interface{}{},
		accountUpdates: map[int][]map[string]interface{}{},
		txnUpdates:     map[int][]map[string]interface{}{},
		settings:       models.DefaultSyncSettings(),
	}
}

func txnKey(userId int, externalId string) string {
	return fmt.Sprintf("%d:%s", userId, externalId)
}

func (f *fakeRepository) FindTransactionByExternalId(ctx context.Context, userId int, externalId string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	key := txnKey(userId, externalId)
	if f.findMissOnce[key] {
		delete(f.findMissOnce, key)
		return nil, nil
	}
	if txn, ok := f.transactions[key]; ok {
		copied := *txn
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeRepository) FindSyncedTransaction(ctx context.Context, externalId string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, txn := range f.transactions {
		if txn.ExternalId != nil && *txn.ExternalId == externalId {
			copied := *txn
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) InsertTransaction(ctx context.Context, input *models.NewTransaction) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.nextTxnId++
	txn := &models.Transaction{
		ID:                       f.nextTxnId,
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
	if input.ExternalId != nil {
		key := txnKey(input.UserId, *input.ExternalId)
		if _, exists := f.transactions[key]; exists {
			return nil, models.ErrDuplicateExternalId
		}
		f.transactions[key] = txn
	}
	return txn, nil
}

func (f *fakeRepository) UpdateTransaction(ctx context.Context, id int, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txnUpdates[id] = append(f.txnUpdates[id], updates)
	for _, txn := range f.transactions {
		if txn.ID != id {
			continue
		}
		if v, ok := updates["amount"]; ok {
			if amt, ok := v.(decimal.Decimal); ok {
				txn.Amount = amt.Abs()
			}
		}
		if v, ok := updates["description"]; ok {
			txn.Description = v.(string)
		}
		if v, ok := updates["external_status"]; ok {
			txn.ExternalStatus = v.(string)
		}
		if v, ok := updates["external_financial_id"]; ok {
			txn.ExternalFinancialId = v.(string)
		}
	}
	return nil
}

func (f *fakeRepository) InsertSyncLog(ctx context.Context, log *models.SyncLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextLogId++
	log.ID = f.nextLogId
	f.syncLogs = append(f.syncLogs, log)
	return nil
}

func (f *fakeRepository) UpdateSyncLog(ctx context.Context, id int, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logUpdates[id] = append(f.logUpdates[id], updates)
	return nil
}

func (f *fakeRepository) SyncLogById(ctx context.Context, userId int, id int) (*models.SyncLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, log := range f.syncLogs {
		if log.ID == id && log.UserId == userId {
			copied := *log
			return &copied, nil
		}
	}
	return nil, utils.ErrorRecordNotFound
}

func (f *fakeRepository) RecentSyncLogs(ctx context.Context, userId int, limit int) ([]models.SyncLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SyncLog
	for _, log := range f.syncLogs {
		if log.UserId == userId {
			out = append(out, *log)
		}
	}
	return out, nil
}

func (f *fakeRepository) UpdateLinkedAccount(ctx context.Context, id int, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNextAccountUpdate {
		f.failNextAccountUpdate = false
		return fmt.Errorf("account update failed")
	}
	f.accountUpdates[id] = append(f.accountUpdates[id], updates)
	return nil
}

func (f *fakeRepository) ActiveLinkedAccounts(ctx context.Context) ([]models.LinkedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.LinkedAccount(nil), f.accounts...), nil
}

func (f *fakeRepository) CountAccountsByStatus(ctx context.Context, status models.AccountSyncStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch status {
	case models.AccountSyncStatusAuthRequired:
		return f.authCount, nil
	case models.AccountSyncStatusError:
		return f.errorCount, nil
	}
	return 0, nil
}

func (f *fakeRepository) CountStaleAccounts(ctx context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.staleCount, nil
}

func (f *fakeRepository) SyncSettings(ctx context.Context) (models.SyncSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings, nil
}

// lastAccountStatus returns the most recent sync_status written for an
// account.
func (f *fakeRepository) lastAccountStatus(id int) models.AccountSyncStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	updates := f.accountUpdates[id]
	for i := len(updates) - 1; i >= 0; i-- {
		if v, ok := updates[i]["sync_status"]; ok {
			return v.(models.AccountSyncStatus)
		}
	}
	return ""
}

func (f *fakeRepository) lastLogStatus(id int) models.SyncLogStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	updates := f.logUpdates[id]
	for i := len(updates) - 1; i >= 0; i-- {
		if v, ok := updates[i]["sync_status"]; ok {
			return v.(models.SyncLogStatus)
		}
	}
	return ""
}

type fakeMomoClient struct {
	rows    []RawMomoTransaction
	initErr error
	err     error
}

func (f *fakeMomoClient) Initialize(ctx context.Context) error { return f.initErr }

func (f *fakeMomoClient) GetTransactions(ctx context.Context, phoneHandle string, startDate time.Time, endDate time.Time) ([]RawMomoTransaction, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type fakeBankClient struct {
	data   SyncData
	exists bool
	err    error
}

func (f *fakeBankClient) Initialize(ctx context.Context) error { return nil }

func (f *fakeBankClient) GetAccountSyncData(ctx context.Context, accountHandle string, startDate time.Time, endDate time.Time) (SyncData, error) {
	if f.err != nil {
		return SyncData{}, f.err
	}
	return f.data, nil
}

func (f *fakeBankClient) CheckAccountExists(ctx context.Context, accountHandle string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.exists, nil
}
