package accountsync

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/adepafin/adepa_backend/categorize"
	"github.com/adepafin/adepa_backend/config"
	"github.com/adepafin/adepa_backend/models"
)

// Reconciler runs one account's reconciliation for one date range.
// Correctness under concurrent or repeated runs comes from the upsert
// keyed on (user_id, external_id), not from locking.
type Reconciler struct {
	repo   Repository
	agg    *Aggregator
	events *Emitter
}

func NewReconciler(repo Repository, agg *Aggregator, events *Emitter) *Reconciler {
	return &Reconciler{repo: repo, agg: agg, events: events}
}

// SyncAccount fetches external transactions and reconciles them into
// storage. A fetch or initialization failure aborts the whole run and
// sets the account's sync_status; per-transaction failures are recorded
// and the batch continues.
func (r *Reconciler) SyncAccount(ctx context.Context, account models.LinkedAccount, startDate time.Time, endDate time.Time, syncType models.SyncType) (SyncResult, error) {
	if !account.IsActive {
		return SyncResult{}, newSyncError(ErrCodeAccountState, "account is not active", false)
	}

	startedAt := time.Now()
	syncLog := models.SyncLog{
		UserId:     account.UserId,
		AccountId:  account.ID,
		SyncType:   syncType,
		SyncStatus: models.SyncLogStatusInProgress,
		StartedAt:  startedAt,
	}
	if err := r.repo.InsertSyncLog(ctx, &syncLog); err != nil {
		return SyncResult{}, newSyncError(ErrCodeDatabase, err.Error(), true)
	}

	if err := r.repo.UpdateLinkedAccount(ctx, account.ID, map[string]interface{}{
		"sync_status":       models.AccountSyncStatusInProgress,
		"last_sync_attempt": startedAt,
	}); err != nil {
		// The log row already exists; it must not stay in_progress.
		r.finalize(ctx, syncLog.ID, account.ID, startedAt, 0, models.SyncLogStatusFailed, err.Error(), models.AccountSyncStatusError, nil)
		return SyncResult{}, newSyncError(ErrCodeDatabase, err.Error(), true)
	}

	data, err := r.agg.GetSyncData(ctx, account, startDate, endDate)
	if err != nil {
		accountStatus := models.AccountSyncStatusError
		if CodeOf(err) == ErrCodeAuth {
			accountStatus = models.AccountSyncStatusAuthRequired
		}
		r.finalize(ctx, syncLog.ID, account.ID, startedAt, 0, models.SyncLogStatusFailed, err.Error(), accountStatus, nil)
		return SyncResult{}, err
	}

	result := SyncResult{TotalTransactions: len(data.Transactions)}
	for _, ext := range data.Transactions {
		if strings.TrimSpace(ext.ExternalId) == "" {
			result.Errors = append(result.Errors, SyncIssue{Code: ErrCodeValidation, Message: "external id missing"})
			continue
		}

		existing, err := r.repo.FindTransactionByExternalId(ctx, account.UserId, ext.ExternalId)
		if err != nil {
			result.Errors = append(result.Errors, SyncIssue{ExternalId: ext.ExternalId, Code: ErrCodeDatabase, Message: err.Error()})
			continue
		}

		if existing == nil {
			err := r.insertSynced(ctx, account, ext)
			if err == nil {
				result.NewTransactions++
				continue
			}
			if !errors.Is(err, models.ErrDuplicateExternalId) {
				result.Errors = append(result.Errors, SyncIssue{ExternalId: ext.ExternalId, Code: ErrCodeDatabase, Message: err.Error()})
				continue
			}
			// Lost an insert race with a concurrent run; the row exists
			// now, so apply source-side changes instead.
			existing, err = r.repo.FindTransactionByExternalId(ctx, account.UserId, ext.ExternalId)
			if err != nil || existing == nil {
				result.Errors = append(result.Errors, SyncIssue{ExternalId: ext.ExternalId, Code: ErrCodeDatabase, Message: "duplicate insert but row not found"})
				continue
			}
		}

		changed, err := r.updateSynced(ctx, existing, ext)
		if err != nil {
			result.Errors = append(result.Errors, SyncIssue{ExternalId: ext.ExternalId, Code: ErrCodeDatabase, Message: err.Error()})
			continue
		}
		if changed {
			result.UpdatedTransactions++
		}
	}

	synced := result.NewTransactions + result.UpdatedTransactions
	status := models.SyncLogStatusSuccess
	accountStatus := models.AccountSyncStatusActive
	errorMessage := ""
	if len(result.Errors) > 0 && synced == 0 && result.TotalTransactions > 0 {
		// Errors on every record means the run made no progress.
		status = models.SyncLogStatusFailed
		accountStatus = models.AccountSyncStatusError
		errorMessage = result.Errors[0].Message
	}

	var syncedAt *time.Time
	if status == models.SyncLogStatusSuccess {
		now := time.Now()
		syncedAt = &now
	}
	r.finalize(ctx, syncLog.ID, account.ID, startedAt, synced, status, errorMessage, accountStatus, syncedAt)

	return result, nil
}

func (r *Reconciler) insertSynced(ctx context.Context, account models.LinkedAccount, ext ExternalTransaction) error {
	merchant := categorize.ExtractMerchant(ext.Description, "")
	hint := ""
	if merchant != categorize.UnknownMerchant {
		hint = merchant
	}
	classified := categorize.Categorize(ext.Description, ext.Amount.Abs(), hint)

	externalId := ext.ExternalId
	txn, err := r.repo.InsertTransaction(ctx, &models.NewTransaction{
		UserId:                   account.UserId,
		AccountId:                account.ID,
		Amount:                   ext.Amount.Abs(),
		Type:                     ext.Type,
		CategoryId:               classified.CategoryID,
		Description:              ext.Description,
		TransactionDate:          ext.Date,
		ExternalId:               &externalId,
		ExternalStatus:           ext.Status,
		ExternalFinancialId:      ext.FinancialTransactionId,
		IsSynced:                 true,
		AutoCategorized:          true,
		CategorizationConfidence: classified.Confidence,
	})
	if err != nil {
		return err
	}

	if r.events != nil {
		r.events.Emit(TransactionEvent{Transaction: *txn, AccountId: account.ID})
	}
	return nil
}

// updateSynced applies source-side changes to an existing record. The
// category is never touched here: a user-edited category survives every
// re-sync.
func (r *Reconciler) updateSynced(ctx context.Context, existing *models.Transaction, ext ExternalTransaction) (bool, error) {
	updates := map[string]interface{}{}

	amount := ext.Amount.Abs()
	if !existing.Amount.Equal(amount) {
		updates["amount"] = amount
	}
	if ext.Description != "" && existing.Description != ext.Description {
		updates["description"] = ext.Description
	}
	if ext.Status != "" && existing.ExternalStatus != ext.Status {
		updates["external_status"] = ext.Status
	}
	if ext.FinancialTransactionId != "" && existing.ExternalFinancialId != ext.FinancialTransactionId {
		updates["external_financial_id"] = ext.FinancialTransactionId
	}

	if len(updates) == 0 {
		return false, nil
	}
	if err := r.repo.UpdateTransaction(ctx, existing.ID, updates); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Reconciler) finalize(ctx context.Context, logId int, accountId int, startedAt time.Time, synced int, status models.SyncLogStatus, errorMessage string, accountStatus models.AccountSyncStatus, syncedAt *time.Time) {
	completedAt := time.Now()
	logUpdates := map[string]interface{}{
		"sync_status":         status,
		"transactions_synced": synced,
		"completed_at":        completedAt,
		"duration_ms":         completedAt.Sub(startedAt).Milliseconds(),
	}
	if errorMessage != "" {
		logUpdates["error_message"] = errorMessage
	}
	if err := r.repo.UpdateSyncLog(ctx, logId, logUpdates); err != nil {
		config.LogError(config.GetLogger(), "accountsync", "finalize", "update sync log", logId, err)
	}

	accountUpdates := map[string]interface{}{
		"sync_status": accountStatus,
	}
	if syncedAt != nil {
		accountUpdates["last_synced_at"] = *syncedAt
	}
	if err := r.repo.UpdateLinkedAccount(ctx, accountId, accountUpdates); err != nil {
		config.LogError(config.GetLogger(), "accountsync", "finalize", "update linked account", accountId, err)
	}
}
