package accountsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adepafin/adepa_backend/config"
	"github.com/adepafin/adepa_backend/models"
	"github.com/bsm/redislock"
)

const (
	defaultLookbackDays = 30
	syncOverlap         = 24 * time.Hour
	stalenessThreshold  = 5 * 24 * time.Hour
	accountLockTTL      = 10 * time.Minute
)

// Fixed issue/recommendation pairs for the health check. Each issue
// maps 1:1 to its recommendation.
const (
	issueSyncDisabled  = "Background sync is disabled"
	recSyncDisabled    = "Enable background sync in sync settings"
	issueAuthRequired  = "%d account(s) require re-authentication"
	recAuthRequired    = "Ask affected users to re-link their accounts"
	issueErrorAccounts = "%d account(s) are in an error state"
	recErrorAccounts   = "Inspect recent sync logs for the failing accounts"
	issueStaleAccounts = "%d account(s) have not synced in over 5 days"
	recStaleAccounts   = "Trigger a manual sync for the stale accounts"
)

type accountSyncer interface {
	SyncAccount(ctx context.Context, account models.LinkedAccount, startDate time.Time, endDate time.Time, syncType models.SyncType) (SyncResult, error)
}

// Orchestrator runs reconciliation across all active accounts with
// bounded concurrency and answers aggregate health questions.
type Orchestrator struct {
	repo   Repository
	syncer accountSyncer
	events *Emitter
	now    func() time.Time
}

func NewOrchestrator(repo Repository, syncer accountSyncer, events *Emitter) *Orchestrator {
	return &Orchestrator{
		repo:   repo,
		syncer: syncer,
		events: events,
		now:    time.Now,
	}
}

// RunBackgroundSync reconciles every eligible active account. The
// settings record is read once at the start; mid-run updates to it wait
// for the next invocation.
func (o *Orchestrator) RunBackgroundSync(ctx context.Context, req TriggerSyncRequest) (RunSummary, error) {
	runStart := o.now()

	settings, err := o.repo.SyncSettings(ctx)
	if err != nil {
		return RunSummary{}, newSyncError(ErrCodeDatabase, err.Error(), true)
	}
	if !settings.Enabled && !req.ForceSync {
		return RunSummary{}, newSyncError(ErrCodeAccountState, "background sync is disabled", false)
	}

	maxConcurrent := settings.MaxConcurrentAccounts
	if req.MaxConcurrentAccounts > 0 {
		maxConcurrent = req.MaxConcurrentAccounts
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	accounts, err := o.repo.ActiveLinkedAccounts(ctx)
	if err != nil {
		return RunSummary{}, newSyncError(ErrCodeDatabase, err.Error(), true)
	}

	var notificationsBefore int64
	if o.events != nil {
		notificationsBefore = o.events.NotificationsSent()
	}

	summary := RunSummary{TotalAccounts: len(accounts)}
	var attempted int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrent)

	for _, account := range accounts {
		if !req.ForceSync && recentlySynced(account, settings.FrequencyHours, runStart) {
			mu.Lock()
			summary.Results = append(summary.Results, AccountSyncResult{
				AccountId:   account.ID,
				Institution: account.InstitutionName,
				Success:     true,
			})
			summary.SuccessfulSyncs++
			mu.Unlock()
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(account models.LinkedAccount) {
			defer wg.Done()
			defer func() { <-sem }()

			result := o.syncOne(ctx, account, runStart)

			mu.Lock()
			attempted++
			summary.Results = append(summary.Results, result)
			if result.Success {
				summary.SuccessfulSyncs++
				summary.TotalTransactionsSynced += result.TransactionsSynced
			} else if result.ErrorCode == ErrCodeAuth {
				summary.AuthErrorSyncs++
				summary.FailedSyncs++
			} else {
				summary.FailedSyncs++
			}
			mu.Unlock()
		}(account)
	}

	wg.Wait()

	// Skipped accounts carry no duration; average over attempted syncs only.
	if attempted > 0 {
		var totalDuration int64
		for _, result := range summary.Results {
			totalDuration += result.DurationMs
		}
		summary.AverageSyncDurationMs = totalDuration / attempted
	}
	if o.events != nil {
		summary.NotificationsSent = o.events.NotificationsSent() - notificationsBefore
	}
	summary.DurationMs = o.now().Sub(runStart).Milliseconds()
	return summary, nil
}

func (o *Orchestrator) syncOne(ctx context.Context, account models.LinkedAccount, runStart time.Time) AccountSyncResult {
	result := AccountSyncResult{
		AccountId:   account.ID,
		Institution: account.InstitutionName,
	}

	// One run per account across instances; without redis the upsert
	// semantics still keep overlapping runs safe.
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, fmt.Sprintf("SyncAccount:%d", account.ID), accountLockTTL, nil)
		if err == redislock.ErrNotObtained {
			result.ErrorCode = ErrCodeSyncInProgress
			result.ErrorMessage = "a sync for this account is already running"
			return result
		}
		if err == nil {
			defer lock.Release(ctx)
		}
	}

	startDate := runStart.AddDate(0, 0, -defaultLookbackDays)
	if account.LastSyncedAt != nil && account.LastSyncedAt.After(startDate) {
		startDate = account.LastSyncedAt.Add(-syncOverlap)
	}

	syncStart := o.now()
	syncResult, err := o.syncer.SyncAccount(ctx, account, startDate, runStart, models.SyncTypeBackground)
	result.DurationMs = o.now().Sub(syncStart).Milliseconds()
	if err != nil {
		result.ErrorCode = CodeOf(err)
		result.ErrorMessage = err.Error()
		return result
	}

	result.Success = true
	result.TransactionsSynced = syncResult.NewTransactions + syncResult.UpdatedTransactions
	return result
}

func recentlySynced(account models.LinkedAccount, frequencyHours int, now time.Time) bool {
	if account.LastSyncedAt == nil || frequencyHours <= 0 {
		return false
	}
	return now.Sub(*account.LastSyncedAt) < time.Duration(frequencyHours)*time.Hour
}

// CheckSyncHealth inspects the linked-account population and reports
// issues with their fixed recommendations. Healthy means no issues.
func (o *Orchestrator) CheckSyncHealth(ctx context.Context) (HealthCheck, error) {
	health := HealthCheck{
		Issues:          []string{},
		Recommendations: []string{},
	}

	settings, err := o.repo.SyncSettings(ctx)
	if err != nil {
		return health, newSyncError(ErrCodeDatabase, err.Error(), true)
	}
	if !settings.Enabled {
		health.Issues = append(health.Issues, issueSyncDisabled)
		health.Recommendations = append(health.Recommendations, recSyncDisabled)
	}

	authCount, err := o.repo.CountAccountsByStatus(ctx, models.AccountSyncStatusAuthRequired)
	if err != nil {
		return health, newSyncError(ErrCodeDatabase, err.Error(), true)
	}
	if authCount > 0 {
		health.Issues = append(health.Issues, fmt.Sprintf(issueAuthRequired, authCount))
		health.Recommendations = append(health.Recommendations, recAuthRequired)
	}

	errorCount, err := o.repo.CountAccountsByStatus(ctx, models.AccountSyncStatusError)
	if err != nil {
		return health, newSyncError(ErrCodeDatabase, err.Error(), true)
	}
	if errorCount > 0 {
		health.Issues = append(health.Issues, fmt.Sprintf(issueErrorAccounts, errorCount))
		health.Recommendations = append(health.Recommendations, recErrorAccounts)
	}

	staleCount, err := o.repo.CountStaleAccounts(ctx, o.now().Add(-stalenessThreshold))
	if err != nil {
		return health, newSyncError(ErrCodeDatabase, err.Error(), true)
	}
	if staleCount > 0 {
		health.Issues = append(health.Issues, fmt.Sprintf(issueStaleAccounts, staleCount))
		health.Recommendations = append(health.Recommendations, recStaleAccounts)
	}

	health.IsHealthy = len(health.Issues) == 0
	return health, nil
}
