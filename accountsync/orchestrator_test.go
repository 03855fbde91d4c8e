package accountsync

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adepafin/adepa_backend/models"
)

type fakeSyncer struct {
	mu      sync.Mutex
	results map[int]SyncResult
	errs    map[int]error
	calls   []int

	inFlight  atomic.Int32
	highWater atomic.Int32
	delay     time.Duration
}

func (f *fakeSyncer) SyncAccount(ctx context.Context, account models.LinkedAccount, startDate time.Time, endDate time.Time, syncType models.SyncType) (SyncResult, error) {
	current := f.inFlight.Add(1)
	for {
		high := f.highWater.Load()
		if current <= high || f.highWater.CompareAndSwap(high, current) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.inFlight.Add(-1)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, account.ID)
	if err, ok := f.errs[account.ID]; ok {
		return SyncResult{}, err
	}
	return f.results[account.ID], nil
}

func activeAccount(id int) models.LinkedAccount {
	return models.LinkedAccount{
		ID:       id,
		UserId:   1,
		Platform: models.PlatformMobileMoney,
		IsActive: true,
	}
}

func TestRunBackgroundSyncAverageExcludesSkipped(t *testing.T) {
	recent := time.Now().Add(-1 * time.Hour)
	skipped := activeAccount(1)
	skipped.LastSyncedAt = &recent
	stale := activeAccount(2)

	repo := newFakeRepository()
	repo.accounts = []models.LinkedAccount{skipped, stale}
	syncer := &fakeSyncer{results: map[int]SyncResult{2: {NewTransactions: 1}}}
	orch := NewOrchestrator(repo, syncer, nil)

	// Stepping clock: every read advances 100ms, so the single attempted
	// sync measures exactly 100ms.
	var clockMu sync.Mutex
	current := time.Now()
	orch.now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		current = current.Add(100 * time.Millisecond)
		return current
	}

	summary, err := orch.RunBackgroundSync(context.Background(), TriggerSyncRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(summary.Results))
	}
	// A skipped account contributes no duration and must not dilute the
	// average down to 50.
	if summary.AverageSyncDurationMs != 100 {
		t.Fatalf("expected average of 100ms over one attempted sync, got %d", summary.AverageSyncDurationMs)
	}
}

func TestRunBackgroundSyncAggregatesResults(t *testing.T) {
	repo := newFakeRepository()
	repo.accounts = []models.LinkedAccount{activeAccount(1), activeAccount(2), activeAccount(3)}

	syncer := &fakeSyncer{
		results: map[int]SyncResult{
			1: {TotalTransactions: 3, NewTransactions: 2, UpdatedTransactions: 1},
		},
		errs: map[int]error{
			2: newSyncError(ErrCodeAuth, "token expired", false),
			3: newSyncError(ErrCodeNetwork, "timeout", true),
		},
	}
	orch := NewOrchestrator(repo, syncer, nil)

	summary, err := orch.RunBackgroundSync(context.Background(), TriggerSyncRequest{ForceSync: true})
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalAccounts != 3 {
		t.Fatalf("expected 3 accounts, got %d", summary.TotalAccounts)
	}
	if summary.SuccessfulSyncs != 1 || summary.FailedSyncs != 2 || summary.AuthErrorSyncs != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.TotalTransactionsSynced != 3 {
		t.Fatalf("expected 3 synced transactions, got %d", summary.TotalTransactionsSynced)
	}
	if len(summary.Results) != 3 {
		t.Fatalf("expected a per-account result line each, got %d", len(summary.Results))
	}
}

func TestRunBackgroundSyncRespectsDisabledFlag(t *testing.T) {
	repo := newFakeRepository()
	repo.settings.Enabled = false
	repo.accounts = []models.LinkedAccount{activeAccount(1)}
	syncer := &fakeSyncer{results: map[int]SyncResult{}}
	orch := NewOrchestrator(repo, syncer, nil)

	if _, err := orch.RunBackgroundSync(context.Background(), TriggerSyncRequest{}); err == nil {
		t.Fatal("disabled settings must block an unforced run")
	}

	if _, err := orch.RunBackgroundSync(context.Background(), TriggerSyncRequest{ForceSync: true}); err != nil {
		t.Fatalf("force flag must override the disabled setting: %v", err)
	}
	if len(syncer.calls) != 1 {
		t.Fatalf("expected one forced sync call, got %d", len(syncer.calls))
	}
}

func TestRunBackgroundSyncSkipsRecentlySynced(t *testing.T) {
	recent := time.Now().Add(-1 * time.Hour)
	account := activeAccount(1)
	account.LastSyncedAt = &recent

	repo := newFakeRepository()
	repo.accounts = []models.LinkedAccount{account}
	syncer := &fakeSyncer{results: map[int]SyncResult{}}
	orch := NewOrchestrator(repo, syncer, nil)

	summary, err := orch.RunBackgroundSync(context.Background(), TriggerSyncRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(syncer.calls) != 0 {
		t.Fatal("recently synced account must be skipped without force")
	}
	if summary.SuccessfulSyncs != 1 {
		t.Fatalf("skipped account still counts as successful, got %+v", summary)
	}

	if _, err := orch.RunBackgroundSync(context.Background(), TriggerSyncRequest{ForceSync: true}); err != nil {
		t.Fatal(err)
	}
	if len(syncer.calls) != 1 {
		t.Fatal("force flag must sync even a recently synced account")
	}
}

func TestRunBackgroundSyncBoundsConcurrency(t *testing.T) {
	repo := newFakeRepository()
	for i := 1; i <= 8; i++ {
		repo.accounts = append(repo.accounts, activeAccount(i))
	}
	syncer := &fakeSyncer{results: map[int]SyncResult{}, delay: 20 * time.Millisecond}
	orch := NewOrchestrator(repo, syncer, nil)

	if _, err := orch.RunBackgroundSync(context.Background(), TriggerSyncRequest{ForceSync: true, MaxConcurrentAccounts: 2}); err != nil {
		t.Fatal(err)
	}
	if high := syncer.highWater.Load(); high > 2 {
		t.Fatalf("concurrency bound exceeded: %d in flight", high)
	}
	if len(syncer.calls) != 8 {
		t.Fatalf("expected all 8 accounts synced, got %d", len(syncer.calls))
	}
}

func TestCheckSyncHealthReportsPairedIssues(t *testing.T) {
	repo := newFakeRepository()
	repo.authCount = 1
	repo.errorCount = 1
	repo.staleCount = 1
	orch := NewOrchestrator(repo, &fakeSyncer{}, nil)

	health, err := orch.CheckSyncHealth(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if health.IsHealthy {
		t.Fatal("expected unhealthy")
	}
	if len(health.Issues) != 3 || len(health.Recommendations) != 3 {
		t.Fatalf("expected 3 paired issues, got %+v", health)
	}
	if !strings.Contains(health.Issues[0], "re-authentication") || health.Recommendations[0] != recAuthRequired {
		t.Fatalf("auth issue not paired with its recommendation: %+v", health)
	}
	if !strings.Contains(health.Issues[1], "error state") || health.Recommendations[1] != recErrorAccounts {
		t.Fatalf("error issue not paired with its recommendation: %+v", health)
	}
	if !strings.Contains(health.Issues[2], "not synced in over 5 days") || health.Recommendations[2] != recStaleAccounts {
		t.Fatalf("stale issue not paired with its recommendation: %+v", health)
	}
}

func TestCheckSyncHealthDisabledAddsIssue(t *testing.T) {
	repo := newFakeRepository()
	repo.settings.Enabled = false
	orch := NewOrchestrator(repo, &fakeSyncer{}, nil)

	health, err := orch.CheckSyncHealth(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if health.IsHealthy || len(health.Issues) != 1 {
		t.Fatalf("expected exactly the disabled issue, got %+v", health)
	}
	if health.Issues[0] != issueSyncDisabled || health.Recommendations[0] != recSyncDisabled {
		t.Fatalf("unexpected pairing: %+v", health)
	}
}

func TestCheckSyncHealthHealthy(t *testing.T) {
	repo := newFakeRepository()
	orch := NewOrchestrator(repo, &fakeSyncer{}, nil)

	health, err := orch.CheckSyncHealth(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !health.IsHealthy || len(health.Issues) != 0 || len(health.Recommendations) != 0 {
		t.Fatalf("expected healthy with no issues, got %+v", health)
	}
}
