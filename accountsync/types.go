package accountsync

import (
	"time"

	"github.com/adepafin/adepa_backend/models"
	"github.com/shopspring/decimal"
)

// ExternalTransaction is the normalized shape both platforms are mapped
// into before reconciliation. Amount keeps the source sign; the
// reconciler stores the absolute value paired with Type.
type ExternalTransaction struct {
	ExternalId             string
	Amount                 decimal.Decimal
	Currency               string
	Type                   models.TransactionType
	Description            string
	Status                 string
	FinancialTransactionId string
	Date                   time.Time
}

type AccountInfo struct {
	Name        string           `json:"name"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
	Institution string           `json:"institution"`
}

// SyncData is the Aggregator's output for one account and date range.
type SyncData struct {
	Platform          models.Platform       `json:"platform"`
	Transactions      []ExternalTransaction `json:"transactions"`
	Account           AccountInfo           `json:"account"`
	TotalTransactions int                   `json:"totalTransactions"`
}

// SyncIssue records one per-transaction failure inside a batch. The
// batch itself continues past these.
type SyncIssue struct {
	ExternalId string `json:"externalId"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

type SyncResult struct {
	TotalTransactions   int         `json:"totalTransactions"`
	NewTransactions     int         `json:"newTransactions"`
	UpdatedTransactions int         `json:"updatedTransactions"`
	Errors              []SyncIssue `json:"errors"`
}

type ValidationResult struct {
	Valid    bool            `json:"valid"`
	Error    string          `json:"error,omitempty"`
	Platform models.Platform `json:"platform,omitempty"`
}

// AccountSyncResult is one account's line in a background run summary.
type AccountSyncResult struct {
	AccountId          int    `json:"accountId"`
	Institution        string `json:"institution"`
	Success            bool   `json:"success"`
	TransactionsSynced int    `json:"transactionsSynced"`
	DurationMs         int64  `json:"durationMs"`
	ErrorCode          string `json:"errorCode,omitempty"`
	ErrorMessage       string `json:"errorMessage,omitempty"`
}

type RunSummary struct {
	TotalAccounts           int                 `json:"totalAccounts"`
	SuccessfulSyncs         int                 `json:"successfulSyncs"`
	FailedSyncs             int                 `json:"failedSyncs"`
	AuthErrorSyncs          int                 `json:"authErrorSyncs"`
	TotalTransactionsSynced int                 `json:"totalTransactionsSynced"`
	AverageSyncDurationMs   int64               `json:"averageSyncDuration"`
	NotificationsSent       int64               `json:"notificationsSent"`
	Results                 []AccountSyncResult `json:"results"`
	DurationMs              int64               `json:"duration"`
}

type HealthCheck struct {
	IsHealthy       bool     `json:"isHealthy"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

type TriggerSyncRequest struct {
	ForceSync             bool `json:"forceSync"`
	MaxConcurrentAccounts int  `json:"maxConcurrentAccounts" binding:"omitempty,min=1,max=10"`
}

type TriggerSyncResponse struct {
	Success                 bool                `json:"success"`
	AccountsProcessed       int                 `json:"accountsProcessed"`
	TotalTransactionsSynced int                 `json:"totalTransactionsSynced"`
	Results                 []AccountSyncResult `json:"results"`
	Duration                int64               `json:"duration"`
}

type SyncHistoryResponse struct {
	Items []SyncLogResponse `json:"items"`
}

type SyncLogResponse struct {
	ID                 int     `json:"id"`
	AccountId          int     `json:"accountId"`
	SyncType           string  `json:"syncType"`
	SyncStatus         string  `json:"syncStatus"`
	TransactionsSynced int     `json:"transactionsSynced"`
	StartedAt          string  `json:"startedAt"`
	CompletedAt        *string `json:"completedAt"`
	DurationMs         int64   `json:"durationMs"`
	ErrorMessage       string  `json:"errorMessage,omitempty"`
}

// WebhookPayload mirrors the mobile-money provider's callback body.
type WebhookPayload struct {
	ExternalId             string `json:"externalId"`
	Amount                 string `json:"amount"`
	Currency               string `json:"currency"`
	Status                 string `json:"status"`
	FinancialTransactionId string `json:"financialTransactionId"`
	PayerMessage           string `json:"payerMessage"`
	Reason                 string `json:"reason"`
}

type WebhookResponse struct {
	Success       bool   `json:"success"`
	TransactionId int    `json:"transactionId,omitempty"`
	Status        string `json:"status,omitempty"`
	Error         string `json:"error,omitempty"`
}

type PubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

type SyncPubSubPayload struct {
	ForceSync             bool `json:"force_sync"`
	MaxConcurrentAccounts int  `json:"max_concurrent_accounts"`
}
