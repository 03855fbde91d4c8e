package accountsync

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/adepafin/adepa_backend/config"
	"github.com/adepafin/adepa_backend/models"
)

const (
	SignatureHeader = "X-Momo-Signature"
	signaturePrefix = "sha256="
)

// VerifyWebhookSignature checks an HMAC-SHA256 hex signature over the
// raw body. With no secret configured, unsigned payloads are accepted
// and logged; that soft-fail exists for environments without provider
// secrets and can be closed with REQUIRE_WEBHOOK_SECRET.
func VerifyWebhookSignature(secret string, body []byte, signature string) error {
	secret = strings.TrimSpace(secret)
	signature = strings.TrimSpace(signature)

	if secret == "" {
		if config.RequireWebhookSecret() {
			return newSyncError(ErrCodeSignature, "webhook secret is required but not configured", false)
		}
		config.GetLogger().Warn("webhook accepted without signature verification, no secret configured")
		return nil
	}

	if signature == "" {
		return newSyncError(ErrCodeSignature, "signature header missing", false)
	}
	signature = strings.TrimPrefix(signature, signaturePrefix)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !strings.EqualFold(expected, signature) {
		return newSyncError(ErrCodeSignature, "signature mismatch", false)
	}
	return nil
}

// ProcessWebhook applies one provider status callback to exactly one
// existing transaction. Webhooks only update, never insert.
func ProcessWebhook(ctx context.Context, repo Repository, body []byte) (WebhookResponse, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookResponse{}, newSyncError(ErrCodeValidation, "invalid webhook payload", false)
	}
	if strings.TrimSpace(payload.ExternalId) == "" {
		return WebhookResponse{}, newSyncError(ErrCodeValidation, "externalId is required", false)
	}
	status := models.MomoStatus(strings.ToUpper(strings.TrimSpace(payload.Status)))
	if status != models.MomoStatusPending && status != models.MomoStatusSuccessful && status != models.MomoStatusFailed {
		return WebhookResponse{}, newSyncError(ErrCodeValidation, "unknown status", false)
	}

	startedAt := time.Now()

	txn, err := repo.FindSyncedTransaction(ctx, payload.ExternalId)
	if err != nil {
		return WebhookResponse{}, newSyncError(ErrCodeDatabase, err.Error(), true)
	}
	if txn == nil {
		return WebhookResponse{}, newSyncError(ErrCodeAccountState, "no transaction matches the external id", false)
	}

	updates := map[string]interface{}{
		"external_status": string(status),
	}
	if strings.TrimSpace(payload.FinancialTransactionId) != "" {
		updates["external_financial_id"] = strings.TrimSpace(payload.FinancialTransactionId)
	}
	if status == models.MomoStatusFailed && strings.TrimSpace(payload.Reason) != "" {
		updates["description"] = txn.Description + " (failed: " + strings.TrimSpace(payload.Reason) + ")"
	}
	if err := repo.UpdateTransaction(ctx, txn.ID, updates); err != nil {
		return WebhookResponse{}, newSyncError(ErrCodeDatabase, err.Error(), true)
	}

	completedAt := time.Now()
	syncLog := models.SyncLog{
		UserId:             txn.UserId,
		AccountId:          txn.AccountId,
		SyncType:           models.SyncTypeWebhook,
		SyncStatus:         models.SyncLogStatusSuccess,
		TransactionsSynced: 1,
		StartedAt:          startedAt,
		CompletedAt:        &completedAt,
		DurationMs:         completedAt.Sub(startedAt).Milliseconds(),
	}
	if err := repo.InsertSyncLog(ctx, &syncLog); err != nil {
		config.LogError(config.GetLogger(), "accountsync", "ProcessWebhook", "insert sync log", txn.ID, err)
	}

	return WebhookResponse{
		Success:       true,
		TransactionId: txn.ID,
		Status:        string(status),
	}, nil
}
