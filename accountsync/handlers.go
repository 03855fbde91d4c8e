package accountsync

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adepafin/adepa_backend/config"
	"github.com/adepafin/adepa_backend/models"
	"github.com/adepafin/adepa_backend/throttle"
	"github.com/adepafin/adepa_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// WebhookHandler receives provider status callbacks. The signature is
// verified over the raw body before anything is parsed.
func WebhookHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, WebhookResponse{Error: "unreadable body"})
			return
		}

		secret := os.Getenv("MOMO_WEBHOOK_SECRET")
		if err := VerifyWebhookSignature(secret, body, c.GetHeader(SignatureHeader)); err != nil {
			c.JSON(http.StatusUnauthorized, WebhookResponse{Error: "invalid signature"})
			return
		}

		resp, err := ProcessWebhook(c.Request.Context(), repo, body)
		if err != nil {
			switch CodeOf(err) {
			case ErrCodeValidation:
				c.JSON(http.StatusBadRequest, WebhookResponse{Error: err.Error()})
			case ErrCodeAccountState:
				c.JSON(http.StatusNotFound, WebhookResponse{Error: err.Error()})
			default:
				config.LogError(config.GetLogger(), "accountsync", "WebhookHandler", "process webhook", nil, err)
				c.JSON(http.StatusInternalServerError, WebhookResponse{Error: "internal error"})
			}
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// TriggerSyncHandler starts a background run for all eligible accounts.
// The throttle keeps repeated triggers from hammering the providers.
func TriggerSyncHandler(orch *Orchestrator, gate *throttle.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := utils.GetUserIdFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req TriggerSyncRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var ve validator.ValidationErrors
			if errors.As(err, &ve) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		// An allowed decision consumes the slot regardless of how the run
		// ends: the outbound provider calls happen either way, and a
		// failing backend must not be retried at an unthrottled rate.
		if gate != nil {
			decision, err := gate.Check(c.Request.Context(), strconv.Itoa(userId))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if !decision.Allowed {
				c.Header("Retry-After", strconv.FormatInt(int64(decision.RetryAfter/time.Second)+1, 10))
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "sync was triggered recently", "reason": decision.Reason})
				return
			}
		}

		if config.SyncViaPubSub() {
			payload := SyncPubSubPayload{
				ForceSync:             req.ForceSync,
				MaxConcurrentAccounts: req.MaxConcurrentAccounts,
			}
			if err := PublishSyncRun(c.Request.Context(), payload); err != nil {
				config.LogError(config.GetLogger(), "accountsync", "TriggerSyncHandler", "publish sync run", userId, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue sync"})
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"success": true, "queued": true})
			return
		}

		summary, err := orch.RunBackgroundSync(c.Request.Context(), req)
		if err != nil {
			if CodeOf(err) == ErrCodeAccountState {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, TriggerSyncResponse{
			Success:                 true,
			AccountsProcessed:       summary.TotalAccounts,
			TotalTransactionsSynced: summary.TotalTransactionsSynced,
			Results:                 summary.Results,
			Duration:                summary.DurationMs,
		})
	}
}

// SyncRunDetailHandler returns one sync log entry scoped to the caller.
func SyncRunDetailHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := utils.GetUserIdFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sync log id"})
			return
		}

		entry, err := repo.SyncLogById(c.Request.Context(), userId, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "sync log not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, mapSyncLogToResponse(*entry))
	}
}

func SyncHealthHandler(orch *Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIdFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		health, err := orch.CheckSyncHealth(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, health)
	}
}

func SyncHistoryHandler(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := utils.GetUserIdFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit := 20
		if v := strings.TrimSpace(c.Query("limit")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		logs, err := repo.RecentSyncLogs(c.Request.Context(), userId, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		items := make([]SyncLogResponse, 0, len(logs))
		for _, entry := range logs {
			items = append(items, mapSyncLogToResponse(entry))
		}
		c.JSON(http.StatusOK, SyncHistoryResponse{Items: items})
	}
}

func mapSyncLogToResponse(entry models.SyncLog) SyncLogResponse {
	var completedAt *string
	if entry.CompletedAt != nil {
		s := entry.CompletedAt.UTC().Format(time.RFC3339)
		completedAt = &s
	}
	return SyncLogResponse{
		ID:                 entry.ID,
		AccountId:          entry.AccountId,
		SyncType:           string(entry.SyncType),
		SyncStatus:         string(entry.SyncStatus),
		TransactionsSynced: entry.TransactionsSynced,
		StartedAt:          entry.StartedAt.UTC().Format(time.RFC3339),
		CompletedAt:        completedAt,
		DurationMs:         entry.DurationMs,
		ErrorMessage:       entry.ErrorMessage,
	}
}
