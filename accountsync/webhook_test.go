package accountsync

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adepafin/adepa_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func seedWebhookTransaction(repo *fakeRepository) *models.Transaction {
	externalId := "momo-500"
	txn, err := repo.InsertTransaction(context.Background(), &models.NewTransaction{
		UserId:          42,
		AccountId:       7,
		Amount:          decimal.RequireFromString("80.00"),
		Type:            models.TransactionTypeExpense,
		CategoryId:      "other",
		Description:     "Pending payment",
		ExternalId:      &externalId,
		ExternalStatus:  "PENDING",
		IsSynced:        true,
		AutoCategorized: true,
	})
	if err != nil {
		panic(err)
	}
	return txn
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"externalId":"momo-500"}`)
	secret := "topsecret"

	if err := VerifyWebhookSignature(secret, body, signBody(secret, body)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	upperHex := "sha256=" + strings.ToUpper(strings.TrimPrefix(signBody(secret, body), "sha256="))
	if err := VerifyWebhookSignature(secret, body, upperHex); err != nil {
		t.Fatalf("hex comparison must be case-insensitive: %v", err)
	}
	if err := VerifyWebhookSignature(secret, body, signBody("wrong", body)); err == nil {
		t.Fatal("wrong-secret signature accepted")
	}
	if err := VerifyWebhookSignature(secret, body, ""); err == nil {
		t.Fatal("missing signature accepted while a secret is configured")
	}
}

func TestVerifyWebhookSignatureSoftFail(t *testing.T) {
	body := []byte(`{}`)

	t.Setenv("REQUIRE_WEBHOOK_SECRET", "")
	if err := VerifyWebhookSignature("", body, ""); err != nil {
		t.Fatalf("unsigned payload must pass when no secret is configured: %v", err)
	}

	t.Setenv("REQUIRE_WEBHOOK_SECRET", "true")
	if err := VerifyWebhookSignature("", body, ""); err == nil {
		t.Fatal("REQUIRE_WEBHOOK_SECRET must close the soft-fail")
	}
}

func TestProcessWebhookUpdatesTransaction(t *testing.T) {
	repo := newFakeRepository()
	txn := seedWebhookTransaction(repo)

	body, _ := json.Marshal(WebhookPayload{
		ExternalId:             "momo-500",
		Status:                 "SUCCESSFUL",
		FinancialTransactionId: "fin-99",
	})
	resp, err := ProcessWebhook(context.Background(), repo, body)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.TransactionId != txn.ID || resp.Status != "SUCCESSFUL" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	updated, _ := repo.FindSyncedTransaction(context.Background(), "momo-500")
	if updated.ExternalStatus != "SUCCESSFUL" || updated.ExternalFinancialId != "fin-99" {
		t.Fatalf("transaction not updated: %+v", updated)
	}

	if len(repo.syncLogs) != 1 {
		t.Fatalf("expected one webhook sync log, got %d", len(repo.syncLogs))
	}
	log := repo.syncLogs[0]
	if log.SyncType != models.SyncTypeWebhook || log.SyncStatus != models.SyncLogStatusSuccess || log.TransactionsSynced != 1 {
		t.Fatalf("unexpected sync log: %+v", log)
	}
}

func TestProcessWebhookFailureAppendsReason(t *testing.T) {
	repo := newFakeRepository()
	seedWebhookTransaction(repo)

	body, _ := json.Marshal(WebhookPayload{
		ExternalId: "momo-500",
		Status:     "FAILED",
		Reason:     "payer limit exceeded",
	})
	if _, err := ProcessWebhook(context.Background(), repo, body); err != nil {
		t.Fatal(err)
	}

	updated, _ := repo.FindSyncedTransaction(context.Background(), "momo-500")
	if updated.ExternalStatus != "FAILED" {
		t.Fatalf("status not applied: %+v", updated)
	}
	if !strings.Contains(updated.Description, "payer limit exceeded") {
		t.Fatalf("failure reason not appended to description: %q", updated.Description)
	}
}

func TestProcessWebhookNeverInserts(t *testing.T) {
	repo := newFakeRepository()

	body, _ := json.Marshal(WebhookPayload{ExternalId: "unknown-id", Status: "SUCCESSFUL"})
	_, err := ProcessWebhook(context.Background(), repo, body)
	if err == nil {
		t.Fatal("expected not-found error")
	}
	if CodeOf(err) != ErrCodeAccountState {
		t.Fatalf("expected account state code, got %q", CodeOf(err))
	}
	if len(repo.transactions) != 0 {
		t.Fatal("webhook must never insert a transaction")
	}
}

func TestProcessWebhookRejectsBadPayload(t *testing.T) {
	repo := newFakeRepository()

	if _, err := ProcessWebhook(context.Background(), repo, []byte("{not json")); CodeOf(err) != ErrCodeValidation {
		t.Fatalf("expected validation error for malformed body, got %v", err)
	}
	body, _ := json.Marshal(WebhookPayload{ExternalId: "momo-500", Status: "UNKNOWN"})
	if _, err := ProcessWebhook(context.Background(), repo, body); CodeOf(err) != ErrCodeValidation {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestWebhookHandlerSignatureGate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("MOMO_WEBHOOK_SECRET", "topsecret")
	t.Setenv("REQUIRE_WEBHOOK_SECRET", "")

	repo := newFakeRepository()
	seedWebhookTransaction(repo)

	router := gin.New()
	router.POST("/webhooks/momo", WebhookHandler(repo))

	body, _ := json.Marshal(WebhookPayload{
		ExternalId:             "momo-500",
		Status:                 "SUCCESSFUL",
		FinancialTransactionId: "fin-99",
	})

	// Valid signature updates the transaction.
	req := httptest.NewRequest(http.MethodPost, "/webhooks/momo", strings.NewReader(string(body)))
	req.Header.Set(SignatureHeader, signBody("topsecret", body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Invalid signature is rejected and the transaction is untouched.
	repo2 := newFakeRepository()
	seedWebhookTransaction(repo2)
	router2 := gin.New()
	router2.POST("/webhooks/momo", WebhookHandler(repo2))

	req = httptest.NewRequest(http.MethodPost, "/webhooks/momo", strings.NewReader(string(body)))
	req.Header.Set(SignatureHeader, signBody("wrong", body))
	rec = httptest.NewRecorder()
	router2.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	untouched, _ := repo2.FindSyncedTransaction(context.Background(), "momo-500")
	if untouched.ExternalStatus != "PENDING" {
		t.Fatalf("transaction modified despite bad signature: %+v", untouched)
	}

	// Missing transaction yields 404.
	repo3 := newFakeRepository()
	router3 := gin.New()
	router3.POST("/webhooks/momo", WebhookHandler(repo3))
	req = httptest.NewRequest(http.MethodPost, "/webhooks/momo", strings.NewReader(string(body)))
	req.Header.Set(SignatureHeader, signBody("topsecret", body))
	rec = httptest.NewRecorder()
	router3.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
