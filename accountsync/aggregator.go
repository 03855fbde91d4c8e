package accountsync

import (
	"context"
	"strings"
	"time"

	"github.com/adepafin/adepa_backend/models"
	"github.com/adepafin/adepa_backend/utils"
	"github.com/shopspring/decimal"
)

// Aggregator normalizes the two heterogeneous sources into one
// transaction shape before reconciliation.
type Aggregator struct {
	bank BankClient
	momo MomoClient
}

func NewAggregator(bank BankClient, momo MomoClient) *Aggregator {
	return &Aggregator{bank: bank, momo: momo}
}

// GetSyncData dispatches on the account's platform tag. The handle
// field is validated here so a misconfigured account fails loudly
// instead of being guessed at.
func (a *Aggregator) GetSyncData(ctx context.Context, account models.LinkedAccount, startDate time.Time, endDate time.Time) (SyncData, error) {
	switch account.Platform {
	case models.PlatformBank:
		if strings.TrimSpace(account.BankAccountId) == "" {
			return SyncData{}, newSyncError(ErrCodeValidation, "bank account is missing its account handle", false)
		}
		return a.bank.GetAccountSyncData(ctx, account.BankAccountId, startDate, endDate)
	case models.PlatformMobileMoney:
		if strings.TrimSpace(account.PhoneNumber) == "" {
			return SyncData{}, newSyncError(ErrCodeValidation, "mobile money account is missing its phone number", false)
		}
		return a.getMomoSyncData(ctx, account, startDate, endDate)
	default:
		return SyncData{}, newSyncError(ErrCodeValidation, "unknown account platform", false)
	}
}

func (a *Aggregator) getMomoSyncData(ctx context.Context, account models.LinkedAccount, startDate time.Time, endDate time.Time) (SyncData, error) {
	partyId, err := utils.NormalizePhoneNumber(account.PhoneNumber, utils.CountryCode)
	if err != nil {
		return SyncData{}, newSyncError(ErrCodeValidation, "mobile money number is not valid", false)
	}

	rows, err := a.momo.GetTransactions(ctx, partyId, startDate, endDate)
	if err != nil {
		return SyncData{}, err
	}

	transactions := make([]ExternalTransaction, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(strings.TrimSpace(row.Amount))
		if err != nil {
			amount = decimal.Zero
		}
		description := strings.TrimSpace(row.PayerMessage)
		if description == "" {
			description = strings.TrimSpace(row.PayeeNote)
		}
		transactions = append(transactions, ExternalTransaction{
			ExternalId:             strings.TrimSpace(row.ExternalId),
			Amount:                 amount,
			Currency:               strings.TrimSpace(row.Currency),
			Type:                   inferMomoType(description),
			Description:            description,
			Status:                 strings.ToUpper(strings.TrimSpace(row.Status)),
			FinancialTransactionId: strings.TrimSpace(row.FinancialTransactionId),
			Date:                   parseTimeOrNow(row.Timestamp),
		})
	}

	institution := account.InstitutionName
	if institution == "" {
		institution = "MTN Mobile Money"
	}

	return SyncData{
		Platform:     models.PlatformMobileMoney,
		Transactions: transactions,
		Account: AccountInfo{
			Name:        institution,
			Institution: institution,
		},
		TotalTransactions: len(transactions),
	}, nil
}

var (
	momoIncomeWords  = []string{"received", "credit", "deposit", "salary"}
	momoExpenseWords = []string{"sent", "paid", "purchase", "bill", "transfer"}
)

// inferMomoType guesses direction from the payer message. Mobile-money
// transactions are predominantly outgoing, so ambiguous text defaults
// to expense. Misclassification is accepted noise.
func inferMomoType(payerMessage string) models.TransactionType {
	text := strings.ToLower(payerMessage)
	for _, word := range momoIncomeWords {
		if strings.Contains(text, word) {
			return models.TransactionTypeIncome
		}
	}
	for _, word := range momoExpenseWords {
		if strings.Contains(text, word) {
			return models.TransactionTypeExpense
		}
	}
	return models.TransactionTypeExpense
}

// ValidateAccount checks an account's handle without syncing. Bank
// handles are verified against the provider; phone numbers are checked
// for format only, never with a live call.
func (a *Aggregator) ValidateAccount(ctx context.Context, account models.LinkedAccount) ValidationResult {
	switch account.Platform {
	case models.PlatformBank:
		if strings.TrimSpace(account.BankAccountId) == "" {
			return ValidationResult{Valid: false, Error: "bank account id is required"}
		}
		exists, err := a.bank.CheckAccountExists(ctx, account.BankAccountId)
		if err != nil {
			return ValidationResult{Valid: false, Error: err.Error(), Platform: models.PlatformBank}
		}
		if !exists {
			return ValidationResult{Valid: false, Error: "bank account not found", Platform: models.PlatformBank}
		}
		return ValidationResult{Valid: true, Platform: models.PlatformBank}
	case models.PlatformMobileMoney:
		if err := utils.ValidatePhoneNumber(account.PhoneNumber, utils.CountryCode); err != nil {
			return ValidationResult{Valid: false, Error: "phone number is not a valid mobile number", Platform: models.PlatformMobileMoney}
		}
		return ValidationResult{Valid: true, Platform: models.PlatformMobileMoney}
	default:
		return ValidationResult{Valid: false, Error: "account has no recognizable platform"}
	}
}
