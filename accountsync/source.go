package accountsync

import (
	"context"
	"time"
)

// BankClient is the bank-aggregation source. Its transactions arrive
// already typed income/expense.
type BankClient interface {
	Initialize(ctx context.Context) error
	GetAccountSyncData(ctx context.Context, accountHandle string, startDate time.Time, endDate time.Time) (SyncData, error)
	CheckAccountExists(ctx context.Context, accountHandle string) (bool, error)
}

// MomoClient is the mobile-money source. Its transactions arrive
// untyped; the Aggregator infers income/expense from the payer message.
type MomoClient interface {
	Initialize(ctx context.Context) error
	GetTransactions(ctx context.Context, phoneHandle string, startDate time.Time, endDate time.Time) ([]RawMomoTransaction, error)
}

// RawMomoTransaction is the provider's wire shape, kept as strings
// until the Aggregator normalizes it.
type RawMomoTransaction struct {
	ExternalId             string `json:"externalId"`
	Amount                 string `json:"amount"`
	Currency               string `json:"currency"`
	PayerMessage           string `json:"payerMessage"`
	PayeeNote              string `json:"payeeNote"`
	Status                 string `json:"status"`
	PayerPartyId           string `json:"payerPartyId"`
	FinancialTransactionId string `json:"financialTransactionId"`
	Timestamp              string `json:"timestamp"`
}
