package accountsync

import (
	"context"
	"testing"
	"time"

	"github.com/adepafin/adepa_backend/models"
)

func TestInferMomoTypeSignConvention(t *testing.T) {
	cases := []struct {
		message string
		want    models.TransactionType
	}{
		{"Sent to John for groceries", models.TransactionTypeExpense},
		{"Received payment for invoice", models.TransactionTypeIncome},
		{"Salary for January", models.TransactionTypeIncome},
		{"Bill settlement ECG", models.TransactionTypeExpense},
		{"Deposit from agent", models.TransactionTypeIncome},
		{"weekly groceries", models.TransactionTypeExpense},
	}
	for _, tc := range cases {
		if got := inferMomoType(tc.message); got != tc.want {
			t.Errorf("inferMomoType(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestGetSyncDataNormalizesMomoRows(t *testing.T) {
	momo := &fakeMomoClient{rows: []RawMomoTransaction{
		{
			ExternalId:             "momo-100",
			Amount:                 "12.00",
			Currency:               "GHS",
			PayerMessage:           "Received from Ama",
			Status:                 "successful",
			FinancialTransactionId: "fin-1",
			Timestamp:              "2026-02-05T08:00:00Z",
		},
	}}
	agg := NewAggregator(&fakeBankClient{}, momo)

	data, err := agg.GetSyncData(context.Background(), momoAccount(), time.Now().AddDate(0, 0, -7), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if data.Platform != models.PlatformMobileMoney || data.TotalTransactions != 1 {
		t.Fatalf("unexpected sync data: %+v", data)
	}
	txn := data.Transactions[0]
	if txn.Type != models.TransactionTypeIncome {
		t.Fatalf("expected inferred income, got %q", txn.Type)
	}
	if txn.Status != "SUCCESSFUL" {
		t.Fatalf("status should be uppercased, got %q", txn.Status)
	}
	if txn.FinancialTransactionId != "fin-1" {
		t.Fatalf("financial id lost: %+v", txn)
	}
}

func TestGetSyncDataRequiresPlatformHandle(t *testing.T) {
	agg := NewAggregator(&fakeBankClient{}, &fakeMomoClient{})

	bank := models.LinkedAccount{ID: 1, UserId: 1, Platform: models.PlatformBank, IsActive: true}
	if _, err := agg.GetSyncData(context.Background(), bank, time.Now(), time.Now()); CodeOf(err) != ErrCodeValidation {
		t.Fatalf("bank account without handle must fail validation, got %v", err)
	}

	momo := models.LinkedAccount{ID: 2, UserId: 1, Platform: models.PlatformMobileMoney, IsActive: true}
	if _, err := agg.GetSyncData(context.Background(), momo, time.Now(), time.Now()); CodeOf(err) != ErrCodeValidation {
		t.Fatalf("momo account without phone must fail validation, got %v", err)
	}

	unknown := models.LinkedAccount{ID: 3, UserId: 1, Platform: "wallet", IsActive: true}
	if _, err := agg.GetSyncData(context.Background(), unknown, time.Now(), time.Now()); CodeOf(err) != ErrCodeValidation {
		t.Fatalf("unknown platform must never be guessed, got %v", err)
	}
}

func TestValidateAccountPhoneFormat(t *testing.T) {
	agg := NewAggregator(&fakeBankClient{}, &fakeMomoClient{})

	account := momoAccount()
	result := agg.ValidateAccount(context.Background(), account)
	if !result.Valid || result.Platform != models.PlatformMobileMoney {
		t.Fatalf("valid GH number rejected: %+v", result)
	}

	account.PhoneNumber = "12345"
	result = agg.ValidateAccount(context.Background(), account)
	if result.Valid {
		t.Fatalf("malformed phone number accepted: %+v", result)
	}
}

func TestValidateAccountBankDelegatesToClient(t *testing.T) {
	agg := NewAggregator(&fakeBankClient{exists: true}, &fakeMomoClient{})
	account := models.LinkedAccount{Platform: models.PlatformBank, BankAccountId: "acct-1"}
	if result := agg.ValidateAccount(context.Background(), account); !result.Valid {
		t.Fatalf("existing bank account rejected: %+v", result)
	}

	agg = NewAggregator(&fakeBankClient{exists: false}, &fakeMomoClient{})
	if result := agg.ValidateAccount(context.Background(), account); result.Valid {
		t.Fatal("missing bank account accepted")
	}
}
