package categorize

import (
	"testing"

	"github.com/adepafin/adepa_backend/models"
	"github.com/shopspring/decimal"
)

func TestCategorize_KnownMerchantText(t *testing.T) {
	res := Categorize("Lunch at KFC Accra Mall", decimal.NewFromFloat(25.50), "")
	if res.CategoryID != "food_dining" {
		t.Fatalf("expected food_dining, got %s", res.CategoryID)
	}
	if res.Confidence <= 40 {
		t.Fatalf("expected confidence > 40, got %d", res.Confidence)
	}
	if res.SuggestedType != models.TransactionTypeExpense {
		t.Fatalf("expected expense, got %s", res.SuggestedType)
	}
	if len(res.Reasons) == 0 {
		t.Fatalf("expected at least one reason")
	}
}

func TestCategorize_Deterministic(t *testing.T) {
	first := Categorize("Lunch at KFC Accra Mall", decimal.NewFromFloat(25.50), "")
	for i := 0; i < 50; i++ {
		again := Categorize("Lunch at KFC Accra Mall", decimal.NewFromFloat(25.50), "")
		if again.CategoryID != first.CategoryID || again.Confidence != first.Confidence {
			t.Fatalf("run %d diverged: %s/%d vs %s/%d",
				i, again.CategoryID, again.Confidence, first.CategoryID, first.Confidence)
		}
	}
}

func TestCategorize_FallbackNeverEmpty(t *testing.T) {
	res := Categorize("", decimal.Zero, "")
	if res.CategoryID == "" {
		t.Fatalf("fallback must always produce a category")
	}
	if res.Confidence <= 0 {
		t.Fatalf("fallback confidence must be positive, got %d", res.Confidence)
	}
}

func TestCategorize_FallbackPaths(t *testing.T) {
	cases := []struct {
		name        string
		description string
		amount      string
		wantCat     string
	}{
		{"zero amount", "zzqx", "0", FeeCategoryID},
		{"tiny amount", "zzqx", "1.50", FeeCategoryID},
		{"large income wording", "monthly zzqx payment", "5000", SalaryCategoryID},
		{"no signal", "zzqx", "42", DefaultCategoryID},
	}
	for _, tc := range cases {
		amount, _ := decimal.NewFromString(tc.amount)
		res := Categorize(tc.description, amount, "")
		if res.CategoryID != tc.wantCat {
			t.Fatalf("%s: expected %s, got %s (confidence %d)",
				tc.name, tc.wantCat, res.CategoryID, res.Confidence)
		}
		// The suggested type always follows the category table entry.
		if res.SuggestedType != categoryType(res.CategoryID) {
			t.Fatalf("%s: suggested type %s disagrees with category %s",
				tc.name, res.SuggestedType, res.CategoryID)
		}
	}
}

func TestCategorize_SubstringMatchingInsideWords(t *testing.T) {
	// Substring matches inside larger words are accepted behavior.
	res := Categorize("mtnairtimebulk", decimal.NewFromInt(10), "")
	if res.CategoryID != "airtime_data" {
		t.Fatalf("expected airtime_data via substring match, got %s", res.CategoryID)
	}
}

func TestCategorize_ConfidenceCapped(t *testing.T) {
	res := Categorize("Lunch dinner at KFC restaurant", decimal.NewFromInt(25), "")
	if res.Confidence > 95 {
		t.Fatalf("confidence must cap at 95, got %d", res.Confidence)
	}
}

func TestCategorize_MerchantHintContributes(t *testing.T) {
	res := Categorize("weekly run", decimal.NewFromInt(30), "Uber")
	if res.CategoryID != "transport" {
		t.Fatalf("expected transport via merchant hint, got %s", res.CategoryID)
	}
}

func TestCategorize_IncomeCategory(t *testing.T) {
	res := Categorize("October salary payroll", decimal.NewFromInt(3000), "")
	if res.CategoryID != "salary_income" {
		t.Fatalf("expected salary_income, got %s", res.CategoryID)
	}
	if res.SuggestedType != models.TransactionTypeIncome {
		t.Fatalf("expected income type, got %s", res.SuggestedType)
	}
}
