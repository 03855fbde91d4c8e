package categorize

import (
	"regexp"

	"github.com/adepafin/adepa_backend/models"
	"github.com/shopspring/decimal"
)

// categoryDef is one row of the static scoring table. Keywords are
// substring-matched against normalized text; patterns run against the
// same normalized text. AmountRange and Typicals feed the plausibility
// score.
type categoryDef struct {
	ID        string
	Type      models.TransactionType
	Keywords  []string
	Patterns  []*regexp.Regexp
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Typicals  []decimal.Decimal
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func decs(vals ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(vals))
	for _, v := range vals {
		out = append(out, dec(v))
	}
	return out
}

// Category ids must stay in step with models.SeedCategories.
var categoryTable = []categoryDef{
	{
		ID:   "food_dining",
		Type: models.TransactionTypeExpense,
		Keywords: []string{
			"kfc", "pizza", "restaurant", "chop bar", "food", "lunch", "dinner",
			"breakfast", "burger", "papaye", "chicken republic", "eddys", "cafe",
			"bakery", "waakye", "jollof", "snack", "grill", "kitchen",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(lunch|dinner|breakfast|brunch)\b`),
			regexp.MustCompile(`\b(restaurant|cafe|canteen|eatery)\b`),
		},
		MinAmount: decPtr("2"),
		MaxAmount: decPtr("600"),
		Typicals:  decs("15", "25", "40", "80"),
	},
	{
		ID:   "transport",
		Type: models.TransactionTypeExpense,
		Keywords: []string{
			"uber", "bolt", "yango", "taxi", "trotro", "fuel", "petrol", "diesel",
			"goil", "shell", "total", "stc", "bus fare", "ride", "transport",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(trip|ride|fare)\b`),
			regexp.MustCompile(`\b(fuel|petrol|diesel)\b`),
		},
		MinAmount: decPtr("1"),
		MaxAmount: decPtr("800"),
		Typicals:  decs("5", "15", "30", "100"),
	},
	{
		ID:   "utilities",
		Type: models.TransactionTypeExpense,
		Keywords: []string{
			"ecg", "electricity", "water bill", "gwcl", "prepaid", "power",
			"utility", "ghana water", "meter",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(electricity|water|utility)\b`),
			regexp.MustCompile(`\bprepaid\b`),
		},
		MinAmount: decPtr("10"),
		MaxAmount: decPtr("1500"),
		Typicals:  decs("50", "100", "200"),
	},
	{
		ID:   "airtime_data",
		Type: models.TransactionTypeExpense,
		Keywords: []string{
			"airtime", "data bundle", "mtn", "vodafone", "airteltigo", "telecel",
			"bundle", "recharge", "top up", "topup",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(airtime|bundle|recharge)\b`),
			regexp.MustCompile(`\btop ?up\b`),
		},
		MinAmount: decPtr("1"),
		MaxAmount: decPtr("200"),
		Typicals:  decs("2", "5", "10", "20", "50"),
	},
	{
		ID:   "shopping",
		Type: models.TransactionTypeExpense,
		Keywords: []string{
			"shoprite", "melcom", "palace", "game", "jumia", "amazon", "store",
			"supermarket", "market", "groceries", "shopping", "boutique", "mall",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(purchase|order|shopping)\b`),
			regexp.MustCompile(`\b(supermarket|grocer(y|ies))\b`),
		},
		MinAmount: decPtr("5"),
		MaxAmount: decPtr("5000"),
		Typicals:  decs("50", "150", "400"),
	},
	{
		ID:   "entertainment",
		Type: models.TransactionTypeExpense,
		Keywords: []string{
			"netflix", "spotify", "showmax", "dstv", "gotv", "cinema", "movie",
			"betway", "sportybet", "concert", "tickets", "games",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(subscription|streaming)\b`),
			regexp.MustCompile(`\b(cinema|movie|concert)\b`),
		},
		MinAmount: decPtr("5"),
		MaxAmount: decPtr("500"),
		Typicals:  decs("30", "60", "120"),
	},
	{
		ID:   "health",
		Type: models.TransactionTypeExpense,
		Keywords: []string{
			"pharmacy", "hospital", "clinic", "doctor", "medicine", "drug",
			"lab", "dental", "nhis", "medical",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(pharmacy|hospital|clinic)\b`),
			regexp.MustCompile(`\bmedic(al|ine)\b`),
		},
		MinAmount: decPtr("5"),
		MaxAmount: decPtr("3000"),
		Typicals:  decs("30", "100", "300"),
	},
	{
		ID:   "rent_housing",
		Type: models.TransactionTypeExpense,
		Keywords: []string{
			"rent", "landlord", "housing", "accommodation", "hostel", "lease",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\brent\b`),
			regexp.MustCompile(`\b(landlord|accommodation)\b`),
		},
		MinAmount: decPtr("100"),
		MaxAmount: decPtr("20000"),
		Typicals:  decs("500", "1200", "2500"),
	},
	{
		ID:   "fees_charges",
		Type: models.TransactionTypeExpense,
		Keywords: []string{
			"fee", "charge", "commission", "levy", "e-levy", "elevy",
			"service charge", "maintenance fee", "sms charge",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(fee|charge|levy|commission)s?\b`),
		},
		MinAmount: decPtr("0"),
		MaxAmount: decPtr("100"),
		Typicals:  decs("0.5", "1", "2", "5"),
	},
	{
		ID:   "transfers",
		Type: models.TransactionTypeExpense,
		Keywords: []string{
			"transfer", "sent to", "momo transfer", "wire", "remittance",
			"western union", "moneygram", "wave",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(transfer|remittance)\b`),
			regexp.MustCompile(`\bsent to\b`),
		},
	},
	{
		ID:   "salary_income",
		Type: models.TransactionTypeIncome,
		Keywords: []string{
			"salary", "payroll", "wages", "allowance", "stipend", "bonus",
			"pension", "ssnit",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(salary|payroll|wages)\b`),
			regexp.MustCompile(`\b(monthly|net) pay\b`),
		},
		MinAmount: decPtr("300"),
		MaxAmount: decPtr("100000"),
		Typicals:  decs("1500", "3000", "6000"),
	},
	{
		ID:   "business_income",
		Type: models.TransactionTypeIncome,
		Keywords: []string{
			"invoice", "payment received", "sales", "client", "customer payment",
			"proceeds", "settlement",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(invoice|proceeds|settlement)\b`),
			regexp.MustCompile(`\breceived (payment|from)\b`),
		},
	},
	{
		ID:   "other",
		Type: models.TransactionTypeExpense,
		Keywords: []string{},
		Patterns: []*regexp.Regexp{},
	},
}

const (
	// DefaultCategoryID is the terminal fallback; every categorization
	// produces a category, never "none".
	DefaultCategoryID = "other"
	FeeCategoryID     = "fees_charges"
	SalaryCategoryID  = "salary_income"
)

func categoryType(id string) models.TransactionType {
	for _, c := range categoryTable {
		if c.ID == id {
			return c.Type
		}
	}
	return models.TransactionTypeExpense
}
