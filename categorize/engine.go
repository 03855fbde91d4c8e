// Package categorize assigns spending categories to transactions with
// deterministic keyword/pattern/amount heuristics. It never calls out and
// never suspends: identical inputs always yield identical output.
package categorize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/adepafin/adepa_backend/models"
	"github.com/shopspring/decimal"
)

// Result is the categorization verdict applied onto a transaction's
// category_id / auto_categorized / categorization_confidence fields.
type Result struct {
	CategoryID    string
	Confidence    int
	SuggestedType models.TransactionType
	Reasons       []string
}

const (
	keywordWeight      = 0.6
	patternWeight      = 0.2
	plausibilityWeight = 0.2
	confidenceCap      = 95
	fallbackThreshold  = 40
)

var (
	nonAlnum    = regexp.MustCompile(`[^a-z0-9]+`)
	incomeWords = []string{"salary", "payment", "received", "deposit", "credit", "invoice"}
)

// normalize lowercases, strips punctuation to whitespace and collapses
// runs of whitespace. Matching downstream is substring-based, not
// tokenized; a keyword inside a larger word still matches.
func normalize(text string) string {
	lowered := strings.ToLower(text)
	spaced := nonAlnum.ReplaceAllString(lowered, " ")
	return strings.TrimSpace(spaced)
}

// Categorize maps a transaction's free text and amount to a best-guess
// category with a 0-100 confidence. merchantHint may be empty.
func Categorize(description string, amount decimal.Decimal, merchantHint string) Result {
	text := normalize(strings.TrimSpace(description + " " + merchantHint))

	var (
		best        *categoryDef
		bestScore   float64
		bestReasons []string
	)

	for i := range categoryTable {
		c := &categoryTable[i]
		score, reasons := scoreCategory(c, text, amount)
		if best == nil || score > bestScore {
			best = c
			bestScore = score
			bestReasons = reasons
		}
	}

	confidence := int(bestScore * 100)
	if confidence > confidenceCap {
		confidence = confidenceCap
	}

	if confidence >= fallbackThreshold && best != nil {
		return Result{
			CategoryID:    best.ID,
			Confidence:    confidence,
			SuggestedType: best.Type,
			Reasons:       bestReasons,
		}
	}

	return fallback(text, amount)
}

func scoreCategory(c *categoryDef, text string, amount decimal.Decimal) (float64, []string) {
	var score float64
	var reasons []string

	for _, kw := range c.Keywords {
		if strings.Contains(text, normalize(kw)) {
			score += keywordWeight
			reasons = append(reasons, fmt.Sprintf("keyword %q", kw))
			break
		}
	}
	for _, p := range c.Patterns {
		if p.MatchString(text) {
			score += patternWeight
			reasons = append(reasons, fmt.Sprintf("pattern %q", p.String()))
			break
		}
	}

	plausibility := amountPlausibility(c, amount)
	score += plausibilityWeight * plausibility
	reasons = append(reasons, fmt.Sprintf("amount plausibility %.1f", plausibility))

	return score, reasons
}

// amountPlausibility: 1.0 within 20%% of a typical value, 0.7 merely
// in range, 0.2 out of range, 0.5 when the category defines no range.
func amountPlausibility(c *categoryDef, amount decimal.Decimal) float64 {
	if c.MinAmount == nil || c.MaxAmount == nil {
		return 0.5
	}
	abs := amount.Abs()
	for _, typical := range c.Typicals {
		tolerance := typical.Mul(dec("0.2"))
		if abs.Sub(typical).Abs().LessThanOrEqual(tolerance) {
			return 1.0
		}
	}
	if abs.GreaterThanOrEqual(*c.MinAmount) && abs.LessThanOrEqual(*c.MaxAmount) {
		return 0.7
	}
	return 0.2
}

// fallback covers the low-confidence tail with amount heuristics; every
// path produces a category.
func fallback(text string, amount decimal.Decimal) Result {
	abs := amount.Abs()

	switch {
	case text == "":
		return Result{
			CategoryID:    DefaultCategoryID,
			Confidence:    20,
			SuggestedType: categoryType(DefaultCategoryID),
			Reasons:       []string{"empty description"},
		}
	case abs.IsZero():
		return Result{
			CategoryID:    FeeCategoryID,
			Confidence:    30,
			SuggestedType: categoryType(FeeCategoryID),
			Reasons:       []string{"zero amount"},
		}
	case abs.LessThan(dec("5")):
		return Result{
			CategoryID:    FeeCategoryID,
			Confidence:    35,
			SuggestedType: categoryType(FeeCategoryID),
			Reasons:       []string{"small amount"},
		}
	case abs.GreaterThan(dec("1000")) && containsAny(text, incomeWords):
		return Result{
			CategoryID:    SalaryCategoryID,
			Confidence:    38,
			SuggestedType: categoryType(SalaryCategoryID),
			Reasons:       []string{"large amount with income wording"},
		}
	default:
		return Result{
			CategoryID:    DefaultCategoryID,
			Confidence:    25,
			SuggestedType: categoryType(DefaultCategoryID),
			Reasons:       []string{"no category matched"},
		}
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
