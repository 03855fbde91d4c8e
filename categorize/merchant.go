package categorize

import (
	"strings"
	"unicode"
)

const UnknownMerchant = "Unknown Merchant"

// knownBrands are matched case-insensitively against the combined text;
// the match is returned in its original casing.
var knownBrands = []string{
	"KFC", "Papaye", "Pizza Hut", "Chicken Republic", "Starbites",
	"Uber", "Bolt", "Yango", "Shell", "Goil", "Total",
	"MTN", "Vodafone", "AirtelTigo", "Telecel",
	"Shoprite", "Melcom", "Jumia", "Amazon", "Game",
	"Netflix", "Spotify", "DStv", "GOtv", "Showmax",
	"ECG", "GWCL",
}

// genericWords never identify a merchant on their own.
var genericWords = map[string]bool{
	"payment":     true,
	"transaction": true,
	"transfer":    true,
	"purchase":    true,
	"sent":        true,
	"received":    true,
	"from":        true,
	"paid":        true,
	"momo":        true,
	"mobile":      true,
	"money":       true,
	"deposit":     true,
	"withdrawal":  true,
	"the":         true,
	"for":         true,
}

// locationSuffixes are place words, not merchants.
var locationSuffixes = map[string]bool{
	"mall":     true,
	"street":   true,
	"road":     true,
	"avenue":   true,
	"plaza":    true,
	"market":   true,
	"junction": true,
	"station":  true,
	"branch":   true,
	"accra":    true,
	"kumasi":   true,
}

// ExtractMerchant derives a display-ready merchant name from a
// transaction's free text. It falls through brand matching, then the
// first capitalized non-generic token, then UnknownMerchant.
func ExtractMerchant(description string, note string) string {
	combined := strings.TrimSpace(strings.TrimSpace(description) + " " + strings.TrimSpace(note))
	if combined == "" || isGenericPair(description, note) {
		return UnknownMerchant
	}

	if brand := findBrand(combined); brand != "" {
		return brand
	}

	for _, token := range strings.Fields(description) {
		trimmed := strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if trimmed == "" {
			continue
		}
		runes := []rune(trimmed)
		if !unicode.IsUpper(runes[0]) {
			continue
		}
		lower := strings.ToLower(trimmed)
		if genericWords[lower] || locationSuffixes[lower] {
			continue
		}
		return trimmed
	}

	return UnknownMerchant
}

func isGenericPair(description string, note string) bool {
	descGeneric := description == "" || genericWords[strings.ToLower(strings.TrimSpace(description))]
	noteGeneric := note == "" || genericWords[strings.ToLower(strings.TrimSpace(note))]
	return descGeneric && noteGeneric
}

// findBrand returns the matched substring in its original casing.
func findBrand(text string) string {
	lowerText := strings.ToLower(text)
	for _, brand := range knownBrands {
		idx := strings.Index(lowerText, strings.ToLower(brand))
		if idx >= 0 {
			return text[idx : idx+len(brand)]
		}
	}
	return ""
}
