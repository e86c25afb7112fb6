package util

import (
	"regexp"
	"strconv"
	"strings"
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

var rePriceJunk = regexp.MustCompile(`[^\d.,]`)

// ExtractPrice pulls a dollar amount out of text like "$103,615" or
// "19999.5". Returns 0 when no usable number is present; the fractional
// part is preserved.
func ExtractPrice(s string) float64 {
	cleaned := rePriceJunk.ReplaceAllString(s, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

var (
	reNew  = regexp.MustCompile(`\bnew\b`)
	reUsed = regexp.MustCompile(`\bused\b`)
)

// InferCondition sniffs New/Used/Certified out of a listing title, the way
// KBB prefixes its cards ("New 2026 GMC Sierra 3500 Denali Ultimate").
func InferCondition(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "certified"):
		return "Certified"
	case reNew.MatchString(t):
		return "New"
	case reUsed.MatchString(t):
		return "Used"
	}
	return ""
}
