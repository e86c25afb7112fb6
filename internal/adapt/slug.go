package adapt

import "strings"

// slug lower-cases and hyphenates for URL path segments: "Sierra 3500" ->
// "sierra-3500", "Denali Ultimate" -> "denali-ultimate".
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "-")
}

// splitModelSeries peels a trailing series code off a model name:
// "Sierra 3500HD" -> ("Sierra", "3500HD"), "RAV4" -> ("RAV4", "").
// A series token starts with a digit.
func splitModelSeries(model string) (base, series string) {
	fields := strings.Fields(strings.TrimSpace(model))
	if len(fields) < 2 {
		return strings.TrimSpace(model), ""
	}
	last := fields[len(fields)-1]
	if last[0] >= '0' && last[0] <= '9' {
		return strings.Join(fields[:len(fields)-1], " "), last
	}
	return strings.Join(fields, " "), ""
}

// stripHD drops a trailing heavy-duty qualifier from a series code.
// CarMax and AutoTrader file "Sierra 3500HD" under sierra-3500; TrueCar
// keeps the HD suffix.
func stripHD(series string) string {
	l := strings.ToLower(series)
	if strings.HasSuffix(l, "hd") && len(series) > 2 {
		return series[:len(series)-2]
	}
	return series
}
