package util

import (
	"net/url"
	"sort"
	"strings"
)

// CanonicalizeURL is the identity function for candidate dedup: same listing,
// same string. Lower-cases scheme/host, strips a leading "www." (alert-email
// redirects and scrapers disagree on it), drops fragments and tracking
// params, and sorts the remaining query deterministically. Identifying params
// (listingId, vehicle ids) survive untouched.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" || lk == "ref" {
			q.Del(k)
		}
	}

	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// IsListingHost reports whether a URL points at one of the marketplaces we
// scrape; alert emails link into all kinds of tracking hosts and only
// marketplace links count as candidates.
func IsListingHost(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	for _, h := range listingHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

var listingHosts = []string{
	"carmax.com",
	"autotrader.com",
	"kbb.com",
	"truecar.com",
	"cargurus.com",
	"carvana.com",
}
