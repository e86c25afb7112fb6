package email

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-imap/v2"

	"carhunt-engine/internal/adapt"
	"carhunt-engine/internal/domain"
	"carhunt-engine/internal/source/util"
)

var (
	rePrice   = regexp.MustCompile(`\$\s?\d[\d,]*(?:\.\d{1,2})?`)
	reMileage = regexp.MustCompile(`([\d,]+)\s*(?:mi\b|miles\b)`)
)

// AlertFetcher turns saved-search alert emails (CarGurus, AutoTrader, etc.)
// into candidates. It scans unseen messages whose subject matches the
// configured allowlist, pulls marketplace links out of the HTML body, and
// marks the scanned messages \Seen so the next scan starts clean.
type AlertFetcher struct {
	Addr       string // host:port
	Host       string // bare hostname, for TLS SNI
	Username   string
	Mailbox    string
	SubjectAny []string

	// Password is resolved lazily so the keychain is only hit when a job
	// actually needs it.
	Password func() (string, error)
}

func (f *AlertFetcher) Name() string { return adapt.SourceEmail }

func (f *AlertFetcher) Fetch(ctx context.Context, params adapt.SourceParams, limit int) ([]domain.Candidate, error) {
	const maxEmails = 200

	pass, err := f.Password()
	if err != nil {
		return nil, fmt.Errorf("email password: %w", err)
	}

	addr := f.Addr
	if !strings.Contains(addr, ":") {
		addr += ":993"
	}

	c, err := DialAndLoginIMAP(ctx, addr, f.Username, pass, TLSConfigFor(f.Host))
	if err != nil {
		return nil, err
	}
	defer LogoutAndClose(c)

	mailbox := f.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := c.Select(mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %q: %w", mailbox, err)
	}

	msgs, err := FetchUnseen(ctx, c, maxEmails)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return []domain.Candidate{}, nil
	}

	keywords := strings.Fields(strings.ToLower(params.Query))

	var out []domain.Candidate
	processed := make([]imap.UID, 0, len(msgs))

	for _, m := range msgs {
		_, bodyText, htmlBody, subj := parseRFC822(m.RawMessage, m.Subject)
		subj = decodeRFC2047(subj)

		// Require subject match when search_subject_any is set
		if len(f.SubjectAny) > 0 && !containsAnyCI(subj, f.SubjectAny) {
			processed = append(processed, m.UID)
			continue
		}

		cands, perr := ParseAlertHTML(htmlBody)
		if perr != nil {
			log.Printf("[email] alert parse uid=%d err=%v", m.UID, perr)
			processed = append(processed, m.UID)
			continue
		}
		if len(cands) == 0 && bodyText != "" {
			// Plain-text alert: only naked links, no structure to mine.
			cands = candidatesFromText(bodyText, subj)
		}

		for _, cand := range cands {
			if !matchesKeywords(cand.Name+" "+subj, keywords) {
				continue
			}
			out = append(out, cand)
		}

		processed = append(processed, m.UID)
	}

	if err := MarkSeen(c, processed); err != nil {
		return out, fmt.Errorf("mark seen: %w", err)
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ParseAlertHTML merges multiple anchors pointing at the same listing so a
// bare photo anchor seen first doesn't shadow the titled one.
func ParseAlertHTML(htmlBody string) ([]domain.Candidate, error) {
	if strings.TrimSpace(htmlBody) == "" {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil, err
	}

	byURL := map[string]*domain.Candidate{}
	var order []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		target := unwrapRedirect(href)
		if !util.IsListingHost(target) {
			return
		}

		key := util.CanonicalizeURL(target)
		c, ok := byURL[key]
		if !ok {
			c = &domain.Candidate{
				URL:    key,
				Source: adapt.SourceEmail,
			}
			byURL[key] = c
			order = append(order, key)
		}

		// Anchor text is usually the listing title on the card anchor and
		// empty on the photo anchor.
		name := util.CleanText(a.Text())
		if len(name) > len(c.Name) {
			c.Name = name
		}

		card := a.Closest("table")
		if card.Length() == 0 {
			card = a.Closest("tr")
		}
		if card.Length() == 0 {
			card = a.Parent()
		}

		blob := util.CleanText(card.Text())
		if c.Price == 0 {
			if m := rePrice.FindString(blob); m != "" {
				c.Price = util.ExtractPrice(m)
			}
		}
		if c.Mileage == 0 {
			if m := reMileage.FindStringSubmatch(blob); len(m) == 2 {
				c.Mileage = int(util.ExtractPrice(m[1]))
			}
		}
		if c.Condition == "" {
			c.Condition = util.InferCondition(blob)
		}

		if c.Image == "" {
			if src, ok := card.Find("img[src]").First().Attr("src"); ok {
				src = strings.TrimSpace(src)
				if strings.HasPrefix(src, "http") {
					c.Image = src
				}
			}
		}
	})

	out := make([]domain.Candidate, 0, len(order))
	for _, key := range order {
		c := byURL[key]
		if c.Name == "" || c.Price <= 0 {
			continue
		}
		c.Currency = "USD"
		out = append(out, *c)
	}
	return out, nil
}

var reNakedURL = regexp.MustCompile(`https?://[^\s<>"']+`)

func candidatesFromText(body, subj string) []domain.Candidate {
	var out []domain.Candidate
	seen := map[string]bool{}
	for _, raw := range reNakedURL.FindAllString(body, -1) {
		raw = strings.TrimRight(raw, ".,);:]\"'")
		if !util.IsListingHost(raw) {
			continue
		}
		key := util.CanonicalizeURL(raw)
		if seen[key] {
			continue
		}
		seen[key] = true

		price := util.ExtractPrice(rePrice.FindString(body))
		if price <= 0 {
			continue
		}
		out = append(out, domain.Candidate{
			Name:     util.CleanText(subj),
			Price:    price,
			Currency: "USD",
			Source:   adapt.SourceEmail,
			URL:      key,
		})
	}
	return out
}

// unwrapRedirect resolves the tracking wrappers alert emails use
// (?url=<real> or google's /url?q=<real>).
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}

	if raw := u.Query().Get("url"); raw != "" {
		if uu, err := url.Parse(raw); err == nil && uu.Host != "" {
			return uu.String()
		}
	}

	if strings.Contains(strings.ToLower(u.Host), "google.") && strings.HasPrefix(u.Path, "/url") {
		if q := u.Query().Get("q"); q != "" {
			if uu, err := url.Parse(q); err == nil && uu.Host != "" {
				return uu.String()
			}
		}
	}

	return href
}

func containsAnyCI(s string, any []string) bool {
	ls := strings.ToLower(s)
	for _, a := range any {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if strings.Contains(ls, strings.ToLower(a)) {
			return true
		}
	}
	return false
}

// matchesKeywords keeps a candidate when at least one query token shows up
// in its text; alert inboxes mix alerts for several searches.
func matchesKeywords(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lt := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lt, k) {
			return true
		}
	}
	return false
}
