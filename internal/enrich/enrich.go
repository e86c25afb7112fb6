package enrich

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"carhunt-engine/internal/domain"
	"carhunt-engine/internal/source/util"
	"carhunt-engine/internal/store"
)

// Enricher backfills candidate photos after a job persists its results.
// Everything here is best-effort: a slow or hostile listing page costs one
// log line, never the job.
type Enricher struct {
	DB      *sql.DB
	Limiter *util.HostLimiter
	Client  *http.Client
}

func New(db *sql.DB) *Enricher {
	return &Enricher{
		DB:      db,
		Limiter: util.NewHostLimiter(1, 2),
		Client:  &http.Client{Timeout: 12 * time.Second},
	}
}

// Candidates caches each candidate's photo locally. When the source gave no
// image URL, the listing page's og:image is tried instead.
func (e *Enricher) Candidates(ctx context.Context, goalID int64, cands []domain.Candidate) {
	for _, c := range cands {
		img := c.Image
		if img == "" {
			img = e.pageImage(ctx, c.URL)
		}
		if img == "" {
			continue
		}

		key, err := store.CacheImageFromURL(ctx, e.DB, img)
		if err != nil || key == "" {
			continue
		}
		if err := store.SetCandidateImageKey(ctx, e.DB, goalID, c.URL, key); err != nil {
			log.Printf("[enrich] set image key goal=%d url=%s err=%v", goalID, c.URL, err)
		}
	}
}

// pageImage fetches the listing page and pulls its og:image meta tag.
func (e *Enricher) pageImage(ctx context.Context, pageURL string) string {
	if !util.IsListingHost(pageURL) {
		return ""
	}
	if err := e.Limiter.WaitURL(ctx, pageURL); err != nil {
		return ""
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.Client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	var img string
	doc.Find(`meta[property="og:image"], meta[name="og:image"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr("content"); ok && strings.TrimSpace(v) != "" {
			img = strings.TrimSpace(v)
			return false
		}
		return true
	})
	return img
}
