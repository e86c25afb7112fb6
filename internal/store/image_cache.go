package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

func ImageKeyFromURL(u string) string {
	h := sha256.Sum256([]byte(u))
	return hex.EncodeToString(h[:])
}

// imageHostAllowed gates which CDNs we will pull listing photos from. Sites
// rotate CDN hostnames, so suffix matching covers the common ones.
func imageHostAllowed(host string) bool {
	host = strings.ToLower(host)
	suffixes := []string{
		"carmax.com",
		"autotrader.com",
		"kbb.com",
		"truecar.com",
		"cargurus.com",
		"carvana.com",
		"images.dealer.com",
		"pictures.dealer.com",
		"akamaized.net",
		"cloudfront.net",
	}
	for _, s := range suffixes {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}

// CacheImageFromURL downloads a listing photo into the images table and
// returns its cache key. Fetch problems are logged and swallowed; a missing
// photo never fails the job that found the candidate.
func CacheImageFromURL(ctx context.Context, db *sql.DB, raw string) (key string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}

	pu, err := url.Parse(raw)
	if err != nil || pu.Scheme == "" || pu.Host == "" {
		return "", nil
	}
	if !imageHostAllowed(pu.Host) {
		return "", nil
	}

	key = ImageKeyFromURL(raw)

	// If already cached, skip fetch
	var exists int
	e := db.QueryRowContext(ctx, `SELECT 1 FROM images WHERE key = ? LIMIT 1;`, key).Scan(&exists)
	if e == nil {
		return key, nil
	}
	if e != sql.ErrNoRows {
		return "", e
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("[image-cache] fetch error url=%s err=%v", raw, err)
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[image-cache] non-2xx url=%s status=%s", raw, resp.Status)
		return "", nil
	}

	// Limit size (protect DB)
	const max = 1 << 20 // 1MB; listing photos run larger than icons
	b, err := io.ReadAll(io.LimitReader(resp.Body, max+1))
	if err != nil {
		return "", nil
	}
	if len(b) == 0 || len(b) > max {
		return "", nil
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "image/") {
		// sniff as fallback
		sn := http.DetectContentType(b)
		if !strings.HasPrefix(sn, "image/") {
			return "", errors.New("not an image")
		}
		ct = sn
	}

	_, err = db.ExecContext(ctx, `
INSERT OR REPLACE INTO images(key, content_type, bytes, fetched_at)
VALUES(?,?,?,?);`,
		key,
		ct,
		b,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", err
	}

	return key, nil
}

// GetImage returns a cached photo for serving over HTTP.
func GetImage(ctx context.Context, db *sql.DB, key string) (contentType string, bytes []byte, err error) {
	row := db.QueryRowContext(ctx, `
SELECT content_type, bytes FROM images WHERE key = ?;`, key)
	err = row.Scan(&contentType, &bytes)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrNotFound
	}
	return contentType, bytes, err
}
