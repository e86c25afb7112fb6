package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeURLStripsTracking(t *testing.T) {
	got := CanonicalizeURL("HTTPS://WWW.CarMax.com/car/27016057?utm_source=alerts&utm_campaign=daily&gclid=abc#photos")
	assert.Equal(t, "https://carmax.com/car/27016057", got)
}

func TestCanonicalizeURLHostPrefix(t *testing.T) {
	// Scrapers and alert-email redirects disagree on www; both must land on
	// the same dedup key.
	bare := CanonicalizeURL("https://carmax.com/car/1")
	www := CanonicalizeURL("https://www.carmax.com/car/1")
	assert.Equal(t, bare, www)
	assert.Equal(t, "https://carmax.com/car/1", www)
}

func TestCanonicalizeURLSortsQuery(t *testing.T) {
	a := CanonicalizeURL("https://www.autotrader.com/cars?zip=94080&searchRadius=250")
	b := CanonicalizeURL("https://www.autotrader.com/cars?searchRadius=250&zip=94080")
	assert.Equal(t, a, b)
}

func TestCanonicalizeURLKeepsIdentifyingParams(t *testing.T) {
	got := CanonicalizeURL("https://www.cargurus.com/Cars/link?listingId=12345&ref=email")
	assert.Contains(t, got, "listingId=12345")
	assert.NotContains(t, got, "ref=")
}

func TestCanonicalizeURLIdempotent(t *testing.T) {
	once := CanonicalizeURL("https://www.kbb.com/cars/3?utm_medium=email&b=2&a=1")
	assert.Equal(t, once, CanonicalizeURL(once))
}

func TestCanonicalizeURLEmpty(t *testing.T) {
	assert.Equal(t, "", CanonicalizeURL("   "))
}

func TestIsListingHost(t *testing.T) {
	assert.True(t, IsListingHost("https://www.carmax.com/car/1"))
	assert.True(t, IsListingHost("https://shop.cargurus.com/listing/2"))
	assert.True(t, IsListingHost("https://carvana.com/vehicle/3"))
	assert.False(t, IsListingHost("https://click.mail.carmax-alerts.com/track"))
	assert.False(t, IsListingHost("https://www.google.com/url?q=x"))
	assert.False(t, IsListingHost("not a url"))
}

func TestExtractPrice(t *testing.T) {
	assert.Equal(t, 103615.0, ExtractPrice("$103,615"))
	assert.Equal(t, 19999.5, ExtractPrice("$19,999.50"))
	assert.Equal(t, 19999.5, ExtractPrice("Price: 19999.5"))
	assert.Zero(t, ExtractPrice("Call for price"))
	assert.Zero(t, ExtractPrice(""))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "2026 GMC Sierra", CleanText("  2026 GMC \n Sierra  "))
}

func TestInferCondition(t *testing.T) {
	assert.Equal(t, "New", InferCondition("New 2026 GMC Sierra 3500 Denali Ultimate"))
	assert.Equal(t, "Used", InferCondition("Used 2024 Honda Ridgeline"))
	assert.Equal(t, "Certified", InferCondition("Certified Pre-Owned Tacoma"))
	// Substring hits don't count: "renewed" is not "new".
	assert.Equal(t, "", InferCondition("Renewed listing"))
	assert.Equal(t, "", InferCondition("2026 GMC Sierra"))
}
