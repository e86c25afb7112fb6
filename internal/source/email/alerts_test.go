package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A stripped-down saved-search alert: table-per-card layout, one photo anchor
// and one titled anchor per listing, tracking junk on the links.
const sampleAlertHTML = `
<html><body>
  <table>
    <tr>
      <td>
        <a href="https://www.cargurus.com/Cars/link?listingId=111&utm_source=alert">
          <img src="https://static.cargurus.com/images/111.jpg">
        </a>
      </td>
      <td>
        <a href="https://www.cargurus.com/Cars/link?listingId=111&utm_source=alert">
          2026 GMC Sierra 3500HD Denali Ultimate
        </a>
        <div>$103,615 &middot; 1,245 mi &middot; Certified</div>
      </td>
    </tr>
  </table>
  <table>
    <tr>
      <td>
        <a href="https://click.alerts.example.com/t?url=https%3A%2F%2Fwww.autotrader.com%2Fcars%2F222">
          New 2026 GMC Sierra 2500HD AT4
        </a>
        <div>$89,990 &middot; 8 mi</div>
      </td>
    </tr>
  </table>
  <p><a href="https://www.example.com/unsubscribe">Unsubscribe</a></p>
  <p><a href="https://www.cargurus.com/Cars/link?listingId=333">No price card</a></p>
</body></html>`

func TestParseAlertHTML(t *testing.T) {
	cands, err := ParseAlertHTML(sampleAlertHTML)
	require.NoError(t, err)
	require.Len(t, cands, 2)

	first := cands[0]
	assert.Equal(t, "2026 GMC Sierra 3500HD Denali Ultimate", first.Name)
	assert.Equal(t, 103615.0, first.Price)
	assert.Equal(t, "USD", first.Currency)
	assert.Equal(t, 1245, first.Mileage)
	assert.Equal(t, "Certified", first.Condition)
	assert.Equal(t, "https://static.cargurus.com/images/111.jpg", first.Image)
	// Tracking params are gone and the two anchors collapsed into one row.
	assert.Equal(t, "https://cargurus.com/Cars/link?listingId=111", first.URL)

	second := cands[1]
	assert.Equal(t, "New 2026 GMC Sierra 2500HD AT4", second.Name)
	assert.Equal(t, 89990.0, second.Price)
	assert.Equal(t, "New", second.Condition)
	assert.Equal(t, "https://autotrader.com/cars/222", second.URL)
}

func TestParseAlertHTMLEmpty(t *testing.T) {
	cands, err := ParseAlertHTML("  ")
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestCandidatesFromText(t *testing.T) {
	body := `New match for your saved search!
Price: $45,500
https://www.carmax.com/car/444?utm_source=email.
https://www.example.com/manage-alerts`

	cands := candidatesFromText(body, "New listings: GMC Sierra")
	require.Len(t, cands, 1)
	assert.Equal(t, "New listings: GMC Sierra", cands[0].Name)
	assert.Equal(t, 45500.0, cands[0].Price)
	assert.Equal(t, "https://carmax.com/car/444", cands[0].URL)
}

func TestUnwrapRedirect(t *testing.T) {
	assert.Equal(t,
		"https://www.autotrader.com/cars/222",
		unwrapRedirect("https://click.alerts.example.com/t?url=https%3A%2F%2Fwww.autotrader.com%2Fcars%2F222"))
	assert.Equal(t,
		"https://www.kbb.com/cars/3",
		unwrapRedirect("https://www.google.com/url?q=https://www.kbb.com/cars/3&sa=D"))
	// Non-wrapped links pass through.
	assert.Equal(t,
		"https://www.carmax.com/car/1",
		unwrapRedirect("https://www.carmax.com/car/1"))
}

func TestContainsAnyCI(t *testing.T) {
	allow := []string{"new listings", "price drop"}
	assert.True(t, containsAnyCI("Your New Listings are here", allow))
	assert.True(t, containsAnyCI("PRICE DROP on a saved vehicle", allow))
	assert.False(t, containsAnyCI("Weekly newsletter", allow))
	assert.True(t, containsAnyCI("anything", nil), "empty allowlist matches all")
}

func TestMatchesKeywords(t *testing.T) {
	kw := []string{"2026", "white", "gmc", "sierra"}
	assert.True(t, matchesKeywords("New 2024 GMC Canyon", kw))
	assert.False(t, matchesKeywords("2023 Honda Ridgeline", kw))
	assert.True(t, matchesKeywords("anything", nil))
}
