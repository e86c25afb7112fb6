package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carhunt-engine/internal/adapt"
)

// writeScript drops a shell stub in place of a real scraper; the client only
// cares about the subprocess contract, not the language behind it.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scrape-stub.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func stubParams(arg string) adapt.SourceParams {
	return adapt.SourceParams{Source: "stub", Query: arg, Arg: arg}
}

func TestScriptClientParsesListings(t *testing.T) {
	script := writeScript(t, `cat <<'EOF'
[
  {"name": "2026 GMC Sierra 3500HD Denali Ultimate", "price": 103615, "mileage": 12,
   "image": "https://img.carmax.com/1.jpg", "retailer": "CarMax",
   "url": "https://www.carmax.com/car/27016057", "location": "San Francisco, CA"},
  {"name": "2025 GMC Sierra 3500HD Denali", "price": 19999.5, "mileage": 60000,
   "image": "", "retailer": "CarMax",
   "url": "https://www.carmax.com/car/27016058", "location": ""}
]
EOF`)

	c := &ScriptClient{Source: "stub", Script: script, Interpreter: "/bin/sh"}
	cands, err := c.Fetch(context.Background(), stubParams("q"), 10)
	require.NoError(t, err)
	require.Len(t, cands, 2)

	assert.Equal(t, "2026 GMC Sierra 3500HD Denali Ultimate", cands[0].Name)
	assert.Equal(t, float64(103615), cands[0].Price)
	assert.Equal(t, "USD", cands[0].Currency)
	assert.Equal(t, "stub", cands[0].Source)
	assert.Equal(t, 12, cands[0].Mileage)

	// Fractional prices survive the wire.
	assert.Equal(t, 19999.5, cands[1].Price)
}

func TestScriptClientDropsUnusableRows(t *testing.T) {
	script := writeScript(t, `cat <<'EOF'
[
  {"name": "free car", "price": 0, "url": "https://www.carmax.com/car/1"},
  {"name": "no url", "price": 5000, "url": ""},
  {"name": "keeper", "price": 5000, "url": "https://www.carmax.com/car/2"}
]
EOF`)

	c := &ScriptClient{Source: "stub", Script: script, Interpreter: "/bin/sh"}
	cands, err := c.Fetch(context.Background(), stubParams("q"), 10)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "keeper", cands[0].Name)
}

func TestScriptClientLimit(t *testing.T) {
	script := writeScript(t, `cat <<'EOF'
[
  {"name": "a", "price": 1000, "url": "https://www.carmax.com/car/1"},
  {"name": "b", "price": 1000, "url": "https://www.carmax.com/car/2"},
  {"name": "c", "price": 1000, "url": "https://www.carmax.com/car/3"}
]
EOF`)

	c := &ScriptClient{Source: "stub", Script: script, Interpreter: "/bin/sh"}
	cands, err := c.Fetch(context.Background(), stubParams("q"), 2)
	require.NoError(t, err)
	assert.Len(t, cands, 2)
}

func TestScriptClientErrorObject(t *testing.T) {
	script := writeScript(t, `echo '{"error": "blocked by captcha"}'; exit 1`)

	c := &ScriptClient{Source: "stub", Script: script, Interpreter: "/bin/sh"}
	_, err := c.Fetch(context.Background(), stubParams("q"), 10)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "stub", te.Source)
	assert.Contains(t, te.Error(), "blocked by captcha")
}

func TestScriptClientNonZeroExit(t *testing.T) {
	script := writeScript(t, `echo "traceback..." >&2; exit 2`)

	c := &ScriptClient{Source: "stub", Script: script, Interpreter: "/bin/sh"}
	_, err := c.Fetch(context.Background(), stubParams("q"), 10)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Error(), "traceback")
}

func TestScriptClientEmptyOutputIsEmptyResult(t *testing.T) {
	script := writeScript(t, `exit 0`)

	c := &ScriptClient{Source: "stub", Script: script, Interpreter: "/bin/sh"}
	cands, err := c.Fetch(context.Background(), stubParams("q"), 10)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestScriptClientEmptyArrayIsEmptyResult(t *testing.T) {
	script := writeScript(t, `echo '[]'`)

	c := &ScriptClient{Source: "stub", Script: script, Interpreter: "/bin/sh"}
	cands, err := c.Fetch(context.Background(), stubParams("q"), 10)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestScriptClientTimeout(t *testing.T) {
	script := writeScript(t, `sleep 5`)

	c := &ScriptClient{Source: "stub", Script: script, Interpreter: "/bin/sh"}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx, stubParams("q"), 10)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "stub", te.Source)
}

func TestAgentClientInjectsKey(t *testing.T) {
	script := writeScript(t, `if [ "$CARHUNT_AGENT_API_KEY" != "sk-test" ]; then
  echo '{"error": "missing key"}'; exit 1
fi
echo '[{"name": "agent find", "price": 90000, "url": "https://www.truecar.com/listing/1"}]'`)

	a := &AgentClient{
		Script:      script,
		Interpreter: "/bin/sh",
		APIKey:      func() (string, error) { return "sk-test", nil },
	}
	cands, err := a.Fetch(context.Background(), stubParams("2026 gmc sierra"), 10)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "agent find", cands[0].Name)
	assert.Equal(t, adapt.SourceAgent, cands[0].Source)
}
