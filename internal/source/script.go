package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"carhunt-engine/internal/adapt"
	"carhunt-engine/internal/domain"
)

// ScriptClient invokes one scraper script as a subprocess:
//
//	<interpreter> <script> <URL or search query> <max results>
//
// The script must print a single JSON listing array on success or a JSON
// object {"error": "..."} (and/or exit non-zero) on failure. Everything the
// script does beyond that contract stays outside this process.
type ScriptClient struct {
	Source      string
	Script      string   // path to the scraper script
	Interpreter string   // defaults to python3
	Env         []string // extra KEY=VALUE pairs appended to the environment
}

// listing is the subprocess wire row.
type listing struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Mileage  int     `json:"mileage"`
	Image    string  `json:"image"`
	Retailer string  `json:"retailer"`
	URL      string  `json:"url"`
	Location string  `json:"location"`
}

type scriptError struct {
	Error string `json:"error"`
}

func (c *ScriptClient) Name() string { return c.Source }

func (c *ScriptClient) Fetch(ctx context.Context, params adapt.SourceParams, limit int) ([]domain.Candidate, error) {
	arg := params.Arg
	if arg == "" {
		arg = params.Query
	}
	if limit <= 0 {
		limit = 10
	}

	interp := c.Interpreter
	if interp == "" {
		interp = "python3"
	}

	cmd := exec.CommandContext(ctx, interp, c.Script, arg, strconv.Itoa(limit))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	runErr := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, &TimeoutError{Source: c.Source}
	}

	out := bytes.TrimSpace(stdout.Bytes())

	// Scripts report failures as {"error": "..."} on stdout, usually paired
	// with a non-zero exit. Check for that shape before the array.
	if len(out) > 0 && out[0] == '{' {
		var se scriptError
		if err := json.Unmarshal(out, &se); err == nil && se.Error != "" {
			return nil, &TransportError{Source: c.Source, Err: errors.New(se.Error)}
		}
	}

	if runErr != nil {
		return nil, &TransportError{
			Source: c.Source,
			Err:    fmt.Errorf("%w (stderr: %s)", runErr, clip(stderr.String(), 300)),
		}
	}

	var rows []listing
	if len(out) == 0 {
		rows = nil // no output but clean exit: treat as empty result
	} else if err := json.Unmarshal(out, &rows); err != nil {
		return nil, &TransportError{Source: c.Source, Err: fmt.Errorf("decode listings: %w", err)}
	}

	cands := make([]domain.Candidate, 0, len(rows))
	for _, r := range rows {
		// A listing without a positive price never leaves this boundary.
		if r.Price <= 0 {
			continue
		}
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		cands = append(cands, domain.Candidate{
			Name:     strings.TrimSpace(r.Name),
			Price:    r.Price,
			Currency: "USD",
			Source:   c.Source,
			URL:      strings.TrimSpace(r.URL),
			Image:    strings.TrimSpace(r.Image),
			Mileage:  r.Mileage,
			Location: strings.TrimSpace(r.Location),
		})
		if len(cands) >= limit {
			break
		}
	}
	return cands, nil
}

func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max]
}
