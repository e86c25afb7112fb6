package domain

import (
	"strconv"
	"strings"
)

// Location narrows a search geographically. Zero value means "anywhere".
type Location struct {
	Zip      string `json:"zip,omitempty"`
	Distance int    `json:"distance,omitempty"` // miles
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
}

// StructuredQuery is the universal vehicle query produced by the upstream
// parser. It is the single source of truth for one acquisition attempt; each
// source adapter translates it into that source's own parameter shape.
// Immutable after creation.
type StructuredQuery struct {
	Raw string `json:"query,omitempty"` // original free-text query

	Makes  []string `json:"makes,omitempty"`
	Models []string `json:"models,omitempty"`
	Trims  []string `json:"trims,omitempty"`

	Year    int `json:"year,omitempty"`
	YearMin int `json:"yearMin,omitempty"`
	YearMax int `json:"yearMax,omitempty"`

	MinPrice float64 `json:"minPrice,omitempty"`
	MaxPrice float64 `json:"maxPrice,omitempty"`

	Drivetrain   string `json:"drivetrain,omitempty"` // e.g. "Four Wheel Drive"
	FuelType     string `json:"fuelType,omitempty"`
	BodyType     string `json:"bodyType,omitempty"`
	Transmission string `json:"transmission,omitempty"`

	ExteriorColor string `json:"exteriorColor,omitempty"`
	InteriorColor string `json:"interiorColor,omitempty"`

	Features []string `json:"features,omitempty"`
	Location Location `json:"location,omitempty"`
}

// WellFormed reports whether the query carries enough structure to be worth
// adapting. Empty queries still degrade to best-effort keyword search instead
// of failing, so this is advisory, not a gate.
func (q StructuredQuery) WellFormed() bool {
	if q.Year > 0 || (q.YearMin > 0 && q.YearMax > 0) {
		return true
	}
	return len(q.Makes) > 0 && len(q.Models) > 0
}

func (q StructuredQuery) Make() string {
	if len(q.Makes) == 0 {
		return ""
	}
	return q.Makes[0]
}

func (q StructuredQuery) Model() string {
	if len(q.Models) == 0 {
		return ""
	}
	return q.Models[0]
}

func (q StructuredQuery) Trim() string {
	if len(q.Trims) == 0 {
		return ""
	}
	return q.Trims[0]
}

// Keywords flattens the query into a plain search string, used when a source
// has no structured URL for it (and for the paid-tier agent, which only takes
// free text).
func (q StructuredQuery) Keywords() string {
	var parts []string
	if q.Year > 0 {
		parts = append(parts, strconv.Itoa(q.Year))
	}
	if q.ExteriorColor != "" {
		parts = append(parts, q.ExteriorColor)
	}
	parts = append(parts, q.Make(), q.Model(), q.Trim())
	s := strings.Join(fields(parts), " ")
	if s == "" {
		s = strings.TrimSpace(q.Raw)
	}
	return s
}

func fields(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
