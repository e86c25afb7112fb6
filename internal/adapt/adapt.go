package adapt

import (
	"fmt"

	"carhunt-engine/internal/domain"
)

// Source identifiers. The free tier runs in parallel; the agent is the paid
// fallback and is never part of a free-tier batch.
const (
	SourceCarMax     = "carmax"
	SourceAutoTrader = "autotrader"
	SourceKBB        = "kbb"
	SourceTrueCar    = "truecar"
	SourceCarGurus   = "cargurus"
	SourceEmail      = "email"
	SourceAgent      = "agent"
)

// SourceParams is the adapted form of a StructuredQuery for one source.
// Arg is the exact argument handed to the scraper subprocess: a structured
// URL when the adapter could build one, otherwise the keyword query (TrueCar
// takes a JSON filter object instead).
type SourceParams struct {
	Source string
	Query  string // keyword fallback, always set
	URL    string // structured deep link, "" when unavailable
	Arg    string
}

// Adapter converts the universal query into one source's parameter shape.
// Adapters are side-effect free and silently drop fields the target source
// does not support.
type Adapter func(q domain.StructuredQuery) SourceParams

// UnknownSourceError is a programming error: an adapter lookup for a source
// id that was never registered. Not retried.
type UnknownSourceError struct {
	Source string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source %q", e.Source)
}

// Registry maps goal categories to their ordered source lists and source ids
// to adapters. Built once at startup and passed around explicitly so tests
// can substitute fake sources.
type Registry struct {
	categories map[string][]string
	adapters   map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{
		categories: make(map[string][]string),
		adapters:   make(map[string]Adapter),
	}
}

func (r *Registry) Register(category, source string, fn Adapter) {
	r.categories[category] = append(r.categories[category], source)
	r.adapters[source] = fn
}

// Sources returns the registered free-tier source ids for a category, in
// registration order. Empty for unsupported categories.
func (r *Registry) Sources(category string) []string {
	return r.categories[category]
}

func (r *Registry) Supported(category string) bool {
	return len(r.categories[category]) > 0
}

func (r *Registry) Adapt(q domain.StructuredQuery, source string) (SourceParams, error) {
	fn, ok := r.adapters[source]
	if !ok {
		return SourceParams{}, &UnknownSourceError{Source: source}
	}
	return fn(q), nil
}

// Default returns the production registry: the vehicle category with its five
// free-tier sources plus the email and agent adapters (keyword passthrough).
func Default() *Registry {
	r := NewRegistry()
	r.Register("vehicle", SourceCarMax, AdaptCarMax)
	r.Register("vehicle", SourceAutoTrader, AdaptAutoTrader)
	r.Register("vehicle", SourceKBB, AdaptKBB)
	r.Register("vehicle", SourceTrueCar, AdaptTrueCar)
	r.Register("vehicle", SourceCarGurus, AdaptCarGurus)

	// Keyword-only adapters; not part of any category fan-out list.
	r.adapters[SourceEmail] = keywordAdapter(SourceEmail)
	r.adapters[SourceAgent] = keywordAdapter(SourceAgent)
	return r
}

func keywordAdapter(source string) Adapter {
	return func(q domain.StructuredQuery) SourceParams {
		kw := q.Keywords()
		return SourceParams{Source: source, Query: kw, Arg: kw}
	}
}
