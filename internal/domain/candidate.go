package domain

// Candidate is one concrete listing discovered for a goal. Produced
// transiently by a source client; it only becomes part of the goal's
// candidate set if it survives filtering.
//
// Uniqueness within a goal is by canonical URL.
type Candidate struct {
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Currency  string   `json:"currency"`
	Source    string   `json:"source"` // carmax/autotrader/kbb/truecar/cargurus/email/agent
	URL       string   `json:"url"`
	Image     string   `json:"image,omitempty"`    // remote image URL as reported by the source
	ImageKey  string   `json:"imageKey,omitempty"` // local cache key once enriched
	Mileage   int      `json:"mileage,omitempty"`
	Condition string   `json:"condition,omitempty"` // New/Used/Certified
	Location  string   `json:"location,omitempty"`  // dealer / retailer blurb
	Tags      []string `json:"tags,omitempty"`
}

// CandidateState is the set of canonical URLs a goal already knows about,
// split by how the user handled them. The filter removes incoming candidates
// whose URL appears in any of the three sets.
type CandidateState struct {
	Active      []string
	Denied      []string
	Shortlisted []string
}
