package tag

import "carhunt-engine/internal/domain"

type Tagger interface {
	Tag(c domain.Candidate) []string
}
