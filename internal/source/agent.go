package source

import (
	"context"
	"errors"
	"log"

	"carhunt-engine/internal/adapt"
	"carhunt-engine/internal/domain"
)

// AgentClient is the paid tier: a single AI-driven browsing agent behind the
// same subprocess protocol as the free scrapers, but it only takes a free
// text query and needs an API key. The aggregator invokes it at most once
// per acquisition, and only after the whole free tier came up empty.
type AgentClient struct {
	Script      string
	Interpreter string
	APIKey      func() (string, error) // resolved at call time (keyring)
}

func (a *AgentClient) Name() string { return adapt.SourceAgent }

func (a *AgentClient) Fetch(ctx context.Context, params adapt.SourceParams, limit int) ([]domain.Candidate, error) {
	if a.APIKey == nil {
		return nil, &TransportError{Source: a.Name(), Err: errors.New("no API key resolver configured")}
	}
	key, err := a.APIKey()
	if err != nil {
		return nil, &TransportError{Source: a.Name(), Err: err}
	}

	log.Printf("[agent] invoking paid agent query=%q limit=%d", params.Query, limit)

	sc := &ScriptClient{
		Source:      a.Name(),
		Script:      a.Script,
		Interpreter: a.Interpreter,
		Env:         []string{"CARHUNT_AGENT_API_KEY=" + key},
	}
	// The agent only understands free text; never hand it a deep link.
	params.URL = ""
	params.Arg = params.Query
	return sc.Fetch(ctx, params, limit)
}
