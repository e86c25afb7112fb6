package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Goals
	gh := GoalsHandler{DB: d.DB, Hub: d.Hub, Queue: d.Queue}
	mux.HandleFunc("/goals", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  gh.List,
		http.MethodPost: gh.Create,
	}))
	mux.HandleFunc("/goals/", gh.ByPath) // /goals/{id}[/candidates[/state]|/acquire]

	// Queue
	qh := QueueHandler{DB: d.DB, Queue: d.Queue, DrainStatus: d.DrainStatus}
	mux.HandleFunc("/queue/enqueue", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: qh.Enqueue,
	}))
	mux.HandleFunc("/queue/next", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: qh.Next,
	}))
	mux.HandleFunc("/queue/jobs/", qh.JobByPath) // /queue/jobs/{id}[/success|/error]
	mux.HandleFunc("/queue/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: qh.Status,
	}))
	mux.HandleFunc("/queue/drain", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: qh.Drain,
	}))
	mux.HandleFunc("/queue/refresh", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: qh.Refresh,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetIMAPPassword,
	}))
	mux.HandleFunc("/api/secrets/agent", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetAgentAPIKey,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Cached listing photos
	ih := ImagesHandler{DB: d.DB}
	mux.HandleFunc("/image/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ih.GetByPath,
	}))

	// Health + maintenance
	hh := HealthHandler{}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))
	dh := DBHandler{DB: d.DB}
	mux.HandleFunc("/db/checkpoint", dh.Checkpoint)

	return mux
}
