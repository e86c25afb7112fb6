package httpapi

// DrainStatus tracks the most recent manual drain kicked off over HTTP.
type DrainStatus struct {
	LastRunAt     string `json:"last_run_at"`
	LastOkAt      string `json:"last_ok_at"`
	LastError     string `json:"last_error"`
	LastProcessed int    `json:"last_processed"`
	Running       bool   `json:"running"`
}
