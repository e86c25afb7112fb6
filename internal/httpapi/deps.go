package httpapi

import (
	"database/sql"
	"sync/atomic"

	"carhunt-engine/internal/config"
	"carhunt-engine/internal/events"
	"carhunt-engine/internal/queue"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	Queue *queue.Queue

	// Atomic stores
	CfgVal      *atomic.Value // stores config.Config
	DrainStatus *atomic.Value // stores httpapi.DrainStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}
