package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"

	"carhunt-engine/internal/acquire"
	"carhunt-engine/internal/adapt"
	"carhunt-engine/internal/config"
	"carhunt-engine/internal/enrich"
	"carhunt-engine/internal/events"
	"carhunt-engine/internal/httpapi"
	"carhunt-engine/internal/queue"
	"carhunt-engine/internal/scheduler"
	"carhunt-engine/internal/source"
	"carhunt-engine/internal/source/email"
	"carhunt-engine/internal/store"
	"carhunt-engine/internal/tag"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	// Engine data dir: use env if provided (the desktop shell passes one),
	// else local folder.
	dataDir := os.Getenv("CARHUNT_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// Two engines against one sqlite file means lock contention and doubled
	// scrapes; refuse to start a second instance.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("instance lock: %v", err)
	}
	if !locked {
		log.Fatalf("another engine instance holds %s", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		if err := config.OverlayTagRules(&cfg, filepath.Join(dataDir, "tags.yml")); err != nil {
			return cfg, err
		}
		normalized, vr := config.NormalizeAndValidate(cfg)
		for _, wmsg := range vr.Warnings {
			log.Printf("[config] warning: %s", wmsg)
		}
		if !vr.OK() {
			return cfg, fmt.Errorf("config invalid: %v", vr.Errors)
		}
		return normalized, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "carhunt.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := store.Migrate(db); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()
	registry := adapt.Default()

	free, paid := buildFetchers(cfg)
	agg := &acquire.Aggregator{
		Registry:      registry,
		Free:          free,
		Paid:          paid,
		Limit:         cfg.Acquire.Limit,
		SourceTimeout: time.Duration(cfg.Acquire.SourceTimeoutSeconds) * time.Second,
		AgentTimeout:  time.Duration(cfg.Acquire.AgentTimeoutSeconds) * time.Second,
	}

	enricher := enrich.New(db)

	q := &queue.Queue{
		DB:         db,
		Acquirer:   agg,
		Registry:   registry,
		Tagger:     tag.YAMLTagger{Cfg: cfg},
		Hub:        hub,
		Enrich:     enricher.Candidates,
		BatchSize:  cfg.Acquire.BatchSize,
		JobTimeout: time.Duration(cfg.Acquire.JobTimeoutSeconds) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background loops: a steady drain plus the morning refresh sweep.
	drainEvery := time.Duration(cfg.Scheduler.DrainSeconds) * time.Second
	go scheduler.Every(ctx, drainEvery, "drain", func(ctx context.Context) error {
		_, err := q.DrainOnce(ctx)
		return err
	})

	loc := time.Local
	if tz := cfg.Scheduler.Timezone; tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			log.Printf("[refresh] bad timezone %q, using local: %v", tz, err)
		}
	}
	go scheduler.DailyAt(ctx, cfg.Scheduler.RefreshHour, cfg.Scheduler.RefreshMinute, loc, "refresh",
		func(ctx context.Context) error {
			_, err := q.RefreshAll(ctx)
			return err
		})

	var drainStatus atomic.Value
	drainStatus.Store(httpapi.DrainStatus{})

	mux := httpapi.NewMux(httpapi.Deps{
		DB:          db,
		Hub:         hub,
		Queue:       q,
		CfgVal:      &cfgVal,
		DrainStatus: &drainStatus,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.RequestID,
			httpapi.Recover,
			httpapi.AccessLog,
			httpapi.Cors,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	token, err := randomToken(16)
	if err != nil {
		log.Fatal(err)
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))
	if err := os.WriteFile(filepath.Join(dataDir, "engine.token"), []byte(token), 0o600); err != nil {
		log.Printf("write shutdown token: %v", err)
	}

	log.Printf("engine listening on http://%s (db=%s)", addr, dbPath)

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// buildFetchers assembles the free-tier scraper clients plus the paid agent
// from config. Disabled sources simply don't exist as far as the aggregator
// is concerned.
func buildFetchers(cfg config.Config) (free []source.Fetcher, paid source.Fetcher) {
	scriptPath := func(sc config.SourceConfig) string {
		if filepath.IsAbs(sc.Script) {
			return sc.Script
		}
		return filepath.Join(cfg.Sources.ScriptsDir, sc.Script)
	}

	add := func(name string, sc config.SourceConfig) {
		if !sc.Enabled {
			return
		}
		free = append(free, &source.ScriptClient{
			Source:      name,
			Script:      scriptPath(sc),
			Interpreter: cfg.Sources.Interpreter,
		})
	}

	add(adapt.SourceCarMax, cfg.Sources.CarMax)
	add(adapt.SourceAutoTrader, cfg.Sources.AutoTrader)
	add(adapt.SourceKBB, cfg.Sources.KBB)
	add(adapt.SourceTrueCar, cfg.Sources.TrueCar)
	add(adapt.SourceCarGurus, cfg.Sources.CarGurus)

	if cfg.Email.Enabled {
		addr := cfg.Email.IMAPHost
		if cfg.Email.IMAPPort != 0 {
			addr = fmt.Sprintf("%s:%d", cfg.Email.IMAPHost, cfg.Email.IMAPPort)
		}
		account := secretsIMAPAccount(cfg)
		free = append(free, &email.AlertFetcher{
			Addr:       addr,
			Host:       cfg.Email.IMAPHost,
			Username:   cfg.Email.Username,
			Mailbox:    cfg.Email.Mailbox,
			SubjectAny: cfg.Email.SearchSubjectAny,
			Password:   account,
		})
	}

	if cfg.Sources.Agent.Enabled {
		paid = &source.AgentClient{
			Script:      scriptPath(cfg.Sources.Agent),
			Interpreter: cfg.Sources.Interpreter,
			APIKey:      agentAPIKey,
		}
	}

	return free, paid
}
