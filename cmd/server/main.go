package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"

	httpadapter "maydai/internal/adapters/http"
	pg "maydai/internal/adapters/postgres"
	"maydai/internal/catalog"
	"maydai/internal/config"
	"maydai/internal/locks"
	"maydai/internal/ports"
	"maydai/internal/scoring"
	benchsvc "maydai/internal/services/benchmarks"
	docsvc "maydai/internal/services/documents"
	histsvc "maydai/internal/services/history"
	reevalsvc "maydai/internal/services/reevaluate"
	regsvc "maydai/internal/services/registry"
	"maydai/internal/workers/benchsync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("warning: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required for Postgres adapters")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	// Wire repositories to services (ports)
	var _ ports.AccessRepository = db
	var _ ports.UseCaseRepository = db
	var _ ports.ResponseRepository = db
	var _ ports.DocumentRepository = db
	var _ ports.EvaluationRepository = db
	var _ ports.HistoryRepository = db
	var _ ports.JobRepository = db

	cat := catalog.Default()
	agg := scoring.NewAggregator(scoring.DefaultWeights())
	keyed := locks.NewKeyed()
	clock := clockwork.NewRealClock()

	recorder := histsvc.New(db, db, clock)
	benchmarks := benchsvc.New(db, cat)
	documents := docsvc.New(db, db, db, db, recorder, agg, cat, keyed, clock)
	registry := regsvc.New(db, db, db, keyed, clock)
	reevaluator := reevalsvc.New(db, db, benchmarks, recorder, agg, keyed)

	srv := httpadapter.New(documents, benchmarks, registry, reevaluator, recorder)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	// Optional background sync workers
	if cfg.SyncWorkers > 0 {
		go benchsync.Run(ctx, db, benchmarks, cfg.SyncWorkers, 500*time.Millisecond)
		log.Printf("sync workers started: %d", cfg.SyncWorkers)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- http.ListenAndServe(cfg.ListenAddr, r) }()
	log.Printf("listening on %s", cfg.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("shutting down on %s", sig)
		cancel()
		time.Sleep(300 * time.Millisecond)
	case err := <-errCh:
		log.Fatal(fmt.Errorf("server error: %w", err))
	}
}
