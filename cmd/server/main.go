package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"taskpilot/internal/api"
	"taskpilot/internal/config"
	"taskpilot/internal/db"
	"taskpilot/pkg/oracle"
	"taskpilot/pkg/rank"
	"taskpilot/pkg/runlog"
	"taskpilot/pkg/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		tasks   task.Store
		journal runlog.Store
	)
	if cfg.DatabaseURL == "" {
		log.Printf("server: DATABASE_URL not set, using in-memory storage (data is lost on exit)")
		tasks = task.NewMemStore()
		journal = runlog.NewMemStore()
	} else {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()
		tasks = task.NewPgStore(pool)
		journal = runlog.NewPgStore(pool)
	}

	// Ensure tables exist
	if err := tasks.EnsureTable(ctx); err != nil {
		log.Fatalf("ensure tasks table: %v", err)
	}
	if err := journal.EnsureTable(ctx); err != nil {
		log.Fatalf("ensure rank_runs table: %v", err)
	}

	gen, err := oracle.NewGemini(ctx, cfg.Oracle)
	if err != nil {
		log.Fatalf("oracle: %v", err)
	}
	if gen == nil {
		log.Printf("server: GEMINI_API_KEY not set, ranking will use fallback scoring only")
	} else {
		log.Printf("server: oracle model %s, timeout %s", cfg.Oracle.Model, cfg.Oracle.Timeout)
	}
	engine := rank.New(tasks, oracle.New(gen, cfg.Oracle.Timeout), journal)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.New(tasks, engine, api.Options{
			JWTSecret:      []byte(cfg.JWTSecret),
			AllowedOrigins: cfg.AllowedOrigins,
			AccessLog:      os.Stdout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("taskpilot listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("server: %v", err)
	}
}
