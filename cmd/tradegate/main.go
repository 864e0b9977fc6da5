// Command tradegate wires the safety-gated trading assistant and serves it
// over HTTP: config -> database -> core -> scheduler -> server, then blocks
// for SIGINT/SIGTERM and shuts down in reverse order.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tradegate/internal/config"
	"tradegate/internal/core"
	"tradegate/internal/httpapi"
	"tradegate/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tradegate:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	observability.LogEvent(ctx, "info", "startup", map[string]any{
		"env":          string(cfg.Env),
		"database_url": maskDSN(cfg.DatabaseURL),
		"http_addr":    cfg.HTTPAddr,
	})

	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if db != nil {
		defer db.Close()
	}

	c, err := core.Build(ctx, cfg, db)
	if err != nil {
		return fmt.Errorf("build core: %w", err)
	}

	c.Scheduler.Start(ctx)
	defer c.Scheduler.Stop(true)

	server := httpapi.NewServer(c)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		observability.LogEvent(ctx, "info", "http_listen", map[string]any{"addr": cfg.HTTPAddr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		observability.LogEvent(context.Background(), "info", "shutdown_signal", nil)
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return <-serveErr
}

// openDatabase returns nil when no DSN is configured, so core.Build falls
// back to its in-memory stores for local/dev use.
func openDatabase(dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, nil
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// maskDSN hides credentials in a postgres DSN before it reaches a log line.
func maskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at <= scheme+3 {
		return "***"
	}
	return dsn[:scheme+3] + "***:***" + dsn[at:]
}
