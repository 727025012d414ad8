// Package app wires the maris components into a runnable runtime: config,
// logging, database pool, session store, transport client, and the engine
// state machines the TUI drives.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marislab/maris/db"
	"github.com/marislab/maris/internal/config"
	"github.com/marislab/maris/internal/conversation"
	"github.com/marislab/maris/internal/log"
	"github.com/marislab/maris/internal/persist"
	"github.com/marislab/maris/internal/scroll"
	"github.com/marislab/maris/internal/session"
	"github.com/marislab/maris/internal/transport"
)

// Runtime holds every initialized component. Close releases them in
// reverse dependency order.
type Runtime struct {
	Config     *config.Config
	Logger     *slog.Logger
	Pool       *pgxpool.Pool
	Store      *session.Store
	Client     *transport.Client
	Scheduler  *persist.Scheduler
	Arbiter    *scroll.Arbiter
	Controller *conversation.Controller
}

// NewRuntime initializes everything the chat UI needs: migrations run
// first, then the pool, store, transport connection, and engine.
func NewRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.Log.Level),
		JSON:  cfg.Log.JSON,
	})

	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := session.New(session.NewQueries(pool), pool, logger)
	store.SetHistoryLimit(cfg.Storage.HistoryLimit)

	client, err := transport.Dial(ctx, cfg.Agent.URL, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to agent: %w", err)
	}

	sched := persist.NewScheduler(logger)
	arbiter := scroll.NewArbiter()

	controller, err := conversation.NewController(client, store, sched, arbiter, logger)
	if err != nil {
		_ = client.Close()
		pool.Close()
		return nil, fmt.Errorf("creating controller: %w", err)
	}

	return &Runtime{
		Config:     cfg,
		Logger:     logger,
		Pool:       pool,
		Store:      store,
		Client:     client,
		Scheduler:  sched,
		Arbiter:    arbiter,
		Controller: controller,
	}, nil
}

// Close releases the transport connection and the database pool.
func (r *Runtime) Close() error {
	err := r.Client.Close()
	r.Pool.Close()
	return err
}

// newPool runs migrations and opens a PostgreSQL connection pool with
// defaults sized for a single interactive client.
func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	connURL := cfg.Storage.ConnectionURL()

	if err := db.Migrate(connURL); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}
