package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/unievents/eventhub-api/internal/api/handler"
	"github.com/unievents/eventhub-api/internal/core/ports"
	"github.com/unievents/eventhub-api/internal/infrastructure/config"
	"github.com/unievents/eventhub-api/internal/infrastructure/db/memory"
	mongostore "github.com/unievents/eventhub-api/internal/infrastructure/db/mongo"
	"github.com/unievents/eventhub-api/internal/infrastructure/db/postgres"
	"github.com/unievents/eventhub-api/internal/infrastructure/db/sqlite"
)

// store is the credential store selected by STORE_DRIVER. audit is nil when
// the backend does not persist auth events.
type store struct {
	users  ports.UserRepository
	audit  ports.AuditSink
	health handler.Dependency
	close  func()
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		ms, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		users := mongostore.NewUserRepository(ms.Database())
		audit := mongostore.NewAuditRepository(ms.Database())
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = ms.Close(context.Background())
			return nil, err
		}
		if err := audit.EnsureIndexes(ctx, cfg.Audit.Retention); err != nil {
			_ = ms.Close(context.Background())
			return nil, err
		}
		return &store{
			users:  users,
			audit:  audit,
			health: handler.Dependency{Name: "mongodb", Ping: ms.Ping},
			close: func() {
				if err := ms.Close(context.Background()); err != nil {
					log.Warn().Err(err).Msg("mongo disconnect")
				}
			},
		}, nil

	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL, MaxConns: cfg.Postgres.MaxConns})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &store{
			users:  postgres.NewUserRepository(pool),
			health: handler.Dependency{Name: "postgres", Ping: pool.Ping},
			close:  pool.Close,
		}, nil

	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &store{
			users:  sqlite.NewUserRepository(db),
			health: handler.Dependency{Name: "sqlite", Ping: db.Ping},
			close:  func() { _ = db.Close() },
		}, nil

	case config.StoreMemory:
		log.Warn().Msg("using the in-memory store; identities are lost on restart")
		users := memory.NewUserRepository()
		return &store{
			users:  users,
			health: handler.Dependency{Name: "memory", Ping: users.Ping},
			close:  func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
