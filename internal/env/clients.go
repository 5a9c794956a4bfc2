package environment

import (
	"context"
	"log/slog"
	"time"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/config"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/infra/sqlite3"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/infra/tmetr"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/infra/yookassa"
)

type Clients struct {
	SQLiteDB *sqlite3.DB
	YooKassa *yookassa.Client
	Tmetr    *tmetr.Client
}

func newClients(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Clients, error) {
	sqliteDB, err := provideSQLiteDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	yookassaClient := yookassa.NewClient(cfg.YooKassa.ReturnURL, cfg.YooKassa.MockPayment, logger)

	tmetrClient := tmetr.NewClient(
		cfg.Tmetr.Host,
		cfg.Tmetr.Token,
		cfg.Tmetr.Timeout,
		cfg.Tmetr.RateLimit.RPS,
		cfg.Tmetr.RateLimit.Burst,
		logger,
	)

	return &Clients{
		SQLiteDB: sqliteDB,
		YooKassa: yookassaClient,
		Tmetr:    tmetrClient,
	}, nil
}

func provideSQLiteDB(ctx context.Context, cfg config.Config) (*sqlite3.DB, error) {
	// Parse max lifetime from string to duration, use default if empty
	maxLifetimeStr := cfg.DB.MaxLifetime
	if maxLifetimeStr == "" {
		maxLifetimeStr = "5m" // default value
	}
	maxLifetime, err := time.ParseDuration(maxLifetimeStr)
	if err != nil {
		return nil, err
	}

	opts := []sqlite3.Option{
		sqlite3.WithDSN(cfg.DB.Path),
		sqlite3.WithMaxOpenConns(cfg.DB.MaxOpenConns),
		sqlite3.WithMaxIdleConns(cfg.DB.MaxIdleConns),
		sqlite3.WithConnMaxLifetime(maxLifetime),
	}

	return sqlite3.New(ctx, opts...)
}
