package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	pingAttempts = 10
	pingInterval = 500 * time.Millisecond
)

func ConnectDB(ctx context.Context, dsn string, maxConns int32, logger *zap.Logger) (*pgxpool.Pool, error) {
	dbCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if maxConns > 0 {
		dbCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}

	for i := 0; i < pingAttempts; i++ {
		if err = pool.Ping(ctx); err == nil {
			logger.Info("connected to PostgreSQL", zap.Int32("maxConns", dbCfg.MaxConns))
			return pool, nil
		}
		logger.Warn("PostgreSQL is not ready yet", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(pingInterval)
	}

	pool.Close()
	return nil, fmt.Errorf("ping database: %w", err)
}
