package probes

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	cfgpkg "github.com/taoyao-code/health-monitor/internal/config"
	"github.com/taoyao-code/health-monitor/internal/health"
)

// NewPgxPool 创建 pgx 连接池并探活
func NewPgxPool(ctx context.Context, cfg cfgpkg.DatabaseConfig) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pc.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pc.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	pc.MaxConnIdleTime = 30 * time.Minute
	pc.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}

	ctxPing, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Database PostgreSQL 探测：Ping + 连接池利用率
func Database(pool *pgxpool.Pool) health.Probe {
	return func(ctx context.Context) health.Outcome {
		if err := pool.Ping(ctx); err != nil {
			return health.Failure(fmt.Sprintf("ping failed: %v", err))
		}

		stats := pool.Stat()
		utilization := 0.0
		if stats.MaxConns() > 0 {
			utilization = float64(stats.AcquiredConns()) / float64(stats.MaxConns())
		}
		if utilization >= 1.0 {
			return health.Failure("connection pool exhausted")
		}

		return health.Success(map[string]interface{}{
			"total_conns":    stats.TotalConns(),
			"idle_conns":     stats.IdleConns(),
			"acquired_conns": stats.AcquiredConns(),
			"max_conns":      stats.MaxConns(),
			"utilization":    fmt.Sprintf("%.1f%%", utilization*100),
			"pool_pressure":  utilization > 0.9,
		})
	}
}
