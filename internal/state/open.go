package state

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/your-org/auto-buy-bot/internal/config"
)

// Open builds the Store selected by cfg.Backend. The returned close function
// releases whatever the backend holds and is never nil.
func Open(ctx context.Context, cfg config.StateConfig, logger *zap.Logger) (Store, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.StateBackendFile, "":
		logger.Info("using file state backend", zap.String("path", cfg.Path))
		return NewFileStore(cfg.Path, logger), noop, nil

	case config.StateBackendBadger:
		s, err := OpenBadgerStore(cfg.BadgerDir, cfg.BotID, logger)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("using badger state backend", zap.String("dir", cfg.BadgerDir), zap.String("bot_id", cfg.BotID))
		return s, s.Close, nil

	case config.StateBackendPostgres:
		if err := Migrate(cfg.PostgresDSN); err != nil {
			return nil, noop, err
		}
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("failed to ping postgres: %w", err)
		}
		logger.Info("using postgres state backend", zap.String("bot_id", cfg.BotID))
		return NewPostgresStore(pool, cfg.BotID, logger), func() error { pool.Close(); return nil }, nil

	default:
		return nil, noop, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}
