package state

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers the pgx5:// scheme
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Pool is the subset of *pgxpool.Pool used by PostgresStore, abstracted for testability.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

const (
	selectStateSQL = `SELECT is_active, last_run FROM bot_state WHERE bot_id = $1`
	upsertStateSQL = `INSERT INTO bot_state (bot_id, is_active, last_run, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (bot_id) DO UPDATE
SET is_active = EXCLUDED.is_active, last_run = EXCLUDED.last_run, updated_at = now()`
)

// PostgresStore keeps the state record as one row of the bot_state table.
type PostgresStore struct {
	pool   Pool
	botID  string
	logger *zap.Logger
}

// NewPostgresStore creates a PostgresStore for the row keyed by botID.
func NewPostgresStore(pool Pool, botID string, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{pool: pool, botID: botID, logger: logger}
}

// Load reads the row, falling back to Default() when it is missing or unreadable.
func (s *PostgresStore) Load(ctx context.Context) BotState {
	var (
		active  bool
		lastRun *time.Time
	)
	err := s.pool.QueryRow(ctx, selectStateSQL, s.botID).Scan(&active, &lastRun)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug("no bot_state row yet, using defaults", zap.String("bot_id", s.botID))
		} else {
			s.logger.Warn("failed to load bot_state row, using defaults", zap.String("bot_id", s.botID), zap.Error(err))
		}
		return Default()
	}
	return BotState{Active: active, LastRun: lastRun}
}

// Save upserts the row in a single statement.
func (s *PostgresStore) Save(ctx context.Context, st BotState) error {
	var lastRun *time.Time
	if st.LastRun != nil {
		// timestamptz keeps microseconds.
		t := st.LastRun.Truncate(time.Microsecond)
		lastRun = &t
	}
	tag, err := s.pool.Exec(ctx, upsertStateSQL, s.botID, st.Active, lastRun)
	if err != nil {
		return &PersistenceError{Backend: "postgres", Err: err}
	}
	if tag.RowsAffected() != 1 {
		return &PersistenceError{Backend: "postgres", Err: fmt.Errorf("upsert affected %d rows", tag.RowsAffected())}
	}
	s.logger.Debug("saved bot state", zap.String("bot_id", s.botID), zap.Stringer("state", st))
	return nil
}

// Migrate applies the embedded schema migrations to the database at dsn.
func Migrate(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dsn))
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// migrateURL rewrites a postgres:// DSN to the scheme the pgx/v5 migrate driver registers.
func migrateURL(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}
