package state

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock, "bot-1", nil), mock
}

func TestPostgresStore_Load(t *testing.T) {
	s, mock := newMockStore(t)
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectStateSQL)).
		WithArgs("bot-1").
		WillReturnRows(pgxmock.NewRows([]string{"is_active", "last_run"}).AddRow(true, &ts))

	st := s.Load(context.Background())
	assert.True(t, st.Active)
	require.NotNil(t, st.LastRun)
	assert.True(t, st.LastRun.Equal(ts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadNullLastRun(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectStateSQL)).
		WithArgs("bot-1").
		WillReturnRows(pgxmock.NewRows([]string{"is_active", "last_run"}).AddRow(true, nil))

	st := s.Load(context.Background())
	assert.True(t, st.Active)
	assert.Nil(t, st.LastRun)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadFallsBackToDefault(t *testing.T) {
	for name, qerr := range map[string]error{
		"no row":     pgx.ErrNoRows,
		"conn error": errors.New("connection refused"),
	} {
		t.Run(name, func(t *testing.T) {
			s, mock := newMockStore(t)
			mock.ExpectQuery(regexp.QuoteMeta(selectStateSQL)).WithArgs("bot-1").WillReturnError(qerr)

			assert.True(t, s.Load(context.Background()).Equal(Default()))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_Save(t *testing.T) {
	s, mock := newMockStore(t)
	st := BotState{Active: true}.WithLastRun(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	mock.ExpectExec(regexp.QuoteMeta(upsertStateSQL)).
		WithArgs("bot-1", true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Save(context.Background(), st))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// instantArg matches a *time.Time argument by instant.
type instantArg struct{ want time.Time }

func (a instantArg) Match(v interface{}) bool {
	t, ok := v.(*time.Time)
	return ok && t != nil && t.Equal(a.want) && t.Nanosecond() == a.want.Nanosecond()
}

func TestPostgresStore_SaveTruncatesToMicroseconds(t *testing.T) {
	s, mock := newMockStore(t)
	ts := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC)
	stored := time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(upsertStateSQL)).
		WithArgs("bot-1", true, instantArg{want: stored}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectStateSQL)).
		WithArgs("bot-1").
		WillReturnRows(pgxmock.NewRows([]string{"is_active", "last_run"}).AddRow(true, &stored))

	saved := BotState{Active: true}.WithLastRun(ts)
	require.NoError(t, s.Save(context.Background(), BotState{Active: true, LastRun: &ts}))
	got := s.Load(context.Background())
	assert.True(t, saved.Equal(got), "want %s, got %s", saved, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveFailureIsPersistenceError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(upsertStateSQL)).
		WithArgs("bot-1", false, pgxmock.AnyArg()).
		WillReturnError(errors.New("read-only transaction"))

	err := s.Save(context.Background(), Default())
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "postgres", perr.Backend)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRequiresOneRow(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(upsertStateSQL)).
		WithArgs("bot-1", true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := s.Save(context.Background(), BotState{Active: true})
	var perr *PersistenceError
	assert.True(t, errors.As(err, &perr))
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@host:5432/db?sslmode=disable", migrateURL("postgres://u:p@host:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://host/db", migrateURL("postgresql://host/db"))
	assert.Equal(t, "pgx5://host/db", migrateURL("pgx5://host/db"))
}
