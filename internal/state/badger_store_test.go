package state

import (
	"context"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestBadger(t *testing.T, botID string) *BadgerStore {
	t.Helper()
	s, err := OpenBadgerStore(t.TempDir(), botID, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadgerStore_MissingKeyYieldsDefault(t *testing.T) {
	s := openTestBadger(t, "bot-1")
	assert.True(t, s.Load(context.Background()).Equal(Default()))
}

func TestBadgerStore_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	s := openTestBadger(t, "bot-1")

	want := BotState{Active: true}.WithLastRun(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, s.Save(ctx, want))
	assert.True(t, s.Load(ctx).Equal(want))

	want.Active = false
	require.NoError(t, s.Save(ctx, want))
	assert.True(t, s.Load(ctx).Equal(want))
}

func TestBadgerStore_KeysAreScopedByBotID(t *testing.T) {
	ctx := context.Background()
	s := openTestBadger(t, "bot-1")
	other := NewBadgerStore(s.db, "bot-2", nil)

	require.NoError(t, s.Save(ctx, BotState{Active: true}))
	assert.True(t, other.Load(ctx).Equal(Default()))
	assert.NoError(t, other.Close(), "a borrowed db is not closed")
}

func TestBadgerStore_MalformedValueYieldsDefault(t *testing.T) {
	s := openTestBadger(t, "bot-1")
	require.NoError(t, s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("bot_state/bot-1"), []byte("garbage"))
	}))
	assert.True(t, s.Load(context.Background()).Equal(Default()))
}

func TestOpenBadgerStore_RequiresDir(t *testing.T) {
	_, err := OpenBadgerStore("  ", "bot-1", nil)
	assert.Error(t, err)
}
