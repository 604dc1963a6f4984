package state

import (
	"context"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// BadgerStore keeps the state record under a single key of an embedded Badger database.
type BadgerStore struct {
	db     *badger.DB
	key    []byte
	owned  bool
	logger *zap.Logger
}

// OpenBadgerStore opens (or creates) a Badger database in dir.
// The returned store owns the database and closes it in Close.
func OpenBadgerStore(dir, botID string, logger *zap.Logger) (*BadgerStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("badger state dir is required")
	}
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithSyncWrites(true)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger state db at %s: %w", dir, err)
	}
	s := NewBadgerStore(db, botID, logger)
	s.owned = true
	return s, nil
}

// NewBadgerStore wraps an already opened database.
func NewBadgerStore(db *badger.DB, botID string, logger *zap.Logger) *BadgerStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgerStore{
		db:     db,
		key:    []byte("bot_state/" + botID),
		logger: logger,
	}
}

// Load reads the record, falling back to Default() on any error.
func (s *BadgerStore) Load(ctx context.Context) BotState {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			s.logger.Debug("no bot state key yet, using defaults", zap.ByteString("key", s.key))
		} else {
			s.logger.Warn("failed to read bot state key, using defaults", zap.ByteString("key", s.key), zap.Error(err))
		}
		return Default()
	}

	st, err := Decode(data)
	if err != nil {
		s.logger.Warn("bot state value is malformed, using defaults", zap.ByteString("key", s.key), zap.Error(err))
		return Default()
	}
	return st
}

// Save replaces the record in one transaction.
func (s *BadgerStore) Save(ctx context.Context, st BotState) error {
	data, err := Encode(st)
	if err != nil {
		return &PersistenceError{Backend: "badger", Err: err}
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, data)
	}); err != nil {
		return &PersistenceError{Backend: "badger", Err: err}
	}
	s.logger.Debug("saved bot state", zap.ByteString("key", s.key), zap.Stringer("state", st))
	return nil
}

// Close closes the database if the store opened it.
func (s *BadgerStore) Close() error {
	if !s.owned || s.db == nil {
		return nil
	}
	return s.db.Close()
}
