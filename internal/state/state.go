// Package state persists the bot's on/off flag and the time of its last trade attempt.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// BotState is the single persisted record of the bot.
// LastRun is nil until the first trade attempt after a (re)start.
type BotState struct {
	Active  bool
	LastRun *time.Time
}

// Default is the state used when nothing (valid) has been persisted yet.
func Default() BotState {
	return BotState{}
}

// Equal reports whether two states describe the same record. Timestamps are
// compared as instants, ignoring location and monotonic readings.
func (s BotState) Equal(o BotState) bool {
	if s.Active != o.Active {
		return false
	}
	if s.LastRun == nil || o.LastRun == nil {
		return s.LastRun == nil && o.LastRun == nil
	}
	return s.LastRun.Equal(*o.LastRun)
}

// WithLastRun returns a copy of s with LastRun set to t, truncated to the
// microsecond precision every backend can store.
func (s BotState) WithLastRun(t time.Time) BotState {
	t = t.Round(0).Truncate(time.Microsecond)
	s.LastRun = &t
	return s
}

func (s BotState) String() string {
	if s.LastRun == nil {
		return fmt.Sprintf("{active:%t last_run:none}", s.Active)
	}
	return fmt.Sprintf("{active:%t last_run:%s}", s.Active, s.LastRun.Format(time.RFC3339))
}

// Store loads and saves the bot state. Load never fails: a missing or
// unreadable record yields Default(). Save replaces the whole record.
type Store interface {
	Load(ctx context.Context) BotState
	Save(ctx context.Context, st BotState) error
}

// PersistenceError is returned by Store.Save when the record could not be written.
type PersistenceError struct {
	Backend string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist bot state (%s): %v", e.Backend, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ErrMalformed marks a persisted record that could not be decoded.
var ErrMalformed = errors.New("malformed bot state record")

// record is the on-disk layout shared by the file and badger backends.
type record struct {
	IsActive bool    `json:"is_active"`
	LastRun  *string `json:"last_run"`
}

// Naive timestamps (no zone) are read as local time. The fractional part is optional.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for i, layout := range timestampLayouts {
		var t time.Time
		var err error
		if i == 0 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized last_run timestamp %q", ErrMalformed, s)
}

// Encode renders st in the persisted JSON layout.
func Encode(st BotState) ([]byte, error) {
	rec := record{IsActive: st.Active}
	if st.LastRun != nil {
		ts := st.LastRun.Format(time.RFC3339Nano)
		rec.LastRun = &ts
	}
	return json.Marshal(rec)
}

// Decode parses the persisted JSON layout. Errors wrap ErrMalformed.
func Decode(data []byte) (BotState, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Default(), fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	st := BotState{Active: rec.IsActive}
	if rec.LastRun != nil && strings.TrimSpace(*rec.LastRun) != "" {
		t, err := parseTimestamp(*rec.LastRun)
		if err != nil {
			return Default(), err
		}
		st.LastRun = &t
	}
	return st, nil
}
