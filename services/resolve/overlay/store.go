// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package overlay handles the arrival and persistence of catalog overlay
// documents: corrective/additive entity records delivered over HTTP or
// dropped into a watched directory. The merge itself lives in the catalog
// package; this package gets documents to the service and keeps the last
// applied one across restarts.
package overlay

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"

	badgerstore "github.com/lumina-home/lumina/services/resolve/storage/badger"
)

// storeKey is the single key the store writes. Versioned (v1) to allow
// future format changes without collision.
const storeKey = "resolve/overlay/v1/current"

// Record is the persisted form of the last applied overlay document.
type Record struct {
	// Version is the overlay's own version marker, "" if it had none.
	Version string

	// Data is the raw document exactly as it was applied.
	Data []byte

	// AppliedAt is when the service accepted the overlay.
	AppliedAt time.Time
}

// Store persists the last applied overlay document across restarts.
//
// Both methods are nil-safe on the interface level: the service checks for
// a nil Store and skips persistence, which is the correct behavior for
// tests and for deployments without a state directory.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Store interface {
	// Save persists rec as the current overlay, replacing any previous one.
	// A failure is non-fatal to the caller: the overlay is already applied
	// in memory and will simply not survive a restart.
	Save(ctx context.Context, rec Record) error

	// Load retrieves the current overlay. Returns (nil, nil) when no
	// overlay has ever been saved.
	Load(ctx context.Context) (*Record, error)
}

// BadgerStore implements Store on the shared BadgerDB instance.
//
// The record is gob-encoded. Overlays are corrective state, not cache, so
// entries carry no TTL; a newer overlay simply overwrites the key.
//
// Thread Safety: Safe for concurrent use.
type BadgerStore struct {
	db     *badgerstore.DB
	logger *slog.Logger
}

// NewBadgerStore creates a BadgerStore on an already-opened DB.
//
// The caller owns the DB lifecycle; this store never closes it.
func NewBadgerStore(db *badgerstore.DB, logger *slog.Logger) *BadgerStore {
	if db == nil {
		panic("overlay.NewBadgerStore: db must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerStore{db: db, logger: logger}
}

// Save persists rec as the current overlay.
func (s *BadgerStore) Save(ctx context.Context, rec Record) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return fmt.Errorf("overlay.Save: encoding record: %w", err)
	}

	err := s.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		return txn.Set([]byte(storeKey), buf.Bytes())
	})
	if err != nil {
		return fmt.Errorf("overlay.Save: %w", err)
	}

	s.logger.Debug("Overlay persisted",
		"version", rec.Version,
		"bytes", buf.Len())
	return nil
}

// Load retrieves the current overlay, or (nil, nil) when none exists.
func (s *BadgerStore) Load(ctx context.Context) (*Record, error) {
	var raw []byte
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		item, err := txn.Get([]byte(storeKey))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("overlay.Load: %w", err)
	}

	var rec Record
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("overlay.Load: decoding record: %w", err)
	}
	return &rec, nil
}
