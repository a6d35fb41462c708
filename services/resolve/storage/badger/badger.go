// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package badger wraps a BadgerDB instance behind a small transactional
// surface so callers never hold the raw *badger.DB. One DB is opened at
// service start and shared; stores built on top of it scope themselves with
// key prefixes.
package badger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"
)

// gcInterval is how often the value-log garbage collector runs.
const gcInterval = 10 * time.Minute

// gcDiscardRatio triggers a value-log rewrite when at least this fraction
// of a file is stale.
const gcDiscardRatio = 0.5

// Config controls how the DB is opened.
type Config struct {
	// Path is the on-disk location. Ignored when InMemory is set.
	Path string

	// InMemory opens a throwaway DB with no files, for tests and for
	// deployments that opt out of persistence.
	InMemory bool

	// Logger receives Badger's own diagnostics at debug level. May be nil.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with persistence enabled and no path set;
// callers fill in Path before OpenDB.
func DefaultConfig() Config {
	return Config{}
}

// DB is an opened BadgerDB handle.
//
// Thread Safety: Safe for concurrent use; Badger transactions are
// per-goroutine.
type DB struct {
	db     *dgbadger.DB
	logger *slog.Logger
	stopGC chan struct{}
}

// OpenDB opens (or creates) the database described by cfg.
//
// Description:
//
//	Starts a background value-log GC loop that runs until Close. Badger's
//	chatty internal logging is routed to slog at debug level so it stays
//	out of production output.
//
// Outputs:
//
//	*DB - The opened handle. Callers own the lifecycle and must Close it.
//	error - Non-nil when the directory cannot be opened or is locked by
//	        another process.
func OpenDB(cfg Config) (*DB, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var opts dgbadger.Options
	if cfg.InMemory {
		opts = dgbadger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger.OpenDB: Path must be set unless InMemory")
		}
		opts = dgbadger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(slogAdapter{logger})

	inner, err := dgbadger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger.OpenDB: %w", err)
	}

	db := &DB{db: inner, logger: logger, stopGC: make(chan struct{})}
	if !cfg.InMemory {
		go db.gcLoop()
	}
	return db, nil
}

// Close stops the GC loop and closes the underlying database.
func (d *DB) Close() error {
	close(d.stopGC)
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("badger.Close: %w", err)
	}
	return nil
}

// WithTxn runs fn inside a read-write transaction and commits it.
//
// The context is checked before starting; Badger itself has no
// per-operation cancellation.
func (d *DB) WithTxn(ctx context.Context, fn func(txn *dgbadger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.Update(fn)
}

// WithReadTxn runs fn inside a read-only transaction.
func (d *DB) WithReadTxn(ctx context.Context, fn func(txn *dgbadger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.View(fn)
}

// gcLoop periodically reclaims value-log space. ErrNoRewrite is the normal
// "nothing to do" outcome and is not logged.
func (d *DB) gcLoop() {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopGC:
			return
		case <-ticker.C:
			for {
				err := d.db.RunValueLogGC(gcDiscardRatio)
				if err == dgbadger.ErrNoRewrite {
					break
				}
				if err != nil {
					d.logger.Warn("Badger value log GC failed", "error", err)
					break
				}
			}
		}
	}
}

// slogAdapter bridges Badger's printf-style logger onto slog at levels that
// keep Badger quiet unless something is actually wrong.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Errorf(format string, args ...interface{}) {
	a.logger.Error(fmt.Sprintf("badger: "+format, args...))
}

func (a slogAdapter) Warningf(format string, args ...interface{}) {
	a.logger.Warn(fmt.Sprintf("badger: "+format, args...))
}

func (a slogAdapter) Infof(format string, args ...interface{}) {
	a.logger.Debug(fmt.Sprintf("badger: "+format, args...))
}

func (a slogAdapter) Debugf(format string, args ...interface{}) {
	a.logger.Debug(fmt.Sprintf("badger: "+format, args...))
}
