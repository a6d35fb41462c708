// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package overlay

import (
	"bytes"
	"context"
	"testing"
	"time"

	badgerstore "github.com/lumina-home/lumina/services/resolve/storage/badger"
)

func openTestDB(t *testing.T) *badgerstore.DB {
	t.Helper()
	db, err := badgerstore.OpenDB(badgerstore.Config{InMemory: true})
	if err != nil {
		t.Fatalf("opening in-memory db: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing db: %v", err)
		}
	})
	return db
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	store := NewBadgerStore(openTestDB(t), nil)
	ctx := context.Background()

	rec := Record{
		Version:   "2026-09-01",
		Data:      []byte("entities:\n  - id: x\n"),
		AppliedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got == nil {
		t.Fatal("Load() returned nil after Save")
	}
	if got.Version != rec.Version || !bytes.Equal(got.Data, rec.Data) {
		t.Errorf("Load() = %+v, want %+v", got, rec)
	}
	if !got.AppliedAt.Equal(rec.AppliedAt) {
		t.Errorf("AppliedAt = %v, want %v", got.AppliedAt, rec.AppliedAt)
	}
}

func TestBadgerStoreLoadMiss(t *testing.T) {
	store := NewBadgerStore(openTestDB(t), nil)

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got != nil {
		t.Errorf("Load() = %+v, want nil on a fresh store", got)
	}
}

func TestBadgerStoreSaveOverwrites(t *testing.T) {
	store := NewBadgerStore(openTestDB(t), nil)
	ctx := context.Background()

	for _, version := range []string{"v1", "v2", "v3"} {
		rec := Record{Version: version, Data: []byte(version), AppliedAt: time.Now()}
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save(%s) error: %v", version, err)
		}
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got == nil || got.Version != "v3" {
		t.Errorf("Load() = %+v, want the latest record", got)
	}
}
