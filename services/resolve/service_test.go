// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolve

import (
	"context"
	"sync"
	"testing"

	"github.com/lumina-home/lumina/services/resolve/catalog"
	"github.com/lumina-home/lumina/services/resolve/engine"
	"github.com/lumina-home/lumina/services/resolve/overlay"
	badgerstore "github.com/lumina-home/lumina/services/resolve/storage/badger"
)

const testOverlayYAML = `
version: "test-1"
entities:
  - id: nfl-kansas-city-chiefs
    name: Kansas City Chiefs
    city: Kansas City
    category: NFL
    aliases: [chiefs, kc, kingdom]
    colors:
      - {name: Chiefs Red, rgb: [227, 24, 55]}
  - id: xfl-new-team
    name: Testville Titans
    city: Testville
    category: XFL
    aliases: [titans]
    colors:
      - {name: Titan Teal, rgb: [0, 128, 128]}
`

func newTestService(t *testing.T, store overlay.Store) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{Store: store})
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}
	return svc
}

func TestServiceResolve(t *testing.T) {
	svc := newTestService(t, nil)

	res := svc.Resolve(context.Background(), "chiefs", engine.UserContext{})
	if !res.Resolved() || res.Entity.ID != "nfl-kansas-city-chiefs" {
		t.Fatalf("Resolve(\"chiefs\") = %+v, want nfl-kansas-city-chiefs", res)
	}
	if res.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", res.Confidence)
	}
}

func TestServiceApplyOverlay(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	before := svc.EntityCount()
	if res := svc.Resolve(ctx, "titans", engine.UserContext{}); res.Resolved() {
		t.Fatalf("\"titans\" resolved before the overlay: %+v", res)
	}

	report, err := svc.ApplyOverlay(ctx, []byte(testOverlayYAML), "test")
	if err != nil {
		t.Fatalf("ApplyOverlay() error: %v", err)
	}
	if report.Added != 1 || report.Updated != 1 || len(report.Skipped) != 0 {
		t.Errorf("report = %+v, want 1 added, 1 updated", report)
	}

	if got := svc.EntityCount(); got != before+1 {
		t.Errorf("EntityCount() = %d, want %d", got, before+1)
	}
	if got := svc.OverlayVersion(); got != "test-1" {
		t.Errorf("OverlayVersion() = %q, want test-1", got)
	}

	// The overlay's new alias and new entity are both live.
	if res := svc.Resolve(ctx, "kingdom", engine.UserContext{}); !res.Resolved() || res.Entity.ID != "nfl-kansas-city-chiefs" {
		t.Errorf("Resolve(\"kingdom\") = %+v, want the updated chiefs", res)
	}
	if res := svc.Resolve(ctx, "titans", engine.UserContext{}); !res.Resolved() || res.Entity.ID != "xfl-new-team" {
		t.Errorf("Resolve(\"titans\") = %+v, want xfl-new-team", res)
	}
}

func TestServiceApplyOverlayRejectsGarbage(t *testing.T) {
	svc := newTestService(t, nil)
	before := svc.EntityCount()

	if _, err := svc.ApplyOverlay(context.Background(), []byte("entities: [unclosed"), "test"); err == nil {
		t.Fatal("ApplyOverlay() accepted a malformed document")
	}
	if got := svc.EntityCount(); got != before {
		t.Errorf("snapshot changed after a rejected overlay: %d != %d", got, before)
	}
}

func TestServiceOverlaySurvivesRestart(t *testing.T) {
	db, err := badgerstore.OpenDB(badgerstore.Config{InMemory: true})
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	defer db.Close()
	store := overlay.NewBadgerStore(db, nil)
	ctx := context.Background()

	first := newTestService(t, store)
	if _, err := first.ApplyOverlay(ctx, []byte(testOverlayYAML), "test"); err != nil {
		t.Fatalf("ApplyOverlay() error: %v", err)
	}

	// A second service over the same store plays the role of a restarted
	// process and must converge to the same catalog.
	second := newTestService(t, store)
	if got := second.OverlayVersion(); got != "test-1" {
		t.Errorf("restored OverlayVersion() = %q, want test-1", got)
	}
	if res := second.Resolve(ctx, "titans", engine.UserContext{}); !res.Resolved() {
		t.Errorf("overlay entity missing after restart: %+v", res)
	}
}

func TestServiceResolveDuringOverlaySwap(t *testing.T) {
	// Readers must always observe a complete snapshot: every resolution
	// returns either the pre-merge or post-merge view, never a torn one.
	svc := newTestService(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				res := svc.Resolve(ctx, "chiefs", engine.UserContext{})
				if !res.Resolved() {
					t.Error("\"chiefs\" unresolved mid-swap")
					return
				}
			}
		}()
	}

	for i := 0; i < 10; i++ {
		if _, err := svc.ApplyOverlay(ctx, []byte(testOverlayYAML), "test"); err != nil {
			t.Errorf("ApplyOverlay() error: %v", err)
		}
	}
	close(stop)
	wg.Wait()
}

func TestServiceEntityLookup(t *testing.T) {
	svc := newTestService(t, nil)

	if _, ok := svc.Entity("nfl-kansas-city-chiefs"); !ok {
		t.Error("bundled entity missing from lookup")
	}
	if _, ok := svc.Entity("does-not-exist"); ok {
		t.Error("lookup returned a phantom entity")
	}
	if len(svc.Entities()) != svc.EntityCount() {
		t.Error("Entities() and EntityCount() disagree")
	}
}

func TestServiceInjectedCatalog(t *testing.T) {
	ents := []*catalog.Entity{{
		ID: "only-one", Name: "Only One", Category: "test",
		Aliases: []string{"solo"},
		Colors:  []catalog.Color{{Name: "White", RGB: [3]uint8{255, 255, 255}}},
	}}
	svc, err := NewService(ServiceConfig{Entities: ents})
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}
	if svc.EntityCount() != 1 {
		t.Errorf("EntityCount() = %d, want 1", svc.EntityCount())
	}
	if res := svc.Resolve(context.Background(), "solo", engine.UserContext{}); !res.Resolved() {
		t.Errorf("injected catalog did not resolve: %+v", res)
	}
}
