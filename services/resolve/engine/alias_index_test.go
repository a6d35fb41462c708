// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"sort"
	"testing"

	"github.com/lumina-home/lumina/services/resolve/catalog"
)

func TestBuildAliasIndexKeys(t *testing.T) {
	idx := BuildAliasIndex(testEntities())

	tests := []struct {
		name    string
		key     string
		wantIDs []string
	}{
		{name: "official name", key: "kansas city chiefs", wantIDs: []string{"nfl-chiefs"}},
		{name: "city key is shared", key: "kansas city", wantIDs: []string{"nfl-chiefs", "mlb-royals"}},
		{name: "city prefix stripped from name", key: "royals", wantIDs: []string{"mlb-royals"}},
		{name: "explicit alias", key: "arrowhead", wantIDs: []string{"nfl-chiefs"}},
		{name: "collision preserved across leagues", key: "kings", wantIDs: []string{"nhl-kings", "nba-kings"}},
		{name: "cityless entity registers name only", key: "christmas", wantIDs: []string{"holiday-christmas"}},
		{name: "unknown key", key: "packers", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ents := idx.Lookup(tt.key)
			var gotIDs []string
			for _, e := range ents {
				gotIDs = append(gotIDs, e.ID)
			}
			sort.Strings(gotIDs)
			want := append([]string(nil), tt.wantIDs...)
			sort.Strings(want)

			if len(gotIDs) != len(want) {
				t.Fatalf("Lookup(%q) returned %v, want %v", tt.key, gotIDs, want)
			}
			for i := range want {
				if gotIDs[i] != want[i] {
					t.Fatalf("Lookup(%q) returned %v, want %v", tt.key, gotIDs, want)
				}
			}
		})
	}
}

func TestBuildAliasIndexNoDuplicateRegistration(t *testing.T) {
	// "chiefs" arrives twice for the same entity: as the stripped name
	// remainder and as an explicit alias. It must register once.
	idx := BuildAliasIndex(testEntities())
	if got := len(idx.Lookup("chiefs")); got != 1 {
		t.Fatalf("Lookup(\"chiefs\") returned %d entities, want 1", got)
	}
}

func TestRangeAliasesOrderAndStop(t *testing.T) {
	idx := BuildAliasIndex(testEntities())

	var keys []string
	idx.RangeAliases(func(key string, _ []*catalog.Entity) bool {
		keys = append(keys, key)
		return true
	})
	if len(keys) != idx.Size() {
		t.Fatalf("RangeAliases visited %d keys, Size() reports %d", len(keys), idx.Size())
	}
	if !sort.StringsAreSorted(keys) {
		t.Errorf("RangeAliases visited keys out of order: %v", keys)
	}

	visited := 0
	idx.RangeAliases(func(string, []*catalog.Entity) bool {
		visited++
		return visited < 2
	})
	if visited != 2 {
		t.Errorf("RangeAliases kept iterating after fn returned false: visited %d", visited)
	}
}
