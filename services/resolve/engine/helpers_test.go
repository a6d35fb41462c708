// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import "github.com/lumina-home/lumina/services/resolve/catalog"

// testEntities is a small catalog slice exercising the interesting shapes:
// city-prefixed names, shared aliases across leagues, and a city-less
// holiday entity.
func testEntities() []*catalog.Entity {
	return []*catalog.Entity{
		{
			ID:       "nfl-chiefs",
			Name:     "Kansas City Chiefs",
			City:     "Kansas City",
			Category: "nfl",
			Aliases:  []string{"chiefs", "kc", "arrowhead"},
			Colors:   []catalog.Color{{Name: "Chiefs Red", RGB: [3]uint8{227, 24, 55}}},
		},
		{
			ID:       "nfl-seahawks",
			Name:     "Seattle Seahawks",
			City:     "Seattle",
			Category: "nfl",
			Aliases:  []string{"seahawks", "hawks", "12s"},
			Colors:   []catalog.Color{{Name: "College Navy", RGB: [3]uint8{0, 34, 68}}},
		},
		{
			ID:       "mlb-royals",
			Name:     "Kansas City Royals",
			City:     "Kansas City",
			Category: "mlb",
			Aliases:  []string{"royals", "kc royals"},
			Colors:   []catalog.Color{{Name: "Royal Blue", RGB: [3]uint8{0, 70, 135}}},
		},
		{
			ID:       "nhl-kings",
			Name:     "Los Angeles Kings",
			City:     "Los Angeles",
			Category: "nhl",
			Aliases:  []string{"kings", "la kings"},
			Colors:   []catalog.Color{{Name: "Kings Black", RGB: [3]uint8{17, 17, 17}}},
		},
		{
			ID:       "nba-kings",
			Name:     "Sacramento Kings",
			City:     "Sacramento",
			Category: "nba",
			Aliases:  []string{"kings", "sac kings"},
			Colors:   []catalog.Color{{Name: "Kings Purple", RGB: [3]uint8{91, 43, 130}}},
		},
		{
			ID:       "holiday-christmas",
			Name:     "Christmas",
			Category: "holiday",
			Aliases:  []string{"christmas", "xmas"},
			Colors:   []catalog.Color{{Name: "Christmas Red", RGB: [3]uint8{200, 16, 46}}},
			Effect:   "twinkle",
		},
	}
}

// findEntity returns the fixture entity with the given ID, or nil.
func findEntity(ents []*catalog.Entity, id string) *catalog.Entity {
	for _, e := range ents {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// countingIndex wraps an AliasIndex and records which read paths ran, so
// tests can prove that later pipeline phases never execute once an earlier
// phase produced candidates.
type countingIndex struct {
	inner       *AliasIndex
	lookupCalls int
	entityCalls int
	rangeCalls  int
}

func (c *countingIndex) Lookup(key string) []*catalog.Entity {
	c.lookupCalls++
	return c.inner.Lookup(key)
}

func (c *countingIndex) Entities() []*catalog.Entity {
	c.entityCalls++
	return c.inner.Entities()
}

func (c *countingIndex) RangeAliases(fn func(string, []*catalog.Entity) bool) {
	c.rangeCalls++
	c.inner.RangeAliases(fn)
}
