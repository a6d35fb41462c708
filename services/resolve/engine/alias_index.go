// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"sort"
	"strings"

	"github.com/lumina-home/lumina/services/resolve/catalog"
)

// aliasLookup is the read surface the pipeline phases need from an index.
// Tests substitute an instrumented implementation to observe phase order.
type aliasLookup interface {
	// Lookup returns every entity registered under the normalized key, or
	// nil when the key is unknown.
	Lookup(key string) []*catalog.Entity

	// Entities returns the full entity set backing the index.
	Entities() []*catalog.Entity

	// RangeAliases calls fn for each alias key in deterministic order until
	// fn returns false.
	RangeAliases(fn func(key string, ents []*catalog.Entity) bool)
}

// AliasIndex maps normalized alias keys to the entities that claim them.
//
// Description:
//
//	For each entity the index registers its normalized name, its city, its
//	name with a leading city prefix stripped ("kansas city chiefs" also
//	registers "chiefs"), and every explicit alias. Distinct entities that
//	share a key ("kings") are all preserved under it; disambiguation is the
//	ranking layer's job, not the index's.
//
// Thread Safety: Immutable after BuildAliasIndex; safe for concurrent reads.
type AliasIndex struct {
	byKey      map[string][]*catalog.Entity
	entities   []*catalog.Entity
	sortedKeys []string
}

// BuildAliasIndex constructs an index over the given entity set.
//
// The entities slice is referenced, not copied; callers hand the index an
// already-cloned snapshot.
func BuildAliasIndex(entities []*catalog.Entity) *AliasIndex {
	idx := &AliasIndex{
		byKey:    make(map[string][]*catalog.Entity, len(entities)*4),
		entities: entities,
	}

	for _, ent := range entities {
		name := Normalize(ent.Name)
		city := Normalize(ent.City)

		idx.add(name, ent)
		idx.add(city, ent)
		if city != "" && strings.HasPrefix(name, city+" ") {
			idx.add(strings.TrimPrefix(name, city+" "), ent)
		}
		for _, alias := range ent.Aliases {
			idx.add(Normalize(alias), ent)
		}
	}

	idx.sortedKeys = make([]string, 0, len(idx.byKey))
	for k := range idx.byKey {
		idx.sortedKeys = append(idx.sortedKeys, k)
	}
	sort.Strings(idx.sortedKeys)

	return idx
}

// add registers ent under key, skipping empty keys and duplicates.
func (idx *AliasIndex) add(key string, ent *catalog.Entity) {
	if key == "" {
		return
	}
	for _, existing := range idx.byKey[key] {
		if existing.ID == ent.ID {
			return
		}
	}
	idx.byKey[key] = append(idx.byKey[key], ent)
}

// Lookup returns every entity registered under the normalized key.
func (idx *AliasIndex) Lookup(key string) []*catalog.Entity {
	return idx.byKey[key]
}

// Entities returns the entity set the index was built over.
func (idx *AliasIndex) Entities() []*catalog.Entity {
	return idx.entities
}

// RangeAliases iterates alias keys in sorted order until fn returns false.
func (idx *AliasIndex) RangeAliases(fn func(key string, ents []*catalog.Entity) bool) {
	for _, k := range idx.sortedKeys {
		if !fn(k, idx.byKey[k]) {
			return
		}
	}
}

// Size returns the number of distinct alias keys.
func (idx *AliasIndex) Size() int {
	return len(idx.byKey)
}
