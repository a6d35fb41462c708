// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"gopkg.in/yaml.v3"
)

// MaxYAMLFileSize bounds catalog and overlay documents. The bundled catalog
// is well under 1 MB; anything larger is corrupt or hostile input.
const MaxYAMLFileSize = 4 * 1024 * 1024

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// catalogDocument is the on-disk shape of a catalog file.
type catalogDocument struct {
	Entities []*Entity `yaml:"entities"`
}

var (
	defaultCatalogMu      sync.RWMutex
	defaultCatalog        []*Entity
	defaultCatalogLoadErr error
)

// Default returns the bundled entity catalog.
//
// Description:
//
//	Parses and validates the embedded catalog.yaml on first call and caches
//	the result. The returned slice and its entities must be treated as
//	read-only; the resolver snapshots share them.
//
// Outputs:
//
//	[]*Entity - The validated catalog. Never empty on success.
//	error - Non-nil if the embedded data fails to parse or validate. This
//	        indicates a broken build, not a runtime condition.
//
// Thread Safety: Safe for concurrent use.
func Default() ([]*Entity, error) {
	defaultCatalogMu.RLock()
	if defaultCatalog != nil || defaultCatalogLoadErr != nil {
		ents, err := defaultCatalog, defaultCatalogLoadErr
		defaultCatalogMu.RUnlock()
		return ents, err
	}
	defaultCatalogMu.RUnlock()

	defaultCatalogMu.Lock()
	defer defaultCatalogMu.Unlock()

	if defaultCatalog == nil && defaultCatalogLoadErr == nil {
		defaultCatalog, defaultCatalogLoadErr = Load(defaultCatalogYAML)
	}
	return defaultCatalog, defaultCatalogLoadErr
}

// Load parses and validates a catalog document from YAML bytes.
//
// Description:
//
//	Unlike overlay parsing, catalog loading is strict: any invalid entity
//	fails the whole load. The bundled catalog is build-time data and must
//	be correct; partial catalogs would silently shrink the resolution space.
//
// Inputs:
//
//	data - Raw YAML bytes. Must not be empty.
//
// Outputs:
//
//	[]*Entity - The validated entities in document order.
//	error - Non-nil on parse failure, validation failure, or duplicate IDs.
func Load(data []byte) ([]*Entity, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("catalog.Load: empty YAML data")
	}
	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("catalog.Load: YAML data exceeds maximum size (%d > %d)", len(data), MaxYAMLFileSize)
	}

	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog.Load: parsing YAML: %w", err)
	}
	if len(doc.Entities) == 0 {
		return nil, fmt.Errorf("catalog.Load: catalog has no entities")
	}
	if len(doc.Entities) > MaxEntities {
		return nil, fmt.Errorf("catalog.Load: %w (%d > %d)", ErrTooManyEntities, len(doc.Entities), MaxEntities)
	}

	seen := make(map[string]int, len(doc.Entities))
	for i, ent := range doc.Entities {
		if ent == nil {
			return nil, fmt.Errorf("catalog.Load: entity[%d] is null", i)
		}
		if err := ent.Validate(); err != nil {
			return nil, fmt.Errorf("catalog.Load: entity[%d]: %w", i, err)
		}
		if first, dup := seen[ent.ID]; dup {
			return nil, fmt.Errorf("catalog.Load: entity[%d]: %w: %s (same as entity[%d])", i, ErrDuplicateID, ent.ID, first)
		}
		seen[ent.ID] = i
	}

	slog.Debug("catalog loaded", slog.Int("entities", len(doc.Entities)))
	return doc.Entities, nil
}
