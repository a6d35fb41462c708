// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Overlay — remote corrections merged into the bundled catalog
// =============================================================================
//
// An overlay is a small document of additive or corrective entity records.
// Records are validated individually: one malformed record is skipped and
// reported, it never aborts the merge of the rest. The merge itself is
// copy-on-write — it produces a fresh entity slice and leaves the input
// catalog untouched, so the caller can publish the result with a single
// atomic snapshot swap.

// Overlay is a parsed overlay document.
type Overlay struct {
	// Version is an optional monotonic marker for logging and cache keys.
	Version string `yaml:"version,omitempty" json:"version,omitempty"`

	// Entities are the additive/corrective records. A record whose ID
	// matches an existing entity replaces that entity wholesale; any other
	// record is appended.
	Entities []*Entity `yaml:"entities" json:"entities"`
}

// SkippedRecord describes one overlay record that failed validation.
type SkippedRecord struct {
	// Index is the record's position in the overlay document.
	Index int `json:"index"`

	// ID is the record's entity ID, or "" if the ID itself was missing.
	ID string `json:"id,omitempty"`

	// Reason is the human-readable validation failure.
	Reason string `json:"reason"`
}

// MergeReport summarizes the outcome of an overlay merge.
type MergeReport struct {
	// Added is the count of records appended as new entities.
	Added int `json:"added"`

	// Updated is the count of records that replaced existing entities.
	Updated int `json:"updated"`

	// Skipped lists records rejected by validation, in document order.
	Skipped []SkippedRecord `json:"skipped,omitempty"`

	// Total is the final catalog size after the merge.
	Total int `json:"total"`
}

// ParseOverlay parses an overlay document from YAML or JSON bytes.
//
// Description:
//
//	YAML is a superset of JSON, so the same parser accepts overlays from
//	the HTTP endpoint (JSON bodies) and the watched overlay directory
//	(YAML files). Parsing is shape-only; per-record validation happens in
//	MergeOverlay so a malformed record can be skipped instead of failing
//	the document.
//
// Inputs:
//
//	data - Raw overlay bytes. Must not be empty.
//
// Outputs:
//
//	*Overlay - The parsed overlay.
//	error - Non-nil if the document as a whole is unparseable or oversized.
func ParseOverlay(data []byte) (*Overlay, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("catalog.ParseOverlay: empty overlay data")
	}
	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("catalog.ParseOverlay: overlay exceeds maximum size (%d > %d)", len(data), MaxYAMLFileSize)
	}

	var ov Overlay
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("catalog.ParseOverlay: parsing: %w", err)
	}
	if len(ov.Entities) == 0 {
		return nil, fmt.Errorf("catalog.ParseOverlay: overlay has no entity records")
	}
	return &ov, nil
}

// MergeOverlay merges overlay records into a catalog, copy-on-write.
//
// Description:
//
//	Builds a new entity slice from the base catalog plus the overlay.
//	Valid records replace (by ID) or append; invalid records are collected
//	in the report and skipped. The base slice and its entities are never
//	mutated — replaced entries get cloned overlay records, untouched
//	entries share the base pointers (entities are immutable once
//	published, so sharing is safe).
//
// Inputs:
//
//	base - The current catalog. Treated as read-only.
//	ov - The parsed overlay. Must not be nil.
//
// Outputs:
//
//	[]*Entity - The merged catalog. Always a fresh slice.
//	MergeReport - Per-record outcome counts and skip reasons.
//	error - Non-nil only when the merged catalog would exceed MaxEntities.
//	        Individual record failures are reported, not returned.
//
// Thread Safety: Safe for concurrent use; all inputs are read-only.
func MergeOverlay(base []*Entity, ov *Overlay) ([]*Entity, MergeReport, error) {
	report := MergeReport{}

	merged := make([]*Entity, len(base))
	copy(merged, base)

	byID := make(map[string]int, len(merged))
	for i, ent := range merged {
		byID[ent.ID] = i
	}

	for i, rec := range ov.Entities {
		if rec == nil {
			report.Skipped = append(report.Skipped, SkippedRecord{Index: i, Reason: "record is null"})
			continue
		}
		if err := rec.Validate(); err != nil {
			report.Skipped = append(report.Skipped, SkippedRecord{Index: i, ID: rec.ID, Reason: err.Error()})
			continue
		}

		clone := rec.Clone()
		if pos, exists := byID[clone.ID]; exists {
			merged[pos] = clone
			report.Updated++
		} else {
			byID[clone.ID] = len(merged)
			merged = append(merged, clone)
			report.Added++
		}
	}

	if len(merged) > MaxEntities {
		return nil, report, fmt.Errorf("catalog.MergeOverlay: %w (%d > %d)", ErrTooManyEntities, len(merged), MaxEntities)
	}

	report.Total = len(merged)
	return merged, report, nil
}
