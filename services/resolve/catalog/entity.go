// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package catalog holds the entity catalog consumed by the resolution engine:
// the canonical team/holiday records, their color palettes, and the overlay
// machinery that merges remote corrections into the bundled data.
package catalog

import (
	"errors"
	"fmt"
)

// Catalog size and shape limits. The catalog is bundled data in the hundreds
// of entities; these bounds catch corrupt overlays, not legitimate growth.
const (
	// MinColors is the minimum number of colors an entity must carry.
	MinColors = 1

	// MaxColors is the maximum number of colors an entity may carry.
	MaxColors = 4

	// MaxEntities is the maximum catalog size after any overlay merge.
	MaxEntities = 10_000
)

// Validation errors returned by Entity.Validate and the catalog loader.
var (
	ErrMissingID       = errors.New("entity id must not be empty")
	ErrMissingName     = errors.New("entity name must not be empty")
	ErrMissingCategory = errors.New("entity category must not be empty")
	ErrColorCount      = errors.New("entity must have 1 to 4 colors")
	ErrDuplicateID     = errors.New("duplicate entity id")
	ErrTooManyEntities = errors.New("catalog exceeds maximum entity count")
)

// Color is one named RGB entry in an entity's palette.
type Color struct {
	// Name is the display name of the color (e.g. "Chiefs Red").
	Name string `yaml:"name" json:"name"`

	// RGB is the 8-bit red/green/blue triple.
	RGB [3]uint8 `yaml:"rgb" json:"rgb"`
}

// Entity is one canonical record in the catalog: a sports team, a holiday,
// or any other color-bearing thing a user can name.
//
// Entities are immutable once published into a snapshot. Identity is ID;
// an overlay record with a matching ID replaces the whole entity, never
// individual fields.
type Entity struct {
	// ID is the stable, unique, opaque identifier (e.g. "nfl-kansas-city-chiefs").
	ID string `yaml:"id" json:"id"`

	// Name is the official name (e.g. "Kansas City Chiefs").
	Name string `yaml:"name" json:"name"`

	// City is the home city or metro, empty for non-geographic entities
	// such as holidays.
	City string `yaml:"city,omitempty" json:"city,omitempty"`

	// Category is the league or entity type (e.g. "NFL", "NBA", "holiday").
	Category string `yaml:"category" json:"category"`

	// Aliases are free-text strings that identify the entity, matched
	// case-insensitively ("chefs", "kc", "arrowhead").
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`

	// Colors is the ordered palette, 1 to 4 entries, primary first.
	Colors []Color `yaml:"colors" json:"colors"`

	// Effect is an optional lighting-effect hint for the downstream
	// command pipeline (e.g. "chase", "twinkle").
	Effect string `yaml:"effect,omitempty" json:"effect,omitempty"`
}

// Validate checks the entity's required fields and palette bounds.
//
// Description:
//
//	An entity is valid when it has a non-empty ID, Name, and Category, and
//	between MinColors and MaxColors palette entries. City, Aliases, and
//	Effect are optional.
//
// Outputs:
//
//	error - Non-nil with a wrapped sentinel (ErrMissingID, ErrMissingName,
//	        ErrMissingCategory, ErrColorCount) when a field is invalid.
//
// Thread Safety: Safe for concurrent use (read-only).
func (e *Entity) Validate() error {
	if e.ID == "" {
		return ErrMissingID
	}
	if e.Name == "" {
		return fmt.Errorf("%w: entity %q", ErrMissingName, e.ID)
	}
	if e.Category == "" {
		return fmt.Errorf("%w: entity %q", ErrMissingCategory, e.ID)
	}
	if len(e.Colors) < MinColors || len(e.Colors) > MaxColors {
		return fmt.Errorf("%w: entity %q has %d", ErrColorCount, e.ID, len(e.Colors))
	}
	return nil
}

// Clone returns a deep copy of the entity.
//
// Overlay merges copy entities rather than sharing slices so a published
// snapshot can never alias the mutable parse buffer of the next overlay.
func (e *Entity) Clone() *Entity {
	clone := *e
	clone.Aliases = append([]string(nil), e.Aliases...)
	clone.Colors = append([]Color(nil), e.Colors...)
	return &clone
}
