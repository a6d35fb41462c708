// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engine implements the entity resolution pipeline: alias indexing,
// phased candidate generation, personalization and geographic boosts, and
// confidence ranking. It is pure CPU — no I/O, no blocking, no shared
// mutable state — so a Resolver built over an immutable catalog snapshot is
// safe for unlimited concurrent use.
package engine

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes free text for matching.
//
// Description:
//
//	Lowercases the input, replaces every non-alphanumeric rune with a
//	space, collapses whitespace runs, and trims. Pure and total — it never
//	fails, and empty/garbage input simply normalizes to "".
//
// Examples:
//
//	Normalize("K.C. Chiefs!")  → "k c chiefs"
//	Normalize("  go  HAWKS ") → "go hawks"
//	Normalize("###")           → ""
//
// Thread Safety: Stateless. Safe for concurrent use.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
