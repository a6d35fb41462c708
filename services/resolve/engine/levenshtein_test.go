// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import "testing"

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{name: "classic kitten sitting", a: "kitten", b: "sitting", want: 3},
		{name: "identical strings", a: "chiefs", b: "chiefs", want: 0},
		{name: "both empty", a: "", b: "", want: 0},
		{name: "left empty", a: "", b: "hawks", want: 5},
		{name: "right empty", a: "royals", b: "", want: 6},
		{name: "single substitution", a: "chefs", b: "chess", want: 2},
		{name: "dropped letter", a: "seahwks", b: "seahawks", want: 1},
		{name: "completely different", a: "abc", b: "xyz", want: 3},
		{name: "multibyte runes", a: "café", b: "cafe", want: 1},
		{name: "multibyte substitution", a: "montréal", b: "montreal", want: 1},
		{name: "multibyte right empty", a: "über", b: "", want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Levenshtein(tt.a, tt.b); got != tt.want {
				t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			// Edit distance is symmetric.
			if got := Levenshtein(tt.b, tt.a); got != tt.want {
				t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.b, tt.a, got, tt.want)
			}
		})
	}
}
