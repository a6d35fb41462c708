// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"errors"
	"testing"
)

func validEntity() *Entity {
	return &Entity{
		ID:       "nfl-kansas-city-chiefs",
		Name:     "Kansas City Chiefs",
		City:     "Kansas City",
		Category: "NFL",
		Aliases:  []string{"chiefs", "kc"},
		Colors: []Color{
			{Name: "Chiefs Red", RGB: [3]uint8{227, 24, 55}},
			{Name: "Chiefs Gold", RGB: [3]uint8{255, 184, 28}},
		},
	}
}

func TestEntityValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Entity)
		wantErr error
	}{
		{name: "valid entity", mutate: func(*Entity) {}},
		{name: "missing id", mutate: func(e *Entity) { e.ID = "" }, wantErr: ErrMissingID},
		{name: "missing name", mutate: func(e *Entity) { e.Name = "" }, wantErr: ErrMissingName},
		{name: "missing category", mutate: func(e *Entity) { e.Category = "" }, wantErr: ErrMissingCategory},
		{name: "no colors", mutate: func(e *Entity) { e.Colors = nil }, wantErr: ErrColorCount},
		{
			name: "too many colors",
			mutate: func(e *Entity) {
				e.Colors = make([]Color, MaxColors+1)
			},
			wantErr: ErrColorCount,
		},
		{
			name:   "city is optional",
			mutate: func(e *Entity) { e.City = "" },
		},
		{
			name:   "aliases are optional",
			mutate: func(e *Entity) { e.Aliases = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEntity()
			tt.mutate(e)
			err := e.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEntityClone(t *testing.T) {
	orig := validEntity()
	clone := orig.Clone()

	if clone == orig {
		t.Fatal("Clone() returned the same pointer")
	}

	// Mutating the clone's slices must not leak into the original.
	clone.Aliases[0] = "mutated"
	clone.Colors[0].RGB = [3]uint8{0, 0, 0}

	if orig.Aliases[0] != "chiefs" {
		t.Errorf("clone mutation leaked into original aliases: %v", orig.Aliases)
	}
	if orig.Colors[0].RGB != [3]uint8{227, 24, 55} {
		t.Errorf("clone mutation leaked into original colors: %v", orig.Colors)
	}
}
