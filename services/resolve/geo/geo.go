// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package geo provides great-circle distance and a small static gazetteer of
// known metro areas, used to break ties between entities that share an alias
// ("kings" in Los Angeles vs Sacramento).
package geo

import (
	_ "embed"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Coord is a latitude/longitude pair in decimal degrees.
type Coord struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// Haversine returns the great-circle distance between two points in km.
//
// Description:
//
//	Standard haversine formula over a spherical Earth of radius 6371 km.
//	Accurate to ~0.5% which is far tighter than the 150/400 km boost
//	thresholds it feeds.
//
// Thread Safety: Stateless. Safe for concurrent use.
func Haversine(a, b Coord) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// =============================================================================
// Gazetteer
// =============================================================================

//go:embed gazetteer.yaml
var defaultGazetteerYAML []byte

// gazetteerDocument is the on-disk shape of the gazetteer file.
type gazetteerDocument struct {
	Cities []struct {
		Name string  `yaml:"name"`
		Lat  float64 `yaml:"lat"`
		Lon  float64 `yaml:"lon"`
	} `yaml:"cities"`
}

// Gazetteer maps known metro/city names to coordinates.
//
// The table is hand-maintained and deliberately small (~60 metros). A city
// absent from it simply yields no location boost; it is never an error.
//
// Thread Safety: Immutable after construction. Safe for concurrent use.
type Gazetteer struct {
	coords map[string]Coord

	// sortedNames holds the keys in sorted order so free-text matching is
	// deterministic regardless of map iteration order.
	sortedNames []string
}

var (
	defaultGazetteerOnce sync.Once
	defaultGazetteer     *Gazetteer
	defaultGazetteerErr  error
)

// DefaultGazetteer returns the bundled gazetteer, loading it on first call.
//
// Thread Safety: Safe for concurrent use via sync.Once.
func DefaultGazetteer() (*Gazetteer, error) {
	defaultGazetteerOnce.Do(func() {
		defaultGazetteer, defaultGazetteerErr = LoadGazetteer(defaultGazetteerYAML)
	})
	return defaultGazetteer, defaultGazetteerErr
}

// LoadGazetteer parses a gazetteer from YAML bytes.
//
// Description:
//
//	City names are normalized (lowercased, punctuation stripped) at load so
//	lookups can use normalized query text directly.
//
// Outputs:
//
//	*Gazetteer - The loaded table. Never nil on success.
//	error - Non-nil on parse failure, empty table, or out-of-range coordinates.
func LoadGazetteer(data []byte) (*Gazetteer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("geo.LoadGazetteer: empty YAML data")
	}

	var doc gazetteerDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("geo.LoadGazetteer: parsing YAML: %w", err)
	}
	if len(doc.Cities) == 0 {
		return nil, fmt.Errorf("geo.LoadGazetteer: gazetteer has no cities")
	}

	g := &Gazetteer{coords: make(map[string]Coord, len(doc.Cities))}
	for i, c := range doc.Cities {
		name := normalizeCityName(c.Name)
		if name == "" {
			return nil, fmt.Errorf("geo.LoadGazetteer: city[%d] has empty name", i)
		}
		if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
			return nil, fmt.Errorf("geo.LoadGazetteer: city[%d] (%s) coordinates out of range", i, c.Name)
		}
		g.coords[name] = Coord{Lat: c.Lat, Lon: c.Lon}
	}

	g.sortedNames = make([]string, 0, len(g.coords))
	for name := range g.coords {
		g.sortedNames = append(g.sortedNames, name)
	}
	sort.Strings(g.sortedNames)

	return g, nil
}

// Lookup returns the coordinates for a known city name.
//
// The name is normalized before lookup, so "St. Louis" and "st louis" hit
// the same entry. A miss returns ok=false; callers treat that as "no boost",
// never as an error.
func (g *Gazetteer) Lookup(city string) (Coord, bool) {
	c, ok := g.coords[normalizeCityName(city)]
	return c, ok
}

// MatchName resolves a free-text location name against the gazetteer.
//
// Description:
//
//	Finds the first city name (in sorted order, for determinism) that is a
//	substring of the normalized input or that contains it. This handles
//	both "downtown sacramento" (input contains key) and "sac" style
//	truncations (key contains input).
//
// Outputs:
//
//	Coord - Coordinates of the matched city.
//	bool - False when nothing in the table matches.
func (g *Gazetteer) MatchName(location string) (Coord, bool) {
	norm := normalizeCityName(location)
	if norm == "" {
		return Coord{}, false
	}
	for _, name := range g.sortedNames {
		if strings.Contains(norm, name) || strings.Contains(name, norm) {
			return g.coords[name], true
		}
	}
	return Coord{}, false
}

// Size returns the number of cities in the table.
func (g *Gazetteer) Size() int {
	return len(g.coords)
}

// normalizeCityName lowercases, strips punctuation, and collapses whitespace.
// Mirrors the query normalizer so gazetteer keys and normalized query text
// compare directly.
func normalizeCityName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
