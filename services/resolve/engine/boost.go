// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"strings"

	"github.com/lumina-home/lumina/services/resolve/catalog"
	"github.com/lumina-home/lumina/services/resolve/geo"
)

// applyMyTeamBoost lifts candidates that overlap the user's saved teams.
//
// A candidate matches a saved team string when the entity's official name,
// its city joined with the last word of the name, or any alias overlaps
// that string in either direction as a substring (aliases also match by
// exact equality). All comparison is over normalized text. The
// my_team_boosted tag sticks; nothing downstream overrides it.
func applyMyTeamBoost(cands []Candidate, user UserContext, cfg ScoringConfig) {
	if len(user.MyTeams) == 0 {
		return
	}

	teams := make([]string, 0, len(user.MyTeams))
	for _, t := range user.MyTeams {
		if n := Normalize(t); n != "" {
			teams = append(teams, n)
		}
	}
	if len(teams) == 0 {
		return
	}

	for i := range cands {
		if entityMatchesSavedTeam(cands[i].Entity, teams) {
			cands[i].Score += cfg.MyTeamBoost
			cands[i].MatchType = MatchMyTeamBoosted
		}
	}
}

// entityMatchesSavedTeam reports whether ent overlaps any saved team string.
func entityMatchesSavedTeam(ent *catalog.Entity, teams []string) bool {
	name := Normalize(ent.Name)
	city := Normalize(ent.City)

	cityNickname := ""
	if words := strings.Fields(name); city != "" && len(words) > 0 {
		cityNickname = city + " " + words[len(words)-1]
	}

	for _, team := range teams {
		if overlaps(name, team) {
			return true
		}
		if cityNickname != "" && overlaps(cityNickname, team) {
			return true
		}
		for _, alias := range ent.Aliases {
			a := Normalize(alias)
			if a == "" {
				continue
			}
			if a == team || overlaps(a, team) {
				return true
			}
		}
	}
	return false
}

// overlaps reports either-direction substring containment of non-empty strings.
func overlaps(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// applyGeoBoost lifts candidates whose home city is near the user.
//
// Description:
//
//	Precise coordinates win over the free-text location; the location
//	name, when used, is matched loosely against the gazetteer and its
//	coordinates stand in for the user's. An unknown location, or an
//	entity city the gazetteer has no coordinates for, leaves scores
//	untouched. Distances under GeoNearKm earn GeoNearBoost, under
//	GeoRegionKm GeoRegionBoost. The saved-team signal outranks proximity,
//	so a my_team_boosted candidate keeps its tag even when boosted here.
func applyGeoBoost(cands []Candidate, user UserContext, gaz *geo.Gazetteer, cfg ScoringConfig) {
	if gaz == nil {
		return
	}

	var userCoord geo.Coord
	switch {
	case user.Lat != nil && user.Lon != nil:
		userCoord = geo.Coord{Lat: *user.Lat, Lon: *user.Lon}
	case user.Location != "":
		c, ok := gaz.MatchName(user.Location)
		if !ok {
			return
		}
		userCoord = c
	default:
		return
	}

	for i := range cands {
		city := cands[i].Entity.City
		if city == "" {
			continue
		}
		cityCoord, ok := gaz.Lookup(city)
		if !ok {
			continue
		}

		dist := geo.Haversine(userCoord, cityCoord)
		var boost float64
		switch {
		case dist < cfg.GeoNearKm:
			boost = cfg.GeoNearBoost
		case dist < cfg.GeoRegionKm:
			boost = cfg.GeoRegionBoost
		default:
			continue
		}

		cands[i].Score += boost
		if cands[i].MatchType != MatchMyTeamBoosted {
			cands[i].MatchType = MatchLocationBoosted
		}
	}
}
