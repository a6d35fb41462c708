// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import "github.com/lumina-home/lumina/services/resolve/catalog"

// MatchType records which branch of the pipeline produced a candidate.
type MatchType string

const (
	// MatchExact means the query (or a word window of it) equaled an alias
	// key, or the query contained the entity's full official name.
	MatchExact MatchType = "exact"

	// MatchPartial means the query contained the entity's city together with
	// one of its aliases.
	MatchPartial MatchType = "partial"

	// MatchFuzzy means the match tolerated edit distance.
	MatchFuzzy MatchType = "fuzzy"

	// MatchLocationBoosted marks a candidate whose score was lifted by
	// proximity between the user's location and the entity's city.
	MatchLocationBoosted MatchType = "location_boosted"

	// MatchMyTeamBoosted marks a candidate whose score was lifted because the
	// entity appears in the user's saved teams.
	MatchMyTeamBoosted MatchType = "my_team_boosted"
)

// Candidate is one scored entity produced by a pipeline phase.
type Candidate struct {
	Entity       *catalog.Entity
	Score        float64
	MatchedAlias string
	MatchType    MatchType
}

// UserContext carries optional per-request personalization signals.
//
// MyTeams holds free-text saved team names ("Chiefs", "seattle seahawks"),
// not catalog IDs. Precise coordinates take priority over the free-text
// Location ("Seattle, WA"), which is matched loosely against the gazetteer.
type UserContext struct {
	MyTeams  []string `json:"my_teams,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	Location string   `json:"location,omitempty"`
}

// Alternative is a lower-ranked resolution offered alongside the winner.
// Reason is a short human-readable hint, e.g. "Los Angeles Kings (nhl)".
type Alternative struct {
	Entity     *catalog.Entity `json:"entity"`
	Confidence float64         `json:"confidence"`
	Reason     string          `json:"reason,omitempty"`
}

// Result is the outcome of resolving one query.
//
// Entity is nil when the query did not resolve; Confidence is then 0 and
// Alternatives empty. Confidence is rescaled so an exact full-query hit
// reports 1.0 and weaker matches report proportionally less.
type Result struct {
	Entity       *catalog.Entity `json:"entity"`
	Confidence   float64         `json:"confidence"`
	MatchedAlias string          `json:"matched_alias,omitempty"`
	MatchType    MatchType       `json:"match_type,omitempty"`
	Alternatives []Alternative   `json:"alternatives,omitempty"`
}

// Resolved reports whether the query produced a winner.
func (r Result) Resolved() bool {
	return r.Entity != nil
}
