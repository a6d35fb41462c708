// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"testing"
)

func TestResolveExactness(t *testing.T) {
	// Every alias in the catalog must resolve at full confidence with the
	// alias itself echoed back, absent any personalization.
	ents := testEntities()
	r := NewResolver(ents)

	for _, ent := range ents {
		for _, alias := range ent.Aliases {
			t.Run(alias, func(t *testing.T) {
				res := r.Resolve(context.Background(), alias, UserContext{})
				if !res.Resolved() {
					t.Fatalf("Resolve(%q) did not resolve", alias)
				}
				if res.Confidence != 1.0 {
					t.Errorf("confidence = %v, want 1.0", res.Confidence)
				}
				if want := Normalize(alias); res.MatchedAlias != want {
					t.Errorf("matched alias = %q, want %q", res.MatchedAlias, want)
				}
			})
		}
	}
}

func TestResolveEmptyAndGarbage(t *testing.T) {
	r := NewResolver(testEntities())

	for _, query := range []string{"", "   ", "###", "!!! ???"} {
		if res := r.Resolve(context.Background(), query, UserContext{}); res.Resolved() {
			t.Errorf("Resolve(%q) resolved to %s, want unresolved", query, res.Entity.ID)
		}
	}
}

func TestResolveFuzzyTypo(t *testing.T) {
	r := NewResolver(testEntities())

	res := r.Resolve(context.Background(), "seahwks", UserContext{})
	if !res.Resolved() || res.Entity.ID != "nfl-seahawks" {
		t.Fatalf("Resolve(\"seahwks\") = %+v, want nfl-seahawks", res)
	}
	if res.MatchType != MatchFuzzy {
		t.Errorf("match type = %s, want fuzzy", res.MatchType)
	}
	if res.Confidence <= 0 || res.Confidence >= 1.0 {
		t.Errorf("confidence = %v, want within (0, 1)", res.Confidence)
	}
}

func TestResolveMyTeamShortcut(t *testing.T) {
	r := NewResolver(testEntities())
	ctx := context.Background()

	t.Run("resolves first saved team at full confidence", func(t *testing.T) {
		res := r.Resolve(ctx, "my team", UserContext{MyTeams: []string{"Chiefs"}})
		if !res.Resolved() || res.Entity.ID != "nfl-chiefs" {
			t.Fatalf("got %+v, want nfl-chiefs", res)
		}
		if res.Confidence != 1.0 || res.MatchType != MatchMyTeamBoosted {
			t.Errorf("confidence=%v type=%s, want 1.0 my_team_boosted", res.Confidence, res.MatchType)
		}
	})

	t.Run("prefix form triggers too", func(t *testing.T) {
		res := r.Resolve(ctx, "my team please", UserContext{MyTeams: []string{"royals"}})
		if !res.Resolved() || res.Entity.ID != "mlb-royals" {
			t.Fatalf("got %+v, want mlb-royals", res)
		}
	})

	t.Run("skips unresolvable saved names", func(t *testing.T) {
		res := r.Resolve(ctx, "our team", UserContext{MyTeams: []string{"zzzzz", "hawks"}})
		if !res.Resolved() || res.Entity.ID != "nfl-seahawks" {
			t.Fatalf("got %+v, want nfl-seahawks", res)
		}
	})

	t.Run("no saved teams is unresolved", func(t *testing.T) {
		if res := r.Resolve(ctx, "my team", UserContext{}); res.Resolved() {
			t.Fatalf("got %+v, want unresolved", res)
		}
	})

	t.Run("saved shortcut phrase cannot recurse", func(t *testing.T) {
		if res := r.Resolve(ctx, "my team", UserContext{MyTeams: []string{"my team"}}); res.Resolved() {
			t.Fatalf("got %+v, want unresolved", res)
		}
	})

	t.Run("saved names keep the caller's location signals", func(t *testing.T) {
		// Both kings share the alias; the saved name alone is a tie that
		// ID order would hand to Sacramento. The caller's coordinates
		// must still disambiguate on the shortcut path.
		lat, lon := 34.05, -118.24
		res := r.Resolve(ctx, "my team", UserContext{MyTeams: []string{"kings"}, Lat: &lat, Lon: &lon})
		if !res.Resolved() || res.Entity.ID != "nhl-kings" {
			t.Fatalf("got %+v, want nhl-kings", res)
		}
		if res.Confidence != 1.0 || res.MatchType != MatchMyTeamBoosted {
			t.Errorf("confidence=%v type=%s, want 1.0 my_team_boosted", res.Confidence, res.MatchType)
		}
	})

	t.Run("shortcut never scans aliases", func(t *testing.T) {
		idx := &countingIndex{inner: BuildAliasIndex(testEntities())}
		cr := NewResolver(testEntities(), withIndex(idx))
		cr.Resolve(ctx, "my team", UserContext{MyTeams: []string{"Chiefs"}})
		// The saved name resolves through phase one only; "my team" itself
		// must never be looked up.
		if idx.rangeCalls != 0 || idx.entityCalls != 0 {
			t.Errorf("shortcut scanned the catalog: range=%d entities=%d", idx.rangeCalls, idx.entityCalls)
		}
	})
}

func TestResolveGeoDisambiguation(t *testing.T) {
	r := NewResolver(testEntities())
	ctx := context.Background()
	lat, lon := 34.05, -118.24

	t.Run("precise coordinates pick the nearer kings", func(t *testing.T) {
		res := r.Resolve(ctx, "kings", UserContext{Lat: &lat, Lon: &lon})
		if !res.Resolved() || res.Entity.ID != "nhl-kings" {
			t.Fatalf("got %+v, want nhl-kings", res)
		}
		if res.MatchType != MatchLocationBoosted {
			t.Errorf("match type = %s, want location_boosted", res.MatchType)
		}
		if len(res.Alternatives) == 0 || res.Alternatives[0].Entity.ID != "nba-kings" {
			t.Errorf("alternatives = %+v, want nba-kings first", res.Alternatives)
		}
	})

	t.Run("free-text location delegates to the gazetteer", func(t *testing.T) {
		res := r.Resolve(ctx, "kings", UserContext{Location: "Los Angeles, CA"})
		if !res.Resolved() || res.Entity.ID != "nhl-kings" {
			t.Fatalf("got %+v, want nhl-kings", res)
		}
	})

	t.Run("unknown location applies no boost", func(t *testing.T) {
		res := r.Resolve(ctx, "kings", UserContext{Location: "Middle of Nowhere"})
		if !res.Resolved() {
			t.Fatal("want resolved")
		}
		if res.MatchType == MatchLocationBoosted {
			t.Errorf("unknown location still boosted: %+v", res)
		}
	})
}

func TestResolveMyTeamBoost(t *testing.T) {
	r := NewResolver(testEntities())

	// "Sacramento" overlaps the Sacramento side's official name but not the
	// shared "kings" alias, so only one entity earns the boost.
	res := r.Resolve(context.Background(), "kings", UserContext{MyTeams: []string{"Sacramento"}})
	if !res.Resolved() || res.Entity.ID != "nba-kings" {
		t.Fatalf("got %+v, want nba-kings", res)
	}
	if res.MatchType != MatchMyTeamBoosted {
		t.Errorf("match type = %s, want my_team_boosted", res.MatchType)
	}
}

func TestGeoBoostKeepsMyTeamTag(t *testing.T) {
	// A candidate that earned both boosts keeps the my_team_boosted tag;
	// proximity upgrades only the plain exact/partial/fuzzy tags.
	r := NewResolver(testEntities())
	lat, lon := 34.05, -118.24 // Los Angeles

	res := r.Resolve(context.Background(), "kings", UserContext{
		MyTeams: []string{"la kings"},
		Lat:     &lat,
		Lon:     &lon,
	})
	if !res.Resolved() || res.Entity.ID != "nhl-kings" {
		t.Fatalf("got %+v, want nhl-kings", res)
	}
	if res.MatchType != MatchMyTeamBoosted {
		t.Errorf("match type = %s, want my_team_boosted", res.MatchType)
	}
}

func TestResolvePhaseShortCircuit(t *testing.T) {
	idx := &countingIndex{inner: BuildAliasIndex(testEntities())}
	r := NewResolver(testEntities(), withIndex(idx))

	res := r.Resolve(context.Background(), "chiefs", UserContext{})
	if !res.Resolved() || res.MatchType != MatchExact {
		t.Fatalf("got %+v, want exact nfl-chiefs", res)
	}
	if idx.entityCalls != 0 {
		t.Errorf("containment phase ran after an exact hit: %d entity scans", idx.entityCalls)
	}
	if idx.rangeCalls != 0 {
		t.Errorf("fuzzy phase ran after an exact hit: %d alias scans", idx.rangeCalls)
	}
}

func TestResolveConfidenceBounds(t *testing.T) {
	r := NewResolver(testEntities())
	cfg := DefaultScoringConfig()

	queries := []string{
		"chiefs", "kings", "kc royals game", "seattle hawks fan", "seahwks",
		"kc royal", "christmas lights", "go chiefs go", "nothing matches this",
	}
	for _, q := range queries {
		res := r.Resolve(context.Background(), q, UserContext{})
		if res.Confidence < 0 || res.Confidence > 1 {
			t.Errorf("Resolve(%q) confidence = %v, out of [0,1]", q, res.Confidence)
		}
		if len(res.Alternatives) > cfg.MaxAlternatives {
			t.Errorf("Resolve(%q) returned %d alternatives", q, len(res.Alternatives))
		}
		for i, alt := range res.Alternatives {
			if alt.Confidence < cfg.MinAlternativeConfidence {
				t.Errorf("Resolve(%q) alternative %d below threshold: %v", q, i, alt.Confidence)
			}
			if i > 0 && alt.Confidence > res.Alternatives[i-1].Confidence {
				t.Errorf("Resolve(%q) alternatives out of order", q)
			}
		}
	}
}

func TestResolverEntityCount(t *testing.T) {
	r := NewResolver(testEntities())
	if got := r.EntityCount(); got != len(testEntities()) {
		t.Errorf("EntityCount() = %d, want %d", got, len(testEntities()))
	}
}
