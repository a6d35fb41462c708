// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Default scoring constants. These are hand-tuned heuristics carried over
// from production traffic, not derived values — change them via scoring.yaml
// overrides, not by editing the code.
const (
	// DefaultExactFullQueryBase is the base score for a whole-query alias hit.
	DefaultExactFullQueryBase = 100.0

	// DefaultExactWindowBase is the base score for a word-window alias hit.
	DefaultExactWindowBase = 80.0

	// DefaultContainsNameBase is the base score when the query contains an
	// entity's full official name.
	DefaultContainsNameBase = 90.0

	// DefaultContainsCityAliasBase is the base score when the query contains
	// both an entity's city and one of its aliases.
	DefaultContainsCityAliasBase = 75.0

	// DefaultFuzzyWordBase is the base score for a fuzzy single-word match.
	DefaultFuzzyWordBase = 60.0

	// DefaultFuzzyWordDistancePenalty is subtracted per edit of distance in
	// the fuzzy word branch.
	DefaultFuzzyWordDistancePenalty = 15.0

	// DefaultFuzzyQueryBase is the base score for a fuzzy whole-query match
	// against a multi-word alias.
	DefaultFuzzyQueryBase = 55.0

	// DefaultFuzzyQueryDistancePenalty is subtracted per edit of distance in
	// the fuzzy whole-query branch.
	DefaultFuzzyQueryDistancePenalty = 10.0

	// DefaultMyTeamBoost is added when a candidate overlaps a saved team.
	DefaultMyTeamBoost = 20.0

	// DefaultGeoNearKm / DefaultGeoNearBoost: strong boost inside the metro.
	DefaultGeoNearKm    = 150.0
	DefaultGeoNearBoost = 15.0

	// DefaultGeoRegionKm / DefaultGeoRegionBoost: weak boost in the region.
	DefaultGeoRegionKm    = 400.0
	DefaultGeoRegionBoost = 5.0

	// DefaultFuzzyShortWordLen is the word length at or below which only one
	// edit is tolerated; longer words tolerate two.
	DefaultFuzzyShortWordLen = 5

	// DefaultFuzzyShortAliasLen is the alias length at or below which the
	// whole-query branch tolerates two edits; longer aliases tolerate three.
	DefaultFuzzyShortAliasLen = 8

	// DefaultMinAlternativeConfidence filters the alternatives list.
	DefaultMinAlternativeConfidence = 0.3

	// DefaultMaxAlternatives caps the alternatives list.
	DefaultMaxAlternatives = 3
)

//go:embed scoring.yaml
var defaultScoringYAML []byte

// ScoringConfig holds every tunable constant of the resolution pipeline.
//
// Description:
//
//	All values default to the hand-tuned constants above; a YAML override
//	only needs to name the fields it changes. Zero values in the YAML are
//	treated as "not set" and fall back to the defaults.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type ScoringConfig struct {
	ExactFullQueryBase    float64 `yaml:"exact_full_query_base"`
	ExactWindowBase       float64 `yaml:"exact_window_base"`
	ContainsNameBase      float64 `yaml:"contains_name_base"`
	ContainsCityAliasBase float64 `yaml:"contains_city_alias_base"`

	FuzzyWordBase             float64 `yaml:"fuzzy_word_base"`
	FuzzyWordDistancePenalty  float64 `yaml:"fuzzy_word_distance_penalty"`
	FuzzyQueryBase            float64 `yaml:"fuzzy_query_base"`
	FuzzyQueryDistancePenalty float64 `yaml:"fuzzy_query_distance_penalty"`

	MyTeamBoost float64 `yaml:"my_team_boost"`

	GeoNearKm      float64 `yaml:"geo_near_km"`
	GeoNearBoost   float64 `yaml:"geo_near_boost"`
	GeoRegionKm    float64 `yaml:"geo_region_km"`
	GeoRegionBoost float64 `yaml:"geo_region_boost"`

	FuzzyShortWordLen  int `yaml:"fuzzy_short_word_len"`
	FuzzyShortAliasLen int `yaml:"fuzzy_short_alias_len"`

	MinAlternativeConfidence float64 `yaml:"min_alternative_confidence"`
	MaxAlternatives          int     `yaml:"max_alternatives"`
}

// DefaultScoringConfig returns the hand-tuned production constants.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		ExactFullQueryBase:    DefaultExactFullQueryBase,
		ExactWindowBase:       DefaultExactWindowBase,
		ContainsNameBase:      DefaultContainsNameBase,
		ContainsCityAliasBase: DefaultContainsCityAliasBase,

		FuzzyWordBase:             DefaultFuzzyWordBase,
		FuzzyWordDistancePenalty:  DefaultFuzzyWordDistancePenalty,
		FuzzyQueryBase:            DefaultFuzzyQueryBase,
		FuzzyQueryDistancePenalty: DefaultFuzzyQueryDistancePenalty,

		MyTeamBoost: DefaultMyTeamBoost,

		GeoNearKm:      DefaultGeoNearKm,
		GeoNearBoost:   DefaultGeoNearBoost,
		GeoRegionKm:    DefaultGeoRegionKm,
		GeoRegionBoost: DefaultGeoRegionBoost,

		FuzzyShortWordLen:  DefaultFuzzyShortWordLen,
		FuzzyShortAliasLen: DefaultFuzzyShortAliasLen,

		MinAlternativeConfidence: DefaultMinAlternativeConfidence,
		MaxAlternatives:          DefaultMaxAlternatives,
	}
}

var (
	scoringConfigOnce sync.Once
	cachedScoring     ScoringConfig
	scoringLoadErr    error
)

// GetScoringConfig returns the bundled scoring configuration.
//
// Loads scoring.yaml over the defaults on first call; subsequent calls
// return the cached copy.
//
// Thread Safety: Safe for concurrent use via sync.Once.
func GetScoringConfig() (ScoringConfig, error) {
	scoringConfigOnce.Do(func() {
		cachedScoring, scoringLoadErr = LoadScoringConfig(defaultScoringYAML)
	})
	return cachedScoring, scoringLoadErr
}

// LoadScoringConfig parses a scoring override from YAML bytes over defaults.
//
// Description:
//
//	Starts from DefaultScoringConfig and applies any fields present in the
//	YAML. Validates the result: bases and boosts must be positive, the
//	geo near threshold must be below the region threshold, and the
//	alternatives filter must stay within [0,1].
//
// Outputs:
//
//	ScoringConfig - The effective configuration.
//	error - Non-nil on parse or validation failure.
func LoadScoringConfig(data []byte) (ScoringConfig, error) {
	cfg := DefaultScoringConfig()

	if len(data) > 0 {
		var override ScoringConfig
		if err := yaml.Unmarshal(data, &override); err != nil {
			return cfg, fmt.Errorf("engine.LoadScoringConfig: parsing YAML: %w", err)
		}
		applyOverride(&cfg, override)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("engine.LoadScoringConfig: validation: %w", err)
	}
	return cfg, nil
}

// applyOverride copies non-zero override fields onto cfg.
func applyOverride(cfg *ScoringConfig, o ScoringConfig) {
	setF := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	setI := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}

	setF(&cfg.ExactFullQueryBase, o.ExactFullQueryBase)
	setF(&cfg.ExactWindowBase, o.ExactWindowBase)
	setF(&cfg.ContainsNameBase, o.ContainsNameBase)
	setF(&cfg.ContainsCityAliasBase, o.ContainsCityAliasBase)
	setF(&cfg.FuzzyWordBase, o.FuzzyWordBase)
	setF(&cfg.FuzzyWordDistancePenalty, o.FuzzyWordDistancePenalty)
	setF(&cfg.FuzzyQueryBase, o.FuzzyQueryBase)
	setF(&cfg.FuzzyQueryDistancePenalty, o.FuzzyQueryDistancePenalty)
	setF(&cfg.MyTeamBoost, o.MyTeamBoost)
	setF(&cfg.GeoNearKm, o.GeoNearKm)
	setF(&cfg.GeoNearBoost, o.GeoNearBoost)
	setF(&cfg.GeoRegionKm, o.GeoRegionKm)
	setF(&cfg.GeoRegionBoost, o.GeoRegionBoost)
	setI(&cfg.FuzzyShortWordLen, o.FuzzyShortWordLen)
	setI(&cfg.FuzzyShortAliasLen, o.FuzzyShortAliasLen)
	setF(&cfg.MinAlternativeConfidence, o.MinAlternativeConfidence)
	setI(&cfg.MaxAlternatives, o.MaxAlternatives)
}

// validate checks internal consistency of the configuration.
func (c ScoringConfig) validate() error {
	if c.ExactFullQueryBase <= 0 || c.ExactWindowBase <= 0 ||
		c.ContainsNameBase <= 0 || c.ContainsCityAliasBase <= 0 ||
		c.FuzzyWordBase <= 0 || c.FuzzyQueryBase <= 0 {
		return fmt.Errorf("phase base scores must be positive")
	}
	if c.GeoNearKm >= c.GeoRegionKm {
		return fmt.Errorf("geo_near_km (%v) must be below geo_region_km (%v)", c.GeoNearKm, c.GeoRegionKm)
	}
	if c.MinAlternativeConfidence < 0 || c.MinAlternativeConfidence > 1 {
		return fmt.Errorf("min_alternative_confidence must be within [0,1], got %v", c.MinAlternativeConfidence)
	}
	if c.MaxAlternatives < 0 {
		return fmt.Errorf("max_alternatives must not be negative, got %d", c.MaxAlternatives)
	}
	if c.FuzzyShortWordLen <= 0 || c.FuzzyShortAliasLen <= 0 {
		return fmt.Errorf("fuzzy length cutoffs must be positive")
	}
	return nil
}
