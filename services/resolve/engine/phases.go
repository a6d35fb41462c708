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
)

// maxWindowWords bounds the word-window scan in the exact phase.
const maxWindowWords = 3

// minFuzzyLen is the floor, in runes, below which alias keys and query
// words are too short for edit distance to mean anything.
const minFuzzyLen = 3

// minFuzzyQueryLen gates the whole-query fuzzy branch.
const minFuzzyQueryLen = 4

// candidateSet accumulates candidates deduplicated by entity ID, keeping the
// highest-scoring candidate per entity and preserving first-seen order.
type candidateSet struct {
	byID  map[string]int
	items []Candidate
}

func newCandidateSet() *candidateSet {
	return &candidateSet{byID: make(map[string]int)}
}

// offer records c unless a better candidate for the same entity exists.
func (s *candidateSet) offer(c Candidate) {
	if i, ok := s.byID[c.Entity.ID]; ok {
		if c.Score > s.items[i].Score {
			s.items[i] = c
		}
		return
	}
	s.byID[c.Entity.ID] = len(s.items)
	s.items = append(s.items, c)
}

func (s *candidateSet) list() []Candidate {
	return s.items
}

// phaseExact resolves whole-query and word-window alias hits.
//
// Description:
//
//	A full-query alias hit scores ExactFullQueryBase + len(query) and wins
//	outright; no windows are scanned. Otherwise every contiguous word
//	window of up to maxWindowWords words, longest first, is checked
//	against the index, scoring ExactWindowBase + len(window). A window
//	equal to the whole query is skipped since it was already checked. An
//	entity hit by several windows keeps its best-scoring window.
func phaseExact(idx aliasLookup, query string, cfg ScoringConfig) []Candidate {
	set := newCandidateSet()

	if ents := idx.Lookup(query); len(ents) > 0 {
		for _, ent := range ents {
			set.offer(Candidate{
				Entity:       ent,
				Score:        cfg.ExactFullQueryBase + float64(len(query)),
				MatchedAlias: query,
				MatchType:    MatchExact,
			})
		}
		return set.list()
	}

	words := strings.Fields(query)
	maxSize := maxWindowWords
	if len(words) < maxSize {
		maxSize = len(words)
	}
	for size := maxSize; size >= 1; size-- {
		if size == len(words) {
			continue // the whole query was already checked above
		}
		for start := 0; start+size <= len(words); start++ {
			window := strings.Join(words[start:start+size], " ")
			for _, ent := range idx.Lookup(window) {
				set.offer(Candidate{
					Entity:       ent,
					Score:        cfg.ExactWindowBase + float64(len(window)),
					MatchedAlias: window,
					MatchType:    MatchExact,
				})
			}
		}
	}
	return set.list()
}

// phaseContainment scans every entity for name or city-plus-alias inclusion.
//
// Description:
//
//	A query containing the full official name as a substring scores
//	ContainsNameBase + len(name) and is tagged exact. Failing that, a
//	query containing both the entity's city and one of its aliases scores
//	ContainsCityAliasBase + len(city) + len(alias), tagged partial; the
//	first alias that hits wins for that entity. An alias identical to the
//	city does not count, since the city alone is too weak a signal.
func phaseContainment(idx aliasLookup, query string, cfg ScoringConfig) []Candidate {
	set := newCandidateSet()

	for _, ent := range idx.Entities() {
		name := Normalize(ent.Name)
		if name != "" && strings.Contains(query, name) {
			set.offer(Candidate{
				Entity:       ent,
				Score:        cfg.ContainsNameBase + float64(len(name)),
				MatchedAlias: name,
				MatchType:    MatchExact,
			})
			continue
		}

		city := Normalize(ent.City)
		if city == "" || !strings.Contains(query, city) {
			continue
		}
		for _, alias := range ent.Aliases {
			a := Normalize(alias)
			if a == "" || a == city {
				continue
			}
			if strings.Contains(query, a) {
				set.offer(Candidate{
					Entity:       ent,
					Score:        cfg.ContainsCityAliasBase + float64(len(city)) + float64(len(a)),
					MatchedAlias: a,
					MatchType:    MatchPartial,
				})
				break
			}
		}
	}
	return set.list()
}

// phaseFuzzy tolerates typos via edit distance against the alias keys.
//
// Description:
//
//	Two branches run over every alias key of at least minFuzzyLen runes,
//	and an entity keeps its best score across both:
//
//	  1. Each query word of at least minFuzzyLen runes against each key.
//	     Words of FuzzyShortWordLen runes or fewer tolerate one edit,
//	     longer words two. Score:
//	     FuzzyWordBase - distance*FuzzyWordDistancePenalty + len(key).
//	  2. For multi-word keys, when the query is at least minFuzzyQueryLen
//	     runes, the whole query against the key. Keys of
//	     FuzzyShortAliasLen runes or fewer tolerate two edits, longer
//	     keys three. Score:
//	     FuzzyQueryBase - distance*FuzzyQueryDistancePenalty + len(key).
//
//	Zero distance never matches here; exact hits belong to phase one.
func phaseFuzzy(idx aliasLookup, query string, cfg ScoringConfig) []Candidate {
	set := newCandidateSet()

	var words []string
	for _, w := range strings.Fields(query) {
		if len([]rune(w)) >= minFuzzyLen {
			words = append(words, w)
		}
	}
	queryLen := len([]rune(query))

	idx.RangeAliases(func(key string, ents []*catalog.Entity) bool {
		keyLen := len([]rune(key))
		if keyLen < minFuzzyLen {
			return true
		}

		for _, word := range words {
			maxDist := 2
			if len([]rune(word)) <= cfg.FuzzyShortWordLen {
				maxDist = 1
			}
			d := Levenshtein(word, key)
			if d == 0 || d > maxDist {
				continue
			}
			score := cfg.FuzzyWordBase - float64(d)*cfg.FuzzyWordDistancePenalty + float64(len(key))
			for _, ent := range ents {
				set.offer(Candidate{
					Entity:       ent,
					Score:        score,
					MatchedAlias: key,
					MatchType:    MatchFuzzy,
				})
			}
		}

		if strings.ContainsRune(key, ' ') && queryLen >= minFuzzyQueryLen {
			maxDist := 3
			if keyLen <= cfg.FuzzyShortAliasLen {
				maxDist = 2
			}
			d := Levenshtein(query, key)
			if d > 0 && d <= maxDist {
				score := cfg.FuzzyQueryBase - float64(d)*cfg.FuzzyQueryDistancePenalty + float64(len(key))
				for _, ent := range ents {
					set.offer(Candidate{
						Entity:       ent,
						Score:        score,
						MatchedAlias: key,
						MatchType:    MatchFuzzy,
					})
				}
			}
		}
		return true
	})

	return set.list()
}
