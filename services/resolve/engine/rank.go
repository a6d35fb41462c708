// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"fmt"
	"math"
	"sort"
)

// rank orders candidates and converts raw scores into a Result.
//
// Description:
//
//	Candidates sort by raw score descending, entity ID ascending on ties so
//	two runs over the same snapshot produce the same winner. Confidence is
//	each candidate's score rescaled against max(topScore,
//	ExactFullQueryBase), clamped to [0,1] and rounded to two decimals: an
//	exact full-query hit always reports 1.0, while a winner that only got
//	there via fuzzy matching reports below it. Runners-up become
//	alternatives, capped at MaxAlternatives and filtered below
//	MinAlternativeConfidence.
//
// Edge Cases:
//
//	An empty candidate list, or a top score of zero or less, yields an
//	unresolved Result.
func rank(cands []Candidate, cfg ScoringConfig) Result {
	if len(cands) == 0 {
		return Result{}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Entity.ID < cands[j].Entity.ID
	})

	top := cands[0]
	if top.Score <= 0 {
		return Result{}
	}

	scale := top.Score
	if scale < cfg.ExactFullQueryBase {
		scale = cfg.ExactFullQueryBase
	}

	res := Result{
		Entity:       top.Entity,
		Confidence:   roundConfidence(top.Score / scale),
		MatchedAlias: top.MatchedAlias,
		MatchType:    top.MatchType,
	}

	for _, c := range cands[1:] {
		if len(res.Alternatives) >= cfg.MaxAlternatives {
			break
		}
		conf := roundConfidence(c.Score / scale)
		if conf < cfg.MinAlternativeConfidence {
			continue
		}
		res.Alternatives = append(res.Alternatives, Alternative{
			Entity:     c.Entity,
			Confidence: conf,
			Reason:     fmt.Sprintf("%s (%s)", c.Entity.Name, c.Entity.Category),
		})
	}
	return res
}

// roundConfidence rounds to two decimal places and clamps to [0,1].
func roundConfidence(v float64) float64 {
	r := math.Round(v*100) / 100
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
