// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumina-home/lumina/services/resolve/catalog"
	"github.com/lumina-home/lumina/services/resolve/geo"
)

// myTeamShortcuts are the generic possessive phrases that bypass the
// pipeline entirely and resolve the user's saved teams instead.
var myTeamShortcuts = []string{
	"my team",
	"my teams",
	"our team",
	"our teams",
	"my favorite team",
	"my favourite team",
}

// Resolver resolves queries against one immutable catalog snapshot.
//
// Thread Safety: Safe for concurrent use. All fields are set at
// construction and never mutated.
type Resolver struct {
	index   aliasLookup
	gaz     *geo.Gazetteer
	scoring ScoringConfig
	logger  *slog.Logger
}

// ResolverOption customizes a Resolver at construction.
type ResolverOption func(*Resolver)

// WithScoring overrides the bundled scoring configuration.
func WithScoring(cfg ScoringConfig) ResolverOption {
	return func(r *Resolver) { r.scoring = cfg }
}

// WithGazetteer overrides the bundled gazetteer. Passing nil disables
// geographic boosting.
func WithGazetteer(g *geo.Gazetteer) ResolverOption {
	return func(r *Resolver) { r.gaz = g }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// withIndex substitutes the alias index, for instrumented tests.
func withIndex(idx aliasLookup) ResolverOption {
	return func(r *Resolver) { r.index = idx }
}

// NewResolver builds a Resolver over the given entity snapshot.
//
// Description:
//
//	The alias index is built eagerly so the first query pays no
//	construction cost. The bundled gazetteer and scoring configuration
//	are used unless overridden; a gazetteer load failure degrades to
//	no geographic boosting rather than failing construction, matching
//	the engine's resolve-or-unresolved (never error) contract.
func NewResolver(entities []*catalog.Entity, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		index:  BuildAliasIndex(entities),
		logger: slog.Default(),
	}

	if cfg, err := GetScoringConfig(); err == nil {
		r.scoring = cfg
	} else {
		r.scoring = DefaultScoringConfig()
		slog.Warn("Falling back to default scoring constants", "error", err)
	}

	if gaz, err := geo.DefaultGazetteer(); err == nil {
		r.gaz = gaz
	} else {
		slog.Warn("Gazetteer unavailable, location boosts disabled", "error", err)
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps one query to its best catalog entity.
//
// Description:
//
//	Runs the full pipeline: normalization, the my-team shortcut, the
//	three candidate phases in order (each skipped once an earlier one
//	produced candidates), personalization and geographic boosts, and
//	ranking. An unresolvable query returns a zero Result with
//	Resolved() == false; Resolve never fails.
//
// Inputs:
//
//	ctx - Carries the trace span; the engine itself never blocks.
//	rawQuery - The user's text, normalized internally.
//	user - Optional personalization signals; the zero value disables them.
func (r *Resolver) Resolve(ctx context.Context, rawQuery string, user UserContext) Result {
	start := time.Now()
	ctx, span := engineTracer.Start(ctx, "engine.Resolve",
		trace.WithAttributes(attribute.Int("query.raw_len", len(rawQuery))))
	defer span.End()

	query := Normalize(rawQuery)
	if query == "" {
		recordResolve(span, MatchType(""), false, time.Since(start))
		return Result{}
	}

	if matchesShortcut(query) {
		res := r.resolveShortcut(ctx, user)
		recordResolve(span, res.MatchType, res.Resolved(), time.Since(start))
		return res
	}

	res := r.resolvePipeline(ctx, query, user)
	if !res.Resolved() {
		r.logger.Debug("Query did not resolve", "query", query)
	}
	recordResolve(span, res.MatchType, res.Resolved(), time.Since(start))
	return res
}

// matchesShortcut reports whether the normalized query invokes the
// my-team shortcut, by equality or prefix.
func matchesShortcut(query string) bool {
	for _, phrase := range myTeamShortcuts {
		if query == phrase || strings.HasPrefix(query, phrase+" ") {
			return true
		}
	}
	return false
}

// resolveShortcut resolves each saved team name through the pipeline and
// returns the first success pinned to full confidence. The inner calls
// keep the caller's location signals so an ambiguous saved name ("kings")
// still disambiguates geographically, but drop MyTeams: the shortcut
// cannot recurse and the saved names earn no my-team boost of their own.
func (r *Resolver) resolveShortcut(ctx context.Context, user UserContext) Result {
	inner := UserContext{Lat: user.Lat, Lon: user.Lon, Location: user.Location}
	for _, team := range user.MyTeams {
		query := Normalize(team)
		if query == "" {
			continue
		}
		res := r.resolvePipeline(ctx, query, inner)
		if res.Resolved() {
			res.Confidence = 1.0
			res.MatchType = MatchMyTeamBoosted
			return res
		}
	}
	return Result{}
}

// resolvePipeline runs the candidate phases, boosts, and ranking over an
// already-normalized query.
func (r *Resolver) resolvePipeline(ctx context.Context, query string, user UserContext) Result {
	_, span := engineTracer.Start(ctx, "engine.pipeline")
	defer span.End()

	cands := phaseExact(r.index, query, r.scoring)
	phase := "exact"
	if len(cands) == 0 {
		cands = phaseContainment(r.index, query, r.scoring)
		phase = "containment"
	}
	if len(cands) == 0 {
		cands = phaseFuzzy(r.index, query, r.scoring)
		phase = "fuzzy"
	}
	recordPhase(phase, len(cands))
	span.SetAttributes(
		attribute.String("resolve.phase", phase),
		attribute.Int("resolve.candidates", len(cands)),
	)

	applyMyTeamBoost(cands, user, r.scoring)
	applyGeoBoost(cands, user, r.gaz, r.scoring)

	return rank(cands, r.scoring)
}

// EntityCount returns the size of the snapshot this Resolver serves.
func (r *Resolver) EntityCount() int {
	return len(r.index.Entities())
}
