// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var engineTracer = otel.Tracer("lumina.resolve.engine")

var (
	resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lumina_resolve_total",
		Help: "Resolutions by outcome and winning match type.",
	}, []string{"outcome", "match_type"})

	resolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lumina_resolve_duration_seconds",
		Help:    "Wall time of a single resolution.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	phaseCandidates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lumina_resolve_phase_candidates_total",
		Help: "Candidates produced, labeled by the terminal pipeline phase.",
	}, []string{"phase"})
)

// recordResolve folds one resolution into metrics and the active span.
func recordResolve(span trace.Span, mt MatchType, resolved bool, dur time.Duration) {
	outcome := "unresolved"
	if resolved {
		outcome = "resolved"
	}
	resolveTotal.WithLabelValues(outcome, string(mt)).Inc()
	resolveDuration.Observe(dur.Seconds())

	span.SetAttributes(
		attribute.Bool("resolve.resolved", resolved),
		attribute.String("resolve.match_type", string(mt)),
	)
}

// recordPhase counts candidates against the phase that produced them.
func recordPhase(phase string, candidates int) {
	phaseCandidates.WithLabelValues(phase).Add(float64(candidates))
}
