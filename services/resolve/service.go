// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package resolve exposes the entity resolution engine as an owned service:
// one atomically-swappable snapshot of (entities, resolver), an overlay
// application path that rebuilds the snapshot copy-on-write, and the HTTP
// surface in handlers.go / routes.go.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lumina-home/lumina/services/resolve/catalog"
	"github.com/lumina-home/lumina/services/resolve/engine"
	"github.com/lumina-home/lumina/services/resolve/overlay"
)

// snapshot is one immutable view of the catalog and its derived resolver.
// Readers grab the pointer once and use it for the whole request; overlay
// merges publish a replacement, never mutate one in place.
type snapshot struct {
	entities       []*catalog.Entity
	byID           map[string]*catalog.Entity
	resolver       *engine.Resolver
	overlayVersion string
	builtAt        time.Time
}

func newSnapshot(entities []*catalog.Entity, overlayVersion string, opts ...engine.ResolverOption) *snapshot {
	byID := make(map[string]*catalog.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	return &snapshot{
		entities:       entities,
		byID:           byID,
		resolver:       engine.NewResolver(entities, opts...),
		overlayVersion: overlayVersion,
		builtAt:        time.Now().UTC(),
	}
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// Logger for service-level events. Defaults to slog.Default().
	Logger *slog.Logger

	// Store persists the last applied overlay across restarts. May be nil;
	// overlays then live only in memory.
	Store overlay.Store

	// Entities overrides the bundled catalog. Nil loads catalog.Default().
	Entities []*catalog.Entity

	// ResolverOptions are applied to every resolver built by the service,
	// including those built for overlay merges.
	ResolverOptions []engine.ResolverOption
}

// Service owns the resolution snapshot and its overlay lifecycle.
//
// Thread Safety: Safe for concurrent use. Resolve and the read accessors
// are lock-free on the snapshot pointer; ApplyOverlay serializes writers
// behind a mutex and publishes with a single atomic swap, so in-flight
// resolutions always observe a complete snapshot.
type Service struct {
	logger *slog.Logger
	store  overlay.Store
	opts   []engine.ResolverOption

	snap atomic.Pointer[snapshot]

	// mergeMu serializes overlay application; it is never held by readers.
	mergeMu sync.Mutex
}

// NewService builds a Service over the bundled (or injected) catalog and,
// when a store is configured, re-applies the overlay that was live before
// the last restart.
//
// Outputs:
//
//	*Service - Ready to serve. Never nil on success.
//	error - Non-nil when the catalog cannot be loaded. A failed overlay
//	        restore is logged and skipped, not fatal: the service comes up
//	        on the bundled catalog.
func NewService(cfg ServiceConfig) (*Service, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	entities := cfg.Entities
	if entities == nil {
		loaded, err := catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("resolve.NewService: loading catalog: %w", err)
		}
		entities = loaded
	}

	s := &Service{
		logger: logger,
		store:  cfg.Store,
		opts:   cfg.ResolverOptions,
	}
	s.snap.Store(newSnapshot(entities, "", s.opts...))
	entityCount.Set(float64(len(entities)))

	s.restoreOverlay(context.Background())

	logger.Info("Resolve service ready",
		"entities", len(entities),
		"overlay_version", s.OverlayVersion())
	return s, nil
}

// restoreOverlay re-applies the persisted overlay, if any.
func (s *Service) restoreOverlay(ctx context.Context) {
	if s.store == nil {
		return
	}
	rec, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("Cannot restore persisted overlay", "error", err)
		return
	}
	if rec == nil {
		return
	}
	report, err := s.applyOverlay(ctx, rec.Data, "restore", false)
	if err != nil {
		s.logger.Warn("Persisted overlay no longer applies", "error", err)
		return
	}
	s.logger.Info("Persisted overlay restored",
		"version", rec.Version,
		"applied_at", rec.AppliedAt,
		"added", report.Added,
		"updated", report.Updated,
		"skipped", len(report.Skipped))
}

// Resolve resolves one query against the current snapshot.
func (s *Service) Resolve(ctx context.Context, query string, user engine.UserContext) engine.Result {
	return s.snap.Load().resolver.Resolve(ctx, query, user)
}

// Entities returns the current snapshot's entity list. Callers must treat
// it as read-only; it is shared with in-flight resolutions.
func (s *Service) Entities() []*catalog.Entity {
	return s.snap.Load().entities
}

// Entity returns one entity by ID from the current snapshot.
func (s *Service) Entity(id string) (*catalog.Entity, bool) {
	e, ok := s.snap.Load().byID[id]
	return e, ok
}

// EntityCount returns the size of the current snapshot.
func (s *Service) EntityCount() int {
	return len(s.snap.Load().entities)
}

// OverlayVersion returns the version marker of the last applied overlay,
// or "" when the bundled catalog is unmodified.
func (s *Service) OverlayVersion() string {
	return s.snap.Load().overlayVersion
}

// Ready reports whether the service can answer queries.
func (s *Service) Ready() bool {
	return s.snap.Load() != nil
}

// ApplyOverlay validates and merges an overlay document, swaps in the new
// snapshot, and persists the document for restart recovery.
//
// Description:
//
//	Per-record validation failures are collected in the report and do not
//	abort the merge. The new entity list and alias index are built fully
//	off to the side; the swap is a single atomic store. Persistence
//	failure is logged, not returned: the overlay is already live.
//
// Outputs:
//
//	catalog.MergeReport - Counts and skipped-record details.
//	error - Non-nil when the document cannot be parsed at all or the merge
//	        would exceed the catalog size cap; the snapshot is untouched.
func (s *Service) ApplyOverlay(ctx context.Context, data []byte, source string) (catalog.MergeReport, error) {
	return s.applyOverlay(ctx, data, source, true)
}

func (s *Service) applyOverlay(ctx context.Context, data []byte, source string, persist bool) (catalog.MergeReport, error) {
	ctx, span := serviceTracer.Start(ctx, "resolve.ApplyOverlay")
	defer span.End()
	span.SetAttributes(attribute.String("overlay.source", source))

	ov, err := catalog.ParseOverlay(data)
	if err != nil {
		overlayApplied.WithLabelValues("rejected").Inc()
		return catalog.MergeReport{}, err
	}

	s.mergeMu.Lock()
	defer s.mergeMu.Unlock()

	current := s.snap.Load()
	merged, report, err := catalog.MergeOverlay(current.entities, ov)
	if err != nil {
		overlayApplied.WithLabelValues("rejected").Inc()
		return report, err
	}

	s.snap.Store(newSnapshot(merged, ov.Version, s.opts...))

	overlayApplied.WithLabelValues("applied").Inc()
	overlaySkippedRecords.Add(float64(len(report.Skipped)))
	entityCount.Set(float64(len(merged)))
	span.SetAttributes(
		attribute.Int("overlay.added", report.Added),
		attribute.Int("overlay.updated", report.Updated),
		attribute.Int("overlay.skipped", len(report.Skipped)),
	)

	for _, skipped := range report.Skipped {
		s.logger.Warn("Overlay record skipped",
			"source", source,
			"index", skipped.Index,
			"id", skipped.ID,
			"reason", skipped.Reason)
	}
	s.logger.Info("Overlay applied",
		"source", source,
		"version", ov.Version,
		"added", report.Added,
		"updated", report.Updated,
		"skipped", len(report.Skipped),
		"entities", len(merged))

	if persist && s.store != nil {
		rec := overlay.Record{Version: ov.Version, Data: data, AppliedAt: time.Now().UTC()}
		if err := s.store.Save(ctx, rec); err != nil {
			s.logger.Warn("Overlay applied but not persisted", "error", err)
		}
	}

	return report, nil
}
