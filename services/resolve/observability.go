// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolve

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var serviceTracer = otel.Tracer("lumina.resolve.service")

var (
	overlayApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lumina_overlay_documents_total",
		Help: "Overlay documents by outcome (applied or rejected).",
	}, []string{"outcome"})

	overlaySkippedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumina_overlay_skipped_records_total",
		Help: "Individual overlay records dropped by validation.",
	})

	entityCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lumina_catalog_entities",
		Help: "Entities in the live catalog snapshot.",
	})
)
