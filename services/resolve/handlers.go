// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolve

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/lumina-home/lumina/services/resolve/catalog"
	"github.com/lumina-home/lumina/services/resolve/engine"
)

// overlayRateLimit bounds how often remote callers can push overlay
// documents: a merge rebuilds the whole alias index, so this endpoint is
// orders of magnitude heavier than a resolution.
var overlayRateLimit = rate.Every(10 * time.Second)

// overlayRateBurst allows a short catch-up burst after idle periods.
const overlayRateBurst = 3

// colorRoles maps color list positions to the role names downstream
// lighting consumers key on.
var colorRoles = [catalog.MaxColors]string{"primary", "secondary", "tertiary", "accent"}

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ResolveRequest is the body of POST /v1/resolve.
type ResolveRequest struct {
	Query    string   `json:"query" binding:"required"`
	MyTeams  []string `json:"my_teams,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	Location string   `json:"location,omitempty"`
}

// ColorInfo is one palette entry in a response.
type ColorInfo struct {
	Name string   `json:"name"`
	RGB  [3]uint8 `json:"rgb"`
}

// TeamInfo is the serialized form of a resolved entity.
type TeamInfo struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	League string               `json:"league"`
	Colors map[string]ColorInfo `json:"colors"`
	Effect string               `json:"effect,omitempty"`
}

// AlternativeInfo is one disambiguation candidate in a response.
type AlternativeInfo struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	League     string  `json:"league"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// ResolveResponse is the body of a successful POST /v1/resolve.
type ResolveResponse struct {
	Resolved     bool              `json:"resolved"`
	Team         *TeamInfo         `json:"team,omitempty"`
	Confidence   float64           `json:"confidence"`
	MatchedAlias string            `json:"matched_alias,omitempty"`
	MatchType    string            `json:"match_type,omitempty"`
	Alternatives []AlternativeInfo `json:"alternatives,omitempty"`
}

// OverlayResponse is the body of a successful POST /v1/overlay.
type OverlayResponse struct {
	Applied bool                    `json:"applied"`
	Version string                  `json:"version,omitempty"`
	Added   int                     `json:"added"`
	Updated int                     `json:"updated"`
	Skipped []catalog.SkippedRecord `json:"skipped,omitempty"`
	Total   int                     `json:"total"`
}

// Handlers carries the HTTP handlers for the resolve service.
type Handlers struct {
	service        *Service
	logger         *slog.Logger
	overlayLimiter *rate.Limiter
}

// NewHandlers creates the handler set for a service.
func NewHandlers(service *Service, logger *slog.Logger) *Handlers {
	if service == nil {
		panic("resolve.NewHandlers: service must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:        service,
		logger:         logger,
		overlayLimiter: rate.NewLimiter(overlayRateLimit, overlayRateBurst),
	}
}

// HandleResolve handles POST /v1/resolve.
//
// Description:
//
//	Resolves free text to a catalog entity. An unresolvable query is a
//	normal 200 with resolved=false, not an error; only a malformed
//	request body produces a 4xx.
//
// Response:
//
//	200 OK: ResolveResponse
//	400 Bad Request: Missing or empty query
func (h *Handlers) HandleResolve(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleResolve")

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "query is required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	user := engine.UserContext{
		MyTeams:  req.MyTeams,
		Lat:      req.Lat,
		Lon:      req.Lon,
		Location: req.Location,
	}
	result := h.service.Resolve(c.Request.Context(), req.Query, user)

	logger.Info("resolve",
		slog.String("query", req.Query),
		slog.Bool("resolved", result.Resolved()),
		slog.String("match_type", string(result.MatchType)),
		slog.Float64("confidence", result.Confidence),
	)

	c.JSON(http.StatusOK, toResolveResponse(result))
}

// HandleListEntities handles GET /v1/entities.
//
// Query Parameters:
//
//	category: Filter to one category, e.g. "NFL" (optional)
func (h *Handlers) HandleListEntities(c *gin.Context) {
	category := c.Query("category")

	entities := h.service.Entities()
	out := make([]TeamInfo, 0, len(entities))
	for _, ent := range entities {
		if category != "" && ent.Category != category {
			continue
		}
		out = append(out, toTeamInfo(ent))
	}

	c.JSON(http.StatusOK, gin.H{
		"entities": out,
		"count":    len(out),
	})
}

// HandleGetEntity handles GET /v1/entities/:id.
//
// Response:
//
//	200 OK: TeamInfo
//	404 Not Found: Unknown entity ID
func (h *Handlers) HandleGetEntity(c *gin.Context) {
	id := c.Param("id")
	ent, ok := h.service.Entity(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "entity not found: " + id,
			Code:  "NOT_FOUND",
		})
		return
	}
	c.JSON(http.StatusOK, toTeamInfo(ent))
}

// HandleApplyOverlay handles POST /v1/overlay.
//
// Description:
//
//	Accepts an overlay document (YAML or JSON) and merges it into the
//	live catalog. Individually invalid records are reported in the
//	response, not fatal. The endpoint is rate limited; a rejected push
//	can simply be retried after the Retry-After interval.
//
// Response:
//
//	200 OK: OverlayResponse
//	400 Bad Request: Document cannot be parsed or merge exceeds the cap
//	429 Too Many Requests: Rate limit hit
func (h *Handlers) HandleApplyOverlay(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleApplyOverlay")

	if !h.overlayLimiter.Allow() {
		c.Header("Retry-After", "10")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "overlay rate limit exceeded",
			Code:  "RATE_LIMITED",
		})
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, catalog.MaxYAMLFileSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "cannot read request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	report, err := h.service.ApplyOverlay(c.Request.Context(), data, "http:"+requestID)
	if err != nil {
		logger.Warn("overlay rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_OVERLAY",
		})
		return
	}

	c.JSON(http.StatusOK, OverlayResponse{
		Applied: true,
		Version: h.service.OverlayVersion(),
		Added:   report.Added,
		Updated: report.Updated,
		Skipped: report.Skipped,
		Total:   report.Total,
	})
}

// HandleHealth handles GET /v1/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"entities":        h.service.EntityCount(),
		"overlay_version": h.service.OverlayVersion(),
	})
}

// HandleReady handles GET /v1/ready.
func (h *Handlers) HandleReady(c *gin.Context) {
	if !h.service.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// toResolveResponse converts an engine result to the wire shape.
func toResolveResponse(result engine.Result) ResolveResponse {
	resp := ResolveResponse{
		Resolved:     result.Resolved(),
		Confidence:   result.Confidence,
		MatchedAlias: result.MatchedAlias,
		MatchType:    string(result.MatchType),
	}
	if result.Entity != nil {
		team := toTeamInfo(result.Entity)
		resp.Team = &team
	}
	for _, alt := range result.Alternatives {
		resp.Alternatives = append(resp.Alternatives, AlternativeInfo{
			ID:         alt.Entity.ID,
			Name:       alt.Entity.Name,
			League:     alt.Entity.Category,
			Confidence: alt.Confidence,
			Reason:     alt.Reason,
		})
	}
	return resp
}

// toTeamInfo converts a catalog entity to the wire shape, keying colors by
// their lighting role in palette order.
func toTeamInfo(ent *catalog.Entity) TeamInfo {
	colors := make(map[string]ColorInfo, len(ent.Colors))
	for i, color := range ent.Colors {
		if i >= len(colorRoles) {
			break
		}
		colors[colorRoles[i]] = ColorInfo{Name: color.Name, RGB: color.RGB}
	}
	return TeamInfo{
		ID:     ent.ID,
		Name:   ent.Name,
		League: ent.Category,
		Colors: colors,
		Effect: ent.Effect,
	}
}

// getOrCreateRequestID returns the inbound X-Request-ID or generates one,
// echoing it on the response either way.
func getOrCreateRequestID(c *gin.Context) string {
	id := c.GetHeader("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	c.Header("X-Request-ID", id)
	return id
}
