// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolve

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all resolve routes with the router group.
//
// Description:
//
//	The group should already carry any shared middleware (tracing,
//	recovery); these handlers add none of their own except the overlay
//	rate limit.
//
// Endpoints:
//
//	POST /v1/resolve/resolve - Resolve free text to an entity
//	GET  /v1/resolve/entities - List the live catalog
//	GET  /v1/resolve/entities/:id - Fetch one entity
//	POST /v1/resolve/overlay - Apply a catalog overlay (rate limited)
//	GET  /v1/resolve/health - Health check
//	GET  /v1/resolve/ready - Readiness check
//
// Example:
//
//	service, _ := resolve.NewService(resolve.ServiceConfig{})
//	handlers := resolve.NewHandlers(service, logger)
//
//	v1 := router.Group("/v1/resolve")
//	resolve.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.POST("/resolve", handlers.HandleResolve)

	rg.GET("/entities", handlers.HandleListEntities)
	rg.GET("/entities/:id", handlers.HandleGetEntity)

	rg.POST("/overlay", handlers.HandleApplyOverlay)

	rg.GET("/health", handlers.HandleHealth)
	rg.GET("/ready", handlers.HandleReady)
}
