// Copyright (C) 2026 Quorum Stack (dev@quorumstack.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/handlers"
	"github.com/QuorumStack/QuorumAdvisor/services/advisor/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes wires the advisor's HTTP surface. Health and metrics stay
// unauthenticated so probes and scrapers work without credentials; the v1
// API group carries the bearer-token check when apiToken is non-empty.
func SetupRoutes(router *gin.Engine, advisor handlers.Advisor, store handlers.DocumentStore, apiToken string) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(apiToken))
	{
		v1.POST("/advise", handlers.HandleAdvise(advisor))
		v1.POST("/documents", handlers.CreateDocument(store))
		v1.GET("/documents", handlers.ListDocuments(store))
	}
}
