package main

import (
	"acs-platform/internal/httpapi"
	"acs-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// AUTH routes (token issuance).
	// NOTE: This is a placeholder login route; real credential validation is not implemented.
	r.POST("/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		// WHITELIST routes: viewers read, operators and admins write.
		wl := v1.Group("/whitelist")
		{
			wl.GET("", rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleOperator, rbac.RoleViewer), h.ListEntries)
			wl.GET("/:id", rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleOperator, rbac.RoleViewer), h.GetEntry)
			wl.POST("", rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleOperator), h.CreateEntry)
			wl.PUT("/:id", rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleOperator), h.UpdateEntry)
			wl.DELETE("/:id", rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleOperator), h.DeleteEntry)
			wl.POST("/batch", rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleOperator), h.BatchAuthorize)
		}

		// GUEST INVITATION routes: operators and admins invite, viewers read.
		inv := v1.Group("/invitations")
		{
			inv.GET("", rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleOperator, rbac.RoleViewer), h.ListInvitations)
			inv.POST("", rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleOperator), h.CreateInvitation)
		}

		// EXTERNAL ACCESS LOG routes: reads for everyone, manual sync for admins.
		logs := v1.Group("/access-logs")
		{
			logs.GET("", rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleOperator, rbac.RoleViewer), h.ListAccessLogs)
			logs.GET("/stats", rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleOperator, rbac.RoleViewer), h.AccessLogStats)
			logs.POST("/sync", rbac.RequireAnyRole(rbac.RoleAdmin), h.TriggerSync)
		}

		// BIOSTAR mirror routes: admin-only.
		bio := v1.Group("/biostar")
		bio.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			bio.GET("/devices", h.ListDevices)
			bio.GET("/devices/:id/users", h.ListDeviceUsers)
			bio.POST("/devices/sync", h.SyncDevices)
			bio.GET("/users", h.ListUsers)
			bio.POST("/users/sync", h.SyncUsers)
		}
	}
}
