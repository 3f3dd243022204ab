package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mailtriage/internal/handler"
	"mailtriage/internal/middleware"
)

type Handlers struct {
	Dashboard *handler.DashboardHandler
	Email     *handler.EmailHandler
	Inbox     *handler.InboxHandler
	SSE       *handler.SSEHandler
}

func SetupRoutes(e *echo.Echo, h Handlers, ready middleware.ReadinessChecker) {
	e.Use(middleware.Metrics())

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// HTML dashboard and its form endpoints
	e.GET("/", h.Dashboard.Dashboard)
	e.POST("/process", h.Dashboard.ProcessEmail)
	e.POST("/emails/:id/status", h.Dashboard.SetStatus)
	e.POST("/emails/:id/reply", h.Dashboard.EditReply)
	e.POST("/emails/:id/update", h.Dashboard.UpdateRow)
	e.POST("/bulk/status", h.Dashboard.BulkStatus)
	e.POST("/bulk/delete-completed", h.Dashboard.DeleteCompleted)
	e.POST("/restore", h.Dashboard.Restore)
	e.POST("/clear", h.Dashboard.Clear)

	api := e.Group("/api")
	requireEngine := middleware.RequireEngine(ready)

	api.POST("/emails/process", h.Email.ProcessEmail, requireEngine)
	api.GET("/emails", h.Email.ListEmails)
	api.GET("/emails/:id", h.Email.GetEmail)
	api.PATCH("/emails/:id", h.Email.UpdateEmail)
	api.DELETE("/emails", h.Email.DeleteEmails)
	api.POST("/emails/bulk-status", h.Email.BulkStatus)
	api.POST("/emails/delete-completed", h.Email.DeleteCompleted)
	api.POST("/emails/clear", h.Email.ClearAll)
	api.POST("/emails/restore", h.Email.RestoreBackup)
	api.GET("/stats", h.Email.Stats)
	api.GET("/actions", h.Email.ActionQueue)
	api.GET("/export.csv", h.Email.ExportCSV)
	api.GET("/export.xlsx", h.Email.ExportXLSX)

	api.POST("/inbox/import", h.Inbox.Import, requireEngine)

	// Live table updates via Server-Sent Events (SSE)
	api.GET("/sse", h.SSE.Updates)
}
