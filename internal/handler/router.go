package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/importdash/internal/middleware"
)

type RouterDeps struct {
	Runs       *RunHandler
	Dashboard  *DashboardHandler
	Activity   *ActivityHandler
	Templates  *TemplateHandler
	JWTSecret  []byte
	RateWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/runs", deps.Runs.Create)
	authGroup.GET("/runs/:run_id", deps.Runs.Get)
	authGroup.DELETE("/runs/:run_id", deps.Runs.Delete)
	authGroup.POST("/runs/:run_id/files/:slot", deps.Runs.UploadFile)
	authGroup.PUT("/runs/:run_id/imported_by", deps.Runs.SetImportedBy)
	authGroup.PUT("/runs/:run_id/force_run", deps.Runs.SetForceRun)
	authGroup.POST("/runs/:run_id/reset", deps.Runs.Reset)

	limited := authGroup.Group("")
	if deps.RateWindow > 0 {
		limited.Use(middleware.RateLimit(deps.RateWindow))
	}
	limited.POST("/runs/:run_id/preview", deps.Runs.Preview)
	limited.POST("/runs/:run_id/commit", deps.Runs.Commit)

	authGroup.GET("/imports", deps.Dashboard.ListImports)
	authGroup.GET("/imports/:id", deps.Dashboard.GetImport)
	authGroup.GET("/jobs", deps.Dashboard.ListJobs)
	authGroup.POST("/jobs/:id/retry", deps.Dashboard.RetryJob)
	authGroup.GET("/orders", deps.Dashboard.ListOrders)
	authGroup.GET("/orders/:id", deps.Dashboard.GetOrder)

	authGroup.GET("/activity", deps.Activity.List)
	authGroup.GET("/templates/:kind", deps.Templates.Download)
}
