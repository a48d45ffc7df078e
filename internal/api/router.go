package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	_ "experiment-logger/docs"
	"experiment-logger/internal/api/handler"
	"experiment-logger/pkg/router"
)

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	// Pages
	r.GET("/", h.FormPage)
	r.POST("/form/toggle", h.FormToggle)
	r.POST("/form/submit", h.FormSubmit)
	r.POST("/form/reset", h.FormReset)
	r.POST("/form/resync", h.FormResync)
	r.GET("/plot", h.PlotPage)

	// Form session
	r.GET("/api/v1/schema", h.GetSchema)
	r.GET("/api/v1/session", h.GetSession)
	r.POST("/api/v1/session/values", h.SetValues)
	r.POST("/api/v1/session/toggle", h.ToggleGroup)
	r.POST("/api/v1/session/reset", h.ResetForm)
	r.POST("/api/v1/session/submit", h.SubmitForm)
	r.POST("/api/v1/session/resync", h.ResyncCounters)

	// Log
	r.GET("/api/v1/log", h.GetLog)
	r.GET("/api/v1/log/recent", h.GetRecent)
	r.POST("/api/v1/log/refresh", h.RefreshLog)
	r.GET("/api/v1/export", h.ExportLog)

	// Plot
	r.GET("/api/v1/plot/choices", h.GetPlotChoices)
	r.POST("/api/v1/plot", h.CreatePlot)
	r.GET("/api/v1/plot.svg", h.RenderPlotImage)
	r.GET("/api/v1/plot.png", h.RenderPlotImage)

	r.GET("/health", h.Health)
	r.GET("/swagger/*", router.HandlerFunc(httpSwagger.WrapHandler))
}
