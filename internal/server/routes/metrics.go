package routes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/any-hub/pagetree/internal/metrics"
)

// RegisterMetricsRoutes 通过 adaptor 暴露 Prometheus 文本格式的 /-/metrics。
func RegisterMetricsRoutes(app *fiber.App, m *metrics.Metrics) {
	if app == nil || m == nil {
		return
	}
	app.Get("/-/metrics", adaptor.HTTPHandler(m.Handler()))
}
