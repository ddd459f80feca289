package api

import (
	"OrderPayments/internal/api/handlers"
	"OrderPayments/pkg/health"
	"OrderPayments/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	order          *handlers.OrderHandler
	payment        *handlers.PaymentHandler
	healthRegistry *health.Registry
}

func (r *Router) SetUp(engine *gin.Engine) {
	// Health checks (Kubernetes-style)
	engine.GET("/health/live", health.LivenessHandler())
	engine.GET("/health/ready", health.ReadinessHandler(r.healthRegistry, health.DefaultTimeout))

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	engine.POST("/orders", r.order.Create)
	engine.GET("/orders", r.order.Filter)
	engine.GET("/orders/:order_id", r.order.Get)

	engine.POST("/payments", r.payment.Create)
}

func NewRouter(
	order *handlers.OrderHandler,
	payment *handlers.PaymentHandler,
	healthRegistry *health.Registry,
) *Router {
	return &Router{
		order:          order,
		payment:        payment,
		healthRegistry: healthRegistry,
	}
}
