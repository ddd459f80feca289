package api

import (
	"OrderPayments/pkg/logger"
	"OrderPayments/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func NewGinEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(metrics.GinMiddleware(), logger.CorrelationMiddleware(), logger.RequestLogger(), gin.Recovery())
	return engine
}
