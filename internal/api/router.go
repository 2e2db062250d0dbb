package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resumeforge/internal/api/middleware"
	"resumeforge/internal/config"
	"resumeforge/internal/metrics"
)

// NewRouter 构建 Gin 路由引擎并挂载全局中间件。
func NewRouter(cfg *config.Config, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		metrics.GinMiddleware(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 指标端点仅供内网抓取，配置了内部密钥时强制校验。
	metricsHandlers := []gin.HandlerFunc{gin.WrapH(promhttp.Handler())}
	if cfg.API.InternalSecret != "" {
		metricsHandlers = append([]gin.HandlerFunc{middleware.InternalSecretMiddleware(cfg.API.InternalSecret)}, metricsHandlers...)
	}
	router.GET("/metrics", metricsHandlers...)

	return router
}
