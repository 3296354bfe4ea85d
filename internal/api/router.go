package api

import (
	"time"

	"PariMarket/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter 注册中间件与全部路由
func NewRouter(cfg config.ServerConfig, h *MarketHandler, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(logger))

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Accept", "Content-Type", RequestIDHeader},
			ExposeHeaders:    []string{RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           5 * time.Minute,
		}))
	}

	// 注册 pprof 方便调试和监测性能问题
	if cfg.EnablePprof {
		pprof.Register(r)
	}

	r.GET("/health", h.HealthCheck)

	// 与原有前端约定一致的五个接口
	r.POST("/createEvent", h.CreateEvent)
	r.POST("/addOutcomes", h.AddOutcomes)
	r.POST("/placeBet", h.PlaceBet)
	r.POST("/resolveMarket", h.ResolveMarket)
	r.GET("/getMarketPrice", h.GetMarketPrice)

	// 市场查询接口
	r.GET("/api/markets", h.ListMarkets)
	r.GET("/api/markets/:event_name", h.GetMarket)
	r.GET("/api/markets/:event_name/prices", h.GetMarketPrices)

	return r
}
