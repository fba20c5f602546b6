package router

import (
	"time"

	"github.com/fitit/internal/handler"
	"github.com/fitit/internal/logger"
	"github.com/fitit/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const sessionName = "fitit_session"

// Options 路由的可选依赖
type Options struct {
	SessionSecret string
	Logger        *zap.Logger
	// RateLimiter 为 nil 时不限流
	RateLimiter *middleware.RateLimiter
	// CORSOrigins 为空时不挂载跨域中间件，"*" 表示允许全部来源
	CORSOrigins []string
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger.OrNop(opts.Logger)))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	}

	// 配置会话中间件
	secret := opts.SessionSecret
	if secret == "" {
		secret = "secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 30,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	if opts.RateLimiter != nil {
		apiGroup.Use(opts.RateLimiter.Middleware())
	}
	{
		apiGroup.GET("/calendar", api.GetCalendar)
		apiGroup.POST("/calendar/next", api.NextMonth)
		apiGroup.POST("/calendar/prev", api.PreviousMonth)

		apiGroup.GET("/foods", api.ListFoods)
		apiGroup.POST("/foods", api.CreateFood)
		apiGroup.DELETE("/foods/:id", api.DeleteFood)

		apiGroup.GET("/entries", api.ListEntries)
		apiGroup.GET("/entries/:date", api.GetEntry)
		apiGroup.PUT("/entries/:date", api.UpdateEntry)

		apiGroup.GET("/bmi", api.CalculateBMI)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept-Language", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
