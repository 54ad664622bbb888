package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	cfgpkg "github.com/taoyao-code/health-monitor/internal/config"
	"github.com/taoyao-code/health-monitor/internal/health"
)

// Options 健康检查路由的运行参数
type Options struct {
	Environment  string
	ProbeTimeout time.Duration
	// CheckRatePerMin 按需探测限流（每分钟次数）；<=0 表示不限流
	CheckRatePerMin int
}

// Server HTTP 服务封装
type Server struct {
	srv *http.Server
}

// New 创建并配置 Gin + HTTP Server，注册健康检查与指标路由
func New(cfg cfgpkg.HTTPConfig, mon *health.Monitor, opts Options, metricsPath string, metricsHandler http.Handler) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	registerHealthRoutes(r, mon, opts)

	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	if metricsHandler != nil {
		r.GET(metricsPath, gin.WrapH(metricsHandler))
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &Server{srv: srv}
}

// registerHealthRoutes 注册健康检查路由
func registerHealthRoutes(r *gin.Engine, mon *health.Monitor, opts Options) {
	var limiter *rate.Limiter
	if opts.CheckRatePerMin > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.CheckRatePerMin)/60.0), opts.CheckRatePerMin)
	}

	// 1. 完整检查：执行全部探测并返回报告。
	// 受令牌桶限流保护，超频轮询退回最近一次摘要，避免打爆依赖。
	// GET /health
	r.GET("/health", func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			summary, ok := mon.LastSummary()
			if !ok {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "check rate exceeded and no cached report"})
				return
			}
			c.Header("X-Health-Cached", "true")
			c.JSON(statusCode(summary.Status), summary)
			return
		}

		report, err := mon.RunFullCheck(c.Request.Context(), opts.Environment, opts.ProbeTimeout)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(statusCode(report.OverallStatus), report)
	})

	// 2. 摘要：最近一次报告的轻量视图，不触发探测
	// GET /health/summary
	r.GET("/health/summary", func(c *gin.Context) {
		summary, ok := mon.LastSummary()
		if !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no report yet"})
			return
		}
		c.JSON(statusCode(summary.Status), summary)
	})

	// 3. Readiness探针（K8s使用）
	// GET /health/ready
	r.GET("/health/ready", func(c *gin.Context) {
		if !mon.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ready": true})
	})

	// 4. Liveness探针（K8s使用）
	// GET /health/live
	r.GET("/health/live", func(c *gin.Context) {
		if !mon.Alive() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"alive": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"alive": true})
	})
}

// statusCode Degraded 仍返回200表示可以服务，Unhealthy 返回503
func statusCode(s health.Status) int {
	if s == health.StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Start 启动 HTTP 服务（阻塞）
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
