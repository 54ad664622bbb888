package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	cfgpkg "github.com/taoyao-code/health-monitor/internal/config"
	"github.com/taoyao-code/health-monitor/internal/health"
	"github.com/taoyao-code/health-monitor/internal/httpserver"
	"github.com/taoyao-code/health-monitor/internal/logging"
	"github.com/taoyao-code/health-monitor/internal/metrics"
	"github.com/taoyao-code/health-monitor/internal/probes"

	"go.uber.org/zap"
)

func main() {
	// 1) 加载配置
	cfg, err := cfgpkg.Load("")
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	log := zap.L()

	// 3) 指标注册与处理器
	reg := metrics.NewRegistry()
	metricsHandler := metrics.Handler(reg)
	hm := metrics.NewHealthMetrics(reg)

	// 4) 监控器与失败历史
	history := health.NewHistory(cfg.Monitor.BreakerThreshold, cfg.Monitor.BreakerCooldown)
	mon := health.NewMonitor(history, log)
	mon.SetMetrics(hm)

	// 5) 按配置注册探测
	ctx := context.Background()
	registerProbes(ctx, mon, cfg, log)

	// 6) 首轮检查 + 周期调度
	runCycle(ctx, mon, cfg, log)
	ticker := time.NewTicker(cfg.Monitor.CheckInterval)
	defer ticker.Stop()
	stopCh := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				runCycle(ctx, mon, cfg, log)
			case <-stopCh:
				return
			}
		}
	}()

	// 7) HTTP 服务
	httpSrv := httpserver.New(cfg.HTTP, mon, httpserver.Options{
		Environment:     cfg.App.Env,
		ProbeTimeout:    cfg.Monitor.ProbeTimeout,
		CheckRatePerMin: cfg.Monitor.CheckRatePerMin,
	}, cfg.Metrics.Path, metricsHandler)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.HTTP.Addr))
		if err := httpSrv.Start(); err != nil {
			log.Error("http server error", zap.Error(err))
		}
	}()

	// 信号处理，优雅关闭
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	close(stopCh)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}

// registerProbes 根据配置装配探测：数据库、Redis、TCP端点、运行时
func registerProbes(ctx context.Context, mon *health.Monitor, cfg *cfgpkg.Config, log *zap.Logger) {
	if cfg.Database.Enabled {
		pool, err := probes.NewPgxPool(ctx, cfg.Database)
		if err != nil {
			// 连接失败不阻止启动：注册一个必然失败的探测，让报告反映现实
			log.Error("database connect error", zap.Error(err))
			msg := err.Error()
			mon.Register("database", func(ctx context.Context) health.Outcome {
				return health.Failure("connect failed at startup: " + msg)
			})
		} else {
			mon.Register("database", probes.Database(pool))
			log.Info("database probe registered")
		}
	}

	if cfg.Redis.Enabled {
		client, err := probes.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Error("redis connect error", zap.Error(err))
			msg := err.Error()
			mon.Register("redis", func(ctx context.Context) health.Outcome {
				return health.Failure("connect failed at startup: " + msg)
			})
		} else {
			mon.Register("redis", probes.Redis(client))
			log.Info("redis probe registered", zap.String("addr", cfg.Redis.Addr))
		}
	}

	for _, ep := range cfg.Endpoints {
		mon.Register(ep.Name, probes.Endpoint(ep.Addr))
		log.Info("endpoint probe registered", zap.String("name", ep.Name), zap.String("addr", ep.Addr))
	}

	// 进程自身的资源活性探测始终开启
	mon.Register("runtime", probes.Runtime())
}

// runCycle 执行一轮完整检查，按配置导出报告
func runCycle(ctx context.Context, mon *health.Monitor, cfg *cfgpkg.Config, log *zap.Logger) {
	report, err := mon.RunFullCheck(ctx, cfg.App.Env, cfg.Monitor.ProbeTimeout)
	if err != nil {
		log.Error("health check cycle error", zap.Error(err))
		return
	}

	if cfg.Monitor.Export.Enable {
		name := "health_report_" + report.Timestamp.Format("20060102_150405") + "." + cfg.Monitor.Export.Format
		path, err := health.ExportAs(report, filepath.Join(cfg.Monitor.Export.Dir, name), cfg.Monitor.Export.Format)
		if err != nil {
			log.Error("report export error", zap.Error(err))
			return
		}
		log.Info("report exported", zap.String("path", path))
	}
}
