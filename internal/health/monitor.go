package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/health-monitor/internal/metrics"
	"github.com/taoyao-code/health-monitor/internal/sysinfo"
)

// ErrNoComponents 注册表为空，没有任何可执行的检查
var ErrNoComponents = errors.New("health: no components registered")

const defaultProbeTimeout = 10 * time.Second

// SysInfoFn 资源快照采集函数，测试中可替换
type SysInfoFn func(ctx context.Context) (sysinfo.Snapshot, sysinfo.Platform)

// Monitor 健康监控器：持有探测注册表、失败历史与最近一次报告。
// 进程内唯一实例，由启动代码创建并显式传递给使用方。
type Monitor struct {
	mu     sync.RWMutex
	names  []string // 注册顺序
	probes map[string]Probe

	history    *History
	lastReport atomic.Pointer[SystemHealthReport]

	log       *zap.Logger
	hm        *metrics.HealthMetrics
	sysinfoFn SysInfoFn
}

// NewMonitor 创建监控器
func NewMonitor(history *History, logger *zap.Logger) *Monitor {
	if history == nil {
		history = NewHistory(0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		probes:    make(map[string]Probe),
		history:   history,
		log:       logger,
		sysinfoFn: sysinfo.Collect,
	}
}

// SetMetrics 挂接 Prometheus 指标（可选）
func (m *Monitor) SetMetrics(hm *metrics.HealthMetrics) {
	m.hm = hm
}

// SetSysInfoFn 替换资源采集函数（测试用）
func (m *Monitor) SetSysInfoFn(fn SysInfoFn) {
	if fn != nil {
		m.sysinfoFn = fn
	}
}

// History 暴露失败历史（只读用途：状态查询与测试）
func (m *Monitor) History() *History {
	return m.history
}

// Register 注册组件探测。重复注册同名组件时替换探测函数，保留原顺序。
func (m *Monitor) Register(name string, probe Probe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.probes[name]; !ok {
		m.names = append(m.names, name)
	}
	m.probes[name] = probe
}

// Components 返回注册顺序的组件名列表
func (m *Monitor) Components() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// RunFullCheck 并发执行全部探测并生成系统健康报告。
// 单个探测的失败、超时、panic 都被限制在该探测的边界内，
// 唯一会返回错误的情况是注册表为空。
func (m *Monitor) RunFullCheck(ctx context.Context, environment string, perProbeTimeout time.Duration) (*SystemHealthReport, error) {
	m.mu.RLock()
	names := make([]string, len(m.names))
	copy(names, m.names)
	probes := make(map[string]Probe, len(m.probes))
	for k, v := range m.probes {
		probes[k] = v
	}
	m.mu.RUnlock()

	if len(names) == 0 {
		return nil, ErrNoComponents
	}
	if perProbeTimeout <= 0 {
		perProbeTimeout = defaultProbeTimeout
	}

	cycleStart := time.Now()

	// 按下标回填，完成顺序不影响输出顺序
	raws := make([]rawResult, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(idx int, name string, probe Probe) {
			defer wg.Done()
			raws[idx] = m.runProbe(ctx, name, probe, perProbeTimeout)
		}(i, name, probes[name])
	}
	wg.Wait()

	results, overall, ratio, score := evaluate(environment, raws)
	report := m.buildReport(ctx, environment, results, overall, ratio, score)
	m.lastReport.Store(report)

	m.observeCycle(report, time.Since(cycleStart), raws)

	return report, nil
}

// runProbe 执行单个探测：熔断判定 → 超时包裹 → 结果回写失败历史
func (m *Monitor) runProbe(ctx context.Context, name string, probe Probe, timeout time.Duration) rawResult {
	at := time.Now()

	if m.history.ShouldSkip(name) {
		rec := m.history.Record(name)
		m.log.Warn("probe skipped, circuit open",
			zap.String("component", name),
			zap.Int("consecutive_failures", rec.ConsecutiveFailures))
		return rawResult{
			name:    name,
			skipped: true,
			at:      at,
			outcome: Failure(fmt.Sprintf("circuit breaker open after %d consecutive failures", rec.ConsecutiveFailures)),
		}
	}

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcome := invoke(pctx, probe, timeout)
	latency := time.Since(at)

	if outcome.OK {
		m.history.RecordSuccess(name)
	} else {
		m.history.RecordFailure(name)
		m.log.Warn("probe failed",
			zap.String("component", name),
			zap.String("error", outcome.Err),
			zap.Duration("latency", latency))
	}

	return rawResult{name: name, outcome: outcome, latency: latency, at: at}
}

// invoke 在独立 goroutine 中运行探测，隔离 panic，并把超时/取消
// 统一转换为失败结果。挂死的探测不会阻塞整轮检查。
func invoke(ctx context.Context, probe Probe, timeout time.Duration) Outcome {
	done := make(chan Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Failure(fmt.Sprintf("probe panic: %v", r))
			}
		}()
		done <- probe(ctx)
	}()

	select {
	case out := <-done:
		return out
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Failure(fmt.Sprintf("timeout after %gs", timeout.Seconds()))
		}
		return Failure(fmt.Sprintf("probe cancelled: %v", ctx.Err()))
	}
}

// observeCycle 更新指标并记录一轮检查的结构化日志
func (m *Monitor) observeCycle(report *SystemHealthReport, elapsed time.Duration, raws []rawResult) {
	if m.hm != nil {
		for _, raw := range raws {
			switch {
			case raw.skipped:
				m.hm.CheckTotal.WithLabelValues(raw.name, "skip").Inc()
				m.hm.CircuitOpenTotal.WithLabelValues(raw.name).Inc()
			case raw.outcome.OK:
				m.hm.CheckTotal.WithLabelValues(raw.name, "ok").Inc()
				m.hm.CheckDuration.WithLabelValues(raw.name).Observe(raw.latency.Seconds())
			default:
				m.hm.CheckTotal.WithLabelValues(raw.name, "fail").Inc()
				m.hm.CheckDuration.WithLabelValues(raw.name).Observe(raw.latency.Seconds())
			}
		}
		m.hm.HealthScore.Set(report.HealthScore)
		m.hm.OverallStatus.Set(statusGaugeValue(report.OverallStatus))
		m.hm.CycleDuration.Observe(elapsed.Seconds())
	}

	m.log.Info("health check cycle complete",
		zap.String("environment", report.Environment),
		zap.String("status", string(report.OverallStatus)),
		zap.Float64("score", report.HealthScore),
		zap.Int("components", len(report.Components)),
		zap.Duration("elapsed", elapsed))
}

func statusGaugeValue(s Status) float64 {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}
