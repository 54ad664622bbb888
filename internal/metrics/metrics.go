package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// HealthMetrics 健康检查业务指标
type HealthMetrics struct {
	CheckTotal       *prometheus.CounterVec // labels: component, result=ok|fail|skip
	CheckDuration    *prometheus.HistogramVec
	CircuitOpenTotal *prometheus.CounterVec // labels: component
	HealthScore      prometheus.Gauge       // 最近一轮加权得分 0-1
	OverallStatus    prometheus.Gauge       // 0=healthy 1=degraded 2=unhealthy
	CycleDuration    prometheus.Histogram
}

// NewHealthMetrics 注册并返回健康检查指标
func NewHealthMetrics(reg *prometheus.Registry) *HealthMetrics {
	m := &HealthMetrics{
		CheckTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "health_check_total",
			Help: "Component health checks by result.",
		}, []string{"component", "result"}),
		CheckDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "health_check_duration_seconds",
			Help:    "Component probe latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"component"}),
		CircuitOpenTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "health_circuit_open_total",
			Help: "Probe executions skipped because the circuit breaker was open.",
		}, []string{"component"}),
		HealthScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "health_score",
			Help: "Weighted overall health score of the last cycle (0-1).",
		}),
		OverallStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "health_overall_status",
			Help: "Overall status of the last cycle (0=healthy 1=degraded 2=unhealthy).",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "health_cycle_duration_seconds",
			Help:    "Duration of full check cycles.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.CheckTotal, m.CheckDuration, m.CircuitOpenTotal, m.HealthScore, m.OverallStatus, m.CycleDuration)
	return m
}
