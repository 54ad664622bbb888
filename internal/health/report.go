package health

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taoyao-code/health-monitor/internal/sysinfo"
)

// SystemHealthReport 一轮完整检查的不可变快照
type SystemHealthReport struct {
	ID              string            `json:"id" yaml:"id"`
	OverallStatus   Status            `json:"overall_status" yaml:"overall_status"`
	StatusByRatio   Status            `json:"status_by_ratio" yaml:"status_by_ratio"` // 次级比例视图，不用于 readiness
	HealthScore     float64           `json:"health_score" yaml:"health_score"`
	Timestamp       time.Time         `json:"timestamp" yaml:"timestamp"`
	Environment     string            `json:"environment" yaml:"environment"`
	Components      []ComponentResult `json:"components" yaml:"components"`
	SystemMetrics   sysinfo.Snapshot  `json:"system_metrics" yaml:"system_metrics"`
	Platform        sysinfo.Platform  `json:"platform" yaml:"platform"`
	Recommendations []string          `json:"recommendations" yaml:"recommendations"`
}

// Summary 最近一次报告的轻量摘要，供轮询方使用，不触发探测
type Summary struct {
	Status      Status    `json:"status" yaml:"status"`
	Score       float64   `json:"score" yaml:"score"`
	Components  int       `json:"components" yaml:"components"`
	Healthy     int       `json:"healthy" yaml:"healthy"`
	Degraded    int       `json:"degraded" yaml:"degraded"`
	Unhealthy   int       `json:"unhealthy" yaml:"unhealthy"`
	CircuitOpen int       `json:"circuit_open" yaml:"circuit_open"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
}

// buildReport 组装系统健康报告
func (m *Monitor) buildReport(ctx context.Context, environment string, results []ComponentResult, overall, ratio Status, score float64) *SystemHealthReport {
	snap, plat := m.sysinfoFn(ctx)

	return &SystemHealthReport{
		ID:              uuid.NewString(),
		OverallStatus:   overall,
		StatusByRatio:   ratio,
		HealthScore:     score,
		Timestamp:       time.Now(),
		Environment:     environment,
		Components:      results,
		SystemMetrics:   snap,
		Platform:        plat,
		Recommendations: buildRecommendations(results, plat),
	}
}

// buildRecommendations 根据组件结果生成运维建议列表
func buildRecommendations(results []ComponentResult, plat sysinfo.Platform) []string {
	recs := make([]string, 0, len(results))

	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy, StatusCircuitOpen:
			if r.RootCause != nil {
				recs = append(recs, r.RootCause.Remediation)
			} else {
				recs = append(recs, fmt.Sprintf("Investigate and restore component %s.", r.Name))
			}
		case StatusDegraded:
			recs = append(recs, fmt.Sprintf("Monitor component %s and optimize its resource usage.", r.Name))
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "All components are operating normally.")
	}

	if plat.OS == "windows" {
		recs = append(recs, "Host runs Windows: verify service limits and path handling before relying on this instance in production.")
	}

	return recs
}

// LastReport 最近一次完整报告；尚未执行过检查时返回 nil
func (m *Monitor) LastReport() *SystemHealthReport {
	return m.lastReport.Load()
}

// LastSummary 最近一次报告的摘要。第二个返回值表示是否已有报告。
func (m *Monitor) LastSummary() (Summary, bool) {
	report := m.lastReport.Load()
	if report == nil {
		return Summary{Status: StatusUnknown}, false
	}

	s := Summary{
		Status:     report.OverallStatus,
		Score:      report.HealthScore,
		Components: len(report.Components),
		Timestamp:  report.Timestamp,
	}
	for _, c := range report.Components {
		switch c.Status {
		case StatusHealthy:
			s.Healthy++
		case StatusDegraded:
			s.Degraded++
		case StatusCircuitOpen:
			s.CircuitOpen++
		default:
			s.Unhealthy++
		}
	}
	return s, true
}

// Ready 就绪判断：已有报告且整体非 Unhealthy。降级状态仍然就绪。
func (m *Monitor) Ready() bool {
	report := m.lastReport.Load()
	return report != nil && report.OverallStatus != StatusUnhealthy
}

// Alive 存活判断：进程能响应即存活
func (m *Monitor) Alive() bool {
	return true
}
