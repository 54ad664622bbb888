package health

import (
	"context"
	"time"
)

// Status 组件/系统健康状态
type Status string

const (
	StatusHealthy     Status = "healthy"      // 健康
	StatusDegraded    Status = "degraded"     // 降级（部分功能受损但仍可服务）
	StatusUnhealthy   Status = "unhealthy"    // 不健康（无法服务）
	StatusUnknown     Status = "unknown"      // 未知（尚未探测）
	StatusCircuitOpen Status = "circuit_open" // 熔断跳过（本轮未执行探测）
)

// Priority 组件优先级，决定失败对整体状态的影响程度
type Priority string

const (
	PriorityCritical  Priority = "critical"  // 关键组件，失败即整体不健康
	PriorityImportant Priority = "important" // 重要组件，失败导致整体降级
	PriorityOptional  Priority = "optional"  // 可选组件，失败不影响整体
)

// Outcome 单次探测的结果：成功携带详情，失败携带错误消息
type Outcome struct {
	OK     bool
	Detail map[string]interface{}
	Err    string
}

// Success 构造成功结果
func Success(detail map[string]interface{}) Outcome {
	return Outcome{OK: true, Detail: detail}
}

// Failure 构造失败结果
func Failure(msg string) Outcome {
	return Outcome{OK: false, Err: msg}
}

// Probe 探测函数：访问一个依赖并返回结构化结果。
// 超时与取消由 Monitor 通过 ctx 控制，探测自身不做超时管理。
type Probe func(ctx context.Context) Outcome

// ComponentResult 单个组件在一轮检查中的结果，生成后不再修改
type ComponentResult struct {
	Name      string                 `json:"name" yaml:"name"`
	Status    Status                 `json:"status" yaml:"status"`
	Priority  Priority               `json:"priority" yaml:"priority"`
	LatencyMs float64                `json:"latency_ms" yaml:"latency_ms"`
	Timestamp time.Time              `json:"timestamp" yaml:"timestamp"`
	Detail    map[string]interface{} `json:"detail,omitempty" yaml:"detail,omitempty"`
	Error     string                 `json:"error,omitempty" yaml:"error,omitempty"`
	RootCause *RootCause             `json:"root_cause,omitempty" yaml:"root_cause,omitempty"`
}
