package health

import "time"

// priorityWeights 加权平均的权重：关键组件的失败必须主导整体得分
var priorityWeights = map[Priority]float64{
	PriorityCritical:  3,
	PriorityImportant: 2,
	PriorityOptional:  1,
}

// rawResult 探测的原始结果，尚未套用降级策略
type rawResult struct {
	name    string
	outcome Outcome
	skipped bool // 熔断器打开，本轮未执行探测
	latency time.Duration
	at      time.Time
}

// applyPolicy 降级策略：优先级 × 探测结果 → 组件状态与得分贡献
//
//	critical  失败 → unhealthy / 0.0
//	important 失败 → degraded  / 0.5
//	optional  失败 → healthy   / 1.0（仅在详情中标记）
func applyPolicy(p Priority, failed bool) (Status, float64) {
	if !failed {
		return StatusHealthy, 1.0
	}
	switch p {
	case PriorityCritical:
		return StatusUnhealthy, 0.0
	case PriorityImportant:
		return StatusDegraded, 0.5
	default:
		return StatusHealthy, 1.0
	}
}

// evaluate 对一轮原始结果套用降级策略，产出组件结果列表、
// 主状态（优先级优先）、次级比例状态与加权健康得分。
// 输入顺序即注册顺序，输出保持不变。
func evaluate(environment string, raws []rawResult) ([]ComponentResult, Status, Status, float64) {
	results := make([]ComponentResult, len(raws))

	var (
		sumWeight, sumScore float64
		criticalFailed      bool
		importantFailed     bool
		healthyCount        int
		degradedCount       int
		unhealthyCount      int
	)

	for i, raw := range raws {
		priority := ClassifyPriority(raw.name, environment)
		failed := raw.skipped || !raw.outcome.OK

		status, contribution := applyPolicy(priority, failed)
		if raw.skipped {
			// 熔断跳过保留自己的状态标签，得分按失败计算
			status = StatusCircuitOpen
		}

		detail := raw.outcome.Detail
		if failed && priority == PriorityOptional {
			if detail == nil {
				detail = make(map[string]interface{}, 1)
			}
			detail["optional_unavailable"] = true
		}

		var rootCause *RootCause
		if status == StatusUnhealthy || status == StatusDegraded || status == StatusCircuitOpen {
			rootCause = FiveWhys(raw.name, raw.outcome.Err)
		}

		results[i] = ComponentResult{
			Name:      raw.name,
			Status:    status,
			Priority:  priority,
			LatencyMs: float64(raw.latency) / float64(time.Millisecond),
			Timestamp: raw.at,
			Detail:    detail,
			Error:     raw.outcome.Err,
			RootCause: rootCause,
		}

		weight := priorityWeights[priority]
		sumWeight += weight
		sumScore += weight * contribution

		if failed {
			switch priority {
			case PriorityCritical:
				criticalFailed = true
			case PriorityImportant:
				importantFailed = true
			}
		}

		switch status {
		case StatusHealthy:
			healthyCount++
		case StatusDegraded:
			degradedCount++
		default: // unhealthy 与 circuit_open 同计
			unhealthyCount++
		}
	}

	score := 0.0
	if sumWeight > 0 {
		score = sumScore / sumWeight
	}

	// 主状态按优先级推导，避免平均值掩盖单个关键故障
	overall := StatusHealthy
	switch {
	case criticalFailed:
		overall = StatusUnhealthy
	case importantFailed:
		overall = StatusDegraded
	}

	ratio := ratioStatus(healthyCount, degradedCount, unhealthyCount, len(raws))

	return results, overall, ratio, score
}

// ratioStatus 粗粒度的比例视图，仅作为次级统计保留。
// 阈值判定可能与主状态不一致（如大量可选组件掩盖关键故障），
// 因此对外暴露的 readiness 永远以主状态为准。
func ratioStatus(healthy, degraded, unhealthy, total int) Status {
	if total == 0 {
		return StatusUnknown
	}
	if float64(unhealthy) > float64(total)*0.5 {
		return StatusUnhealthy
	}
	if unhealthy > 0 || float64(degraded) > float64(total)*0.3 {
		return StatusDegraded
	}
	return StatusHealthy
}
