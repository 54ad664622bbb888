package health

// 固定优先级：不随环境变化
var (
	// alwaysCritical 核心存储，任何环境下失败都不可接受
	alwaysCritical = map[string]bool{
		"database": true,
		"postgres": true,
	}
	// alwaysImportant 进程自身的资源/线程活性
	alwaysImportant = map[string]bool{
		"runtime": true,
		"system":  true,
	}
)

// 环境相关优先级表。staging 最严格（外部服务默认关键），
// production 允许部分服务缺席（必须能在其丢失时继续服务），
// development 及其他环境降级处理，避免本地缺少基础设施时无法工作。
var (
	stagingPriorities = map[string]Priority{
		"redis":      PriorityCritical,
		"cache":      PriorityCritical,
		"websocket":  PriorityCritical,
		"clickhouse": PriorityCritical,
		"search":     PriorityOptional,
		"analytics":  PriorityOptional,
	}
	productionPriorities = map[string]Priority{
		"redis":      PriorityImportant,
		"cache":      PriorityImportant,
		"websocket":  PriorityCritical,
		"clickhouse": PriorityOptional,
		"search":     PriorityOptional,
		"analytics":  PriorityOptional,
	}
	developmentPriorities = map[string]Priority{
		"redis":      PriorityOptional,
		"cache":      PriorityOptional,
		"websocket":  PriorityImportant,
		"clickhouse": PriorityOptional,
		"search":     PriorityOptional,
		"analytics":  PriorityOptional,
	}
)

// ClassifyPriority 根据组件名与运行环境计算优先级。
// 纯函数，无状态，可并发调用；回退顺序集中在此处：
// 固定表 → 环境表 → Important。
func ClassifyPriority(component, environment string) Priority {
	if alwaysCritical[component] {
		return PriorityCritical
	}
	if alwaysImportant[component] {
		return PriorityImportant
	}

	var table map[string]Priority
	switch environment {
	case "staging":
		table = stagingPriorities
	case "production":
		table = productionPriorities
	default:
		// development、testing 及未知环境统一按开发环境处理
		table = developmentPriorities
	}

	if p, ok := table[component]; ok {
		return p
	}
	return PriorityImportant
}
