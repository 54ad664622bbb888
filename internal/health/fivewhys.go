package health

import "fmt"

// RootCause 五问法根因链：五层因果推导加一条修复建议
type RootCause struct {
	Chain       []string `json:"chain" yaml:"chain"`
	Remediation string   `json:"remediation" yaml:"remediation"`
}

// causalTemplate 按组件预置的因果模板
type causalTemplate struct {
	whys        [4]string
	remediation string
}

// 已知组件的因果模板。输出完全确定，便于测试与告警去重；
// 这不是真正的推理，只是把常见故障路径固化为可执行的排查提示。
var causalTemplates = map[string]causalTemplate{
	"database": {
		whys: [4]string{
			"Why: the connection attempt or query did not complete",
			"Why: the connection pool may be exhausted or the server stopped accepting connections",
			"Why: the database process may be down, restarting, or blocked by long-running transactions",
			"Why: resource exhaustion or a bad deployment on the database host",
		},
		remediation: "Check database server status, connection pool limits and recent migrations; restart the instance if unresponsive.",
	},
	"redis": {
		whys: [4]string{
			"Why: the PING command did not succeed",
			"Why: the redis server may be unreachable or rejecting connections",
			"Why: the instance may be out of memory or blocked by a slow command",
			"Why: eviction pressure or a network partition between service and cache",
		},
		remediation: "Verify redis availability and memory usage; the service can run degraded on the database until the cache recovers.",
	},
	"websocket": {
		whys: [4]string{
			"Why: the realtime endpoint did not accept a connection",
			"Why: the websocket gateway may be down or saturated",
			"Why: the gateway may have exhausted file descriptors or worker capacity",
			"Why: a traffic spike or a crashed gateway process",
		},
		remediation: "Restart the websocket gateway and review its connection limits; clients will reconnect automatically.",
	},
	"clickhouse": {
		whys: [4]string{
			"Why: the analytics query or ping did not complete",
			"Why: the clickhouse server may be merging parts or out of resources",
			"Why: heavy inserts or background merges can starve query threads",
			"Why: undersized hardware or an unthrottled ingestion pipeline",
		},
		remediation: "Check clickhouse system metrics and merge queue; analytics can be served stale until it recovers.",
	},
}

// genericTemplate 未知组件的回退模板
var genericTemplate = causalTemplate{
	whys: [4]string{
		"Why: the component did not respond successfully",
		"Why: the dependency may be down, unreachable, or overloaded",
		"Why: an upstream outage or resource exhaustion is the most common cause",
		"Why: a recent deployment or infrastructure change may have broken connectivity",
	},
	remediation: "Inspect the component logs and recent changes; restore connectivity and re-run the health check.",
}

// componentAliases 将别名归一到模板键
var componentAliases = map[string]string{
	"postgres": "database",
	"cache":    "redis",
	"realtime": "websocket",
}

// FiveWhys 针对失败组件生成确定性的因果链与修复建议。
// 纯函数：同样的输入永远产生同样的链。
func FiveWhys(component, errMsg string) *RootCause {
	key := component
	if alias, ok := componentAliases[key]; ok {
		key = alias
	}
	tpl, ok := causalTemplates[key]
	if !ok {
		tpl = genericTemplate
	}

	if errMsg == "" {
		errMsg = "probe failed"
	}

	chain := make([]string, 0, 5)
	chain = append(chain, fmt.Sprintf("Component %s failed: %s", component, errMsg))
	chain = append(chain, tpl.whys[:]...)

	return &RootCause{
		Chain:       chain,
		Remediation: tpl.remediation,
	}
}
