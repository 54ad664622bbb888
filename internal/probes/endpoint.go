package probes

import (
	"context"
	"fmt"
	"net"

	"github.com/taoyao-code/health-monitor/internal/health"
)

// Endpoint 通用 TCP 端点探测：能建立连接即视为健康。
// 用于 websocket 网关、clickhouse 等只需可达性判断的依赖。
func Endpoint(addr string) health.Probe {
	return func(ctx context.Context) health.Outcome {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return health.Failure(fmt.Sprintf("dial %s failed: %v", addr, err))
		}
		_ = conn.Close()

		return health.Success(map[string]interface{}{
			"addr": addr,
		})
	}
}
