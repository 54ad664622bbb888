package probes

import (
	"context"
	"fmt"
	"runtime"

	"github.com/taoyao-code/health-monitor/internal/health"
)

// 超过该数量的 goroutine 视为泄漏
const goroutineLimit = 10000

// Runtime 进程自身的资源/并发活性探测
func Runtime() health.Probe {
	return func(ctx context.Context) health.Outcome {
		goroutines := runtime.NumGoroutine()
		if goroutines > goroutineLimit {
			return health.Failure(fmt.Sprintf("goroutine leak suspected: %d goroutines", goroutines))
		}

		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)

		return health.Success(map[string]interface{}{
			"goroutines":    goroutines,
			"heap_alloc_mb": ms.HeapAlloc / 1024 / 1024,
			"gc_cycles":     ms.NumGC,
			"num_cpu":       runtime.NumCPU(),
			"gomaxprocs":    runtime.GOMAXPROCS(0),
		})
	}
}
