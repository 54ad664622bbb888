package health

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/health-monitor/internal/sysinfo"
)

func newTestMonitor(t *testing.T) *Monitor {
	t.Helper()
	mon := NewMonitor(NewHistory(5, 300*time.Second), nil)
	// 测试中不触碰真实主机指标
	mon.SetSysInfoFn(func(ctx context.Context) (sysinfo.Snapshot, sysinfo.Platform) {
		return sysinfo.Snapshot{CPUPercent: 10, MemPercent: 20, DiskPercent: 30},
			sysinfo.Platform{Hostname: "test", OS: "linux", Arch: "amd64", GoVersion: "go1.25"}
	})
	return mon
}

func okProbe(detail map[string]interface{}) Probe {
	return func(ctx context.Context) Outcome { return Success(detail) }
}

func failProbe(msg string) Probe {
	return func(ctx context.Context) Outcome { return Failure(msg) }
}

func TestRunFullCheck(t *testing.T) {
	t.Run("空注册表返回错误", func(t *testing.T) {
		mon := newTestMonitor(t)
		_, err := mon.RunFullCheck(context.Background(), "production", time.Second)
		assert.True(t, errors.Is(err, ErrNoComponents))
	})

	t.Run("每个注册组件恰好一个结果", func(t *testing.T) {
		mon := newTestMonitor(t)
		mon.Register("database", okProbe(nil))
		mon.Register("redis", failProbe("down"))
		mon.Register("search", failProbe("down"))

		report, err := mon.RunFullCheck(context.Background(), "production", time.Second)
		require.NoError(t, err)
		assert.Len(t, report.Components, 3)
	})

	t.Run("无状态变化时结果幂等", func(t *testing.T) {
		mon := newTestMonitor(t)
		mon.Register("database", okProbe(nil))
		mon.Register("redis", okProbe(nil))

		first, err := mon.RunFullCheck(context.Background(), "production", time.Second)
		require.NoError(t, err)
		second, err := mon.RunFullCheck(context.Background(), "production", time.Second)
		require.NoError(t, err)

		assert.Equal(t, first.OverallStatus, second.OverallStatus)
		assert.Equal(t, first.HealthScore, second.HealthScore)
	})

	t.Run("关键组件失败时整体不健康", func(t *testing.T) {
		for _, env := range []string{"development", "staging", "production", "testing"} {
			mon := newTestMonitor(t)
			mon.Register("database", failProbe("down"))
			mon.Register("search", okProbe(nil))
			mon.Register("analytics", okProbe(nil))

			report, err := mon.RunFullCheck(context.Background(), env, time.Second)
			require.NoError(t, err)
			assert.Equal(t, StatusUnhealthy, report.OverallStatus, "环境: %s", env)
		}
	})

	t.Run("仅Optional失败时整体健康", func(t *testing.T) {
		mon := newTestMonitor(t)
		mon.Register("database", okProbe(nil))
		mon.Register("search", failProbe("down"))

		report, err := mon.RunFullCheck(context.Background(), "production", time.Second)
		require.NoError(t, err)
		assert.Equal(t, StatusHealthy, report.OverallStatus)
		assert.Equal(t, 1.0, report.HealthScore)
	})

	t.Run("示例场景", func(t *testing.T) {
		mon := newTestMonitor(t)
		mon.Register("database", okProbe(nil))
		mon.Register("cache", failProbe("connection refused"))
		mon.Register("search", failProbe("timeout"))

		report, err := mon.RunFullCheck(context.Background(), "production", time.Second)
		require.NoError(t, err)

		assert.Equal(t, StatusDegraded, report.OverallStatus)
		assert.Equal(t, StatusHealthy, report.Components[0].Status)
		assert.Equal(t, StatusDegraded, report.Components[1].Status)
		assert.Equal(t, StatusHealthy, report.Components[2].Status)
		assert.Equal(t, true, report.Components[2].Detail["optional_unavailable"])
	})

	t.Run("探测panic被隔离", func(t *testing.T) {
		mon := newTestMonitor(t)
		mon.Register("database", okProbe(nil))
		mon.Register("cache", func(ctx context.Context) Outcome { panic("boom") })

		report, err := mon.RunFullCheck(context.Background(), "production", time.Second)
		require.NoError(t, err)
		assert.Len(t, report.Components, 2)
		assert.Contains(t, report.Components[1].Error, "probe panic")
		assert.Equal(t, StatusHealthy, report.Components[0].Status)
	})

	t.Run("超时按失败处理", func(t *testing.T) {
		mon := newTestMonitor(t)
		mon.Register("database", func(ctx context.Context) Outcome {
			select {
			case <-time.After(time.Second):
				return Success(nil)
			case <-ctx.Done():
				<-time.After(time.Second) // 故意无视取消
				return Success(nil)
			}
		})

		report, err := mon.RunFullCheck(context.Background(), "production", 50*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, StatusUnhealthy, report.Components[0].Status)
		assert.Contains(t, report.Components[0].Error, "timeout after")

		rec := mon.History().Record("database")
		assert.Equal(t, 1, rec.ConsecutiveFailures)
	})

	t.Run("整轮取消按失败处理", func(t *testing.T) {
		mon := newTestMonitor(t)
		mon.Register("database", func(ctx context.Context) Outcome {
			<-ctx.Done()
			<-time.After(time.Second) // 故意无视取消
			return Success(nil)
		})

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(30 * time.Millisecond)
			cancel()
		}()

		report, err := mon.RunFullCheck(ctx, "production", time.Second)
		require.NoError(t, err)
		assert.Equal(t, StatusUnhealthy, report.Components[0].Status)
		assert.Contains(t, report.Components[0].Error, "cancelled")

		rec := mon.History().Record("database")
		assert.Equal(t, 1, rec.ConsecutiveFailures)
	})

	t.Run("顺序保持注册顺序", func(t *testing.T) {
		mon := newTestMonitor(t)
		names := []string{"c0", "c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8", "c9"}
		for _, name := range names {
			mon.Register(name, func(ctx context.Context) Outcome {
				time.Sleep(time.Duration(rand.Intn(2)) * time.Millisecond)
				return Success(nil)
			})
		}

		for cycle := 0; cycle < 100; cycle++ {
			report, err := mon.RunFullCheck(context.Background(), "production", time.Second)
			require.NoError(t, err)
			for i, c := range report.Components {
				require.Equal(t, names[i], c.Name, "第%d轮顺序错乱", cycle)
			}
		}
	})
}

func TestCircuitBreakerIntegration(t *testing.T) {
	t.Run("五次失败后第六轮跳过探测", func(t *testing.T) {
		mon := newTestMonitor(t)
		var calls atomic.Int32
		mon.Register("cache", func(ctx context.Context) Outcome {
			calls.Add(1)
			return Failure("down")
		})

		for i := 0; i < 5; i++ {
			_, err := mon.RunFullCheck(context.Background(), "production", time.Second)
			require.NoError(t, err)
		}
		assert.Equal(t, int32(5), calls.Load())

		// 第六轮：熔断器打开，不再调用探测
		report, err := mon.RunFullCheck(context.Background(), "production", time.Second)
		require.NoError(t, err)
		assert.Equal(t, int32(5), calls.Load(), "熔断后不应再调用探测")
		assert.Equal(t, StatusCircuitOpen, report.Components[0].Status)
		assert.Equal(t, 0.0, report.Components[0].LatencyMs)
	})

	t.Run("冷却时间过后恢复探测", func(t *testing.T) {
		mon := newTestMonitor(t)
		now := time.Now()
		mon.History().nowFn = func() time.Time { return now }

		var calls atomic.Int32
		mon.Register("cache", func(ctx context.Context) Outcome {
			calls.Add(1)
			return Failure("down")
		})

		for i := 0; i < 6; i++ {
			_, err := mon.RunFullCheck(context.Background(), "production", time.Second)
			require.NoError(t, err)
		}
		require.Equal(t, int32(5), calls.Load())

		// 冷却期过后重新探测
		mon.History().nowFn = func() time.Time { return now.Add(301 * time.Second) }
		_, err := mon.RunFullCheck(context.Background(), "production", time.Second)
		require.NoError(t, err)
		assert.Equal(t, int32(6), calls.Load(), "冷却后应重新调用探测")
	})

	t.Run("一次成功重置计数", func(t *testing.T) {
		mon := newTestMonitor(t)
		shouldFail := true
		mon.Register("cache", func(ctx context.Context) Outcome {
			if shouldFail {
				return Failure("down")
			}
			return Success(nil)
		})

		for i := 0; i < 4; i++ {
			_, _ = mon.RunFullCheck(context.Background(), "production", time.Second)
		}
		shouldFail = false
		_, _ = mon.RunFullCheck(context.Background(), "production", time.Second)

		rec := mon.History().Record("cache")
		assert.Equal(t, 0, rec.ConsecutiveFailures)
	})
}

func TestLastReport(t *testing.T) {
	t.Run("无报告时摘要标记未知", func(t *testing.T) {
		mon := newTestMonitor(t)
		summary, ok := mon.LastSummary()
		assert.False(t, ok)
		assert.Equal(t, StatusUnknown, summary.Status)
		assert.False(t, mon.Ready())
	})

	t.Run("摘要与报告一致", func(t *testing.T) {
		mon := newTestMonitor(t)
		mon.Register("database", okProbe(nil))
		mon.Register("cache", failProbe("down"))
		mon.Register("search", failProbe("down"))

		report, err := mon.RunFullCheck(context.Background(), "production", time.Second)
		require.NoError(t, err)

		summary, ok := mon.LastSummary()
		require.True(t, ok)
		assert.Equal(t, report.OverallStatus, summary.Status)
		assert.Equal(t, report.HealthScore, summary.Score)
		assert.Equal(t, 3, summary.Components)
		assert.Equal(t, 2, summary.Healthy) // search算健康（optional_unavailable）
		assert.Equal(t, 1, summary.Degraded)
		assert.True(t, mon.Ready())
	})

	t.Run("整体不健康时未就绪", func(t *testing.T) {
		mon := newTestMonitor(t)
		mon.Register("database", failProbe("down"))

		_, err := mon.RunFullCheck(context.Background(), "production", time.Second)
		require.NoError(t, err)
		assert.False(t, mon.Ready())
		assert.True(t, mon.Alive())
	})

	t.Run("报告整体替换", func(t *testing.T) {
		mon := newTestMonitor(t)
		mon.Register("database", okProbe(nil))

		first, _ := mon.RunFullCheck(context.Background(), "production", time.Second)
		second, _ := mon.RunFullCheck(context.Background(), "production", time.Second)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, second.ID, mon.LastReport().ID)
	})
}

func TestRegister(t *testing.T) {
	t.Run("重复注册替换探测保留顺序", func(t *testing.T) {
		mon := newTestMonitor(t)
		mon.Register("a", failProbe("v1"))
		mon.Register("b", okProbe(nil))
		mon.Register("a", okProbe(nil))

		assert.Equal(t, []string{"a", "b"}, mon.Components())

		report, err := mon.RunFullCheck(context.Background(), "production", time.Second)
		require.NoError(t, err)
		assert.Equal(t, StatusHealthy, report.Components[0].Status)
	})
}
