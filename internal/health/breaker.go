package health

import (
	"sync"
	"time"
)

// BreakerState 熔断器状态
type BreakerState int

const (
	StateClosed BreakerState = iota // 正常状态，探测照常执行
	StateOpen                       // 熔断状态，跳过探测
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// FailureRecord 单个组件的失败历史
type FailureRecord struct {
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastFailureAt       time.Time `json:"last_failure_at"`
}

// failureEntry 按组件加锁，不同组件的更新互不竞争
type failureEntry struct {
	mu     sync.Mutex
	record FailureRecord
}

// History 按组件维护失败历史并驱动熔断决策。
// 两态设计：连续失败达到阈值后进入 Open，冷却时间过后直接回到 Closed
// 重新探测，不做半开试探请求。进程生命周期内常驻，仅成功时清零。
type History struct {
	mu      sync.RWMutex
	entries map[string]*failureEntry

	threshold int
	cooldown  time.Duration
	nowFn     func() time.Time
}

// NewHistory 创建失败历史。threshold<=0 时默认5次，cooldown<=0 时默认300秒。
func NewHistory(threshold int, cooldown time.Duration) *History {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 300 * time.Second
	}
	return &History{
		entries:   make(map[string]*failureEntry),
		threshold: threshold,
		cooldown:  cooldown,
		nowFn:     time.Now,
	}
}

// entry 获取或创建组件的失败记录
func (h *History) entry(name string) *failureEntry {
	h.mu.RLock()
	e, ok := h.entries[name]
	h.mu.RUnlock()
	if ok {
		return e
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if e, ok = h.entries[name]; ok {
		return e
	}
	e = &failureEntry{}
	h.entries[name] = e
	return e
}

// State 组件当前的熔断器状态
func (h *History) State(name string) BreakerState {
	e := h.entry(name)
	e.mu.Lock()
	defer e.mu.Unlock()
	return h.stateLocked(&e.record)
}

func (h *History) stateLocked(r *FailureRecord) BreakerState {
	if r.ConsecutiveFailures < h.threshold {
		return StateClosed
	}
	// 冷却时间过后回到 Closed，允许重新探测
	if h.nowFn().Sub(r.LastFailureAt) >= h.cooldown {
		return StateClosed
	}
	return StateOpen
}

// ShouldSkip 判断本轮是否应跳过该组件的探测
func (h *History) ShouldSkip(name string) bool {
	return h.State(name) == StateOpen
}

// RecordSuccess 记录一次成功，失败计数清零
func (h *History) RecordSuccess(name string) {
	e := h.entry(name)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record.ConsecutiveFailures = 0
}

// RecordFailure 记录一次失败（任何状态下均计数并刷新时间戳）
func (h *History) RecordFailure(name string) {
	e := h.entry(name)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record.ConsecutiveFailures++
	e.record.LastFailureAt = h.nowFn()
}

// Record 返回组件失败记录的副本
func (h *History) Record(name string) FailureRecord {
	e := h.entry(name)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record
}

// Reset 清空全部失败历史（测试或手动恢复用）
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = make(map[string]*failureEntry)
}
