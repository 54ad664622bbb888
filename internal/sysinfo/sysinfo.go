package sysinfo

import (
	"context"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Snapshot 主机资源快照（百分比均为 0-100）
type Snapshot struct {
	CPUPercent  float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemPercent  float64 `json:"memory_percent" yaml:"memory_percent"`
	DiskPercent float64 `json:"disk_percent" yaml:"disk_percent"`
}

// Platform 平台标识信息
type Platform struct {
	Hostname  string `json:"hostname" yaml:"hostname"`
	OS        string `json:"os" yaml:"os"`
	Platform  string `json:"platform,omitempty" yaml:"platform,omitempty"` // 如 ubuntu 22.04
	Arch      string `json:"arch" yaml:"arch"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// Collect 采集资源快照与平台信息。
// 单项采集失败时保留零值继续，绝不让资源采集拖垮健康检查。
func Collect(ctx context.Context) (Snapshot, Platform) {
	var snap Snapshot

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snap.MemPercent = vm.UsedPercent
	}
	if du, err := disk.UsageWithContext(ctx, rootPath()); err == nil {
		snap.DiskPercent = du.UsedPercent
	}

	plat := Platform{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		GoVersion: runtime.Version(),
	}
	if hostname, err := os.Hostname(); err == nil {
		plat.Hostname = hostname
	}
	if info, err := host.InfoWithContext(ctx); err == nil {
		plat.Platform = info.Platform + " " + info.PlatformVersion
	}

	return snap, plat
}

func rootPath() string {
	if runtime.GOOS == "windows" {
		return `C:\`
	}
	return "/"
}
