// Package performance samples process resource usage around tabula jobs.
package performance

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// ResourceMonitor measures CPU and memory used by this process since it was
// created. Sampling failures leave the affected fields zero.
type ResourceMonitor struct {
	process      *process.Process
	startCPUTime float64
	startTime    time.Time
	mu           sync.RWMutex
}

// NewResourceMonitor creates a resource monitor for the current process.
func NewResourceMonitor() *ResourceMonitor {
	rm := &ResourceMonitor{startTime: time.Now()}
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return rm
	}
	rm.process = proc
	if cpuTime, err := proc.Times(); err == nil {
		rm.startCPUTime = cpuTime.Total()
	}
	return rm
}

// ResourceUsage contains resource usage information
type ResourceUsage struct {
	Elapsed               time.Duration
	CPUPercent            float64
	MemoryRSS             uint64
	HeapAlloc             uint64
	SystemMemoryPercent   float64
	SystemMemoryAvailable uint64
	GoroutineCount        int
}

// Usage returns resource usage since the monitor was created.
func (rm *ResourceMonitor) Usage() *ResourceUsage {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	usage := &ResourceUsage{
		Elapsed:        time.Since(rm.startTime),
		GoroutineCount: runtime.NumGoroutine(),
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	usage.HeapAlloc = ms.HeapAlloc

	if rm.process != nil {
		if cpuTime, err := rm.process.Times(); err == nil && usage.Elapsed > 0 {
			usage.CPUPercent = ((cpuTime.Total() - rm.startCPUTime) / usage.Elapsed.Seconds()) * 100
		}
		if memInfo, err := rm.process.MemoryInfo(); err == nil {
			usage.MemoryRSS = memInfo.RSS
		}
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemoryPercent = vmStat.UsedPercent
		usage.SystemMemoryAvailable = vmStat.Available
	}
	return usage
}

// Fields renders the usage as log fields.
func (u *ResourceUsage) Fields() []zap.Field {
	return []zap.Field{
		zap.Float64("cpu_percent", u.CPUPercent),
		zap.Uint64("rss_mb", u.MemoryRSS/1024/1024),
		zap.Uint64("heap_mb", u.HeapAlloc/1024/1024),
		zap.Float64("system_memory_percent", u.SystemMemoryPercent),
		zap.Int("goroutines", u.GoroutineCount),
	}
}

// Throughput returns records per second over the monitored interval.
func (u *ResourceUsage) Throughput(records int) float64 {
	if u.Elapsed <= 0 {
		return 0
	}
	return float64(records) / u.Elapsed.Seconds()
}
