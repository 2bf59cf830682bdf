package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// MemoryStats is one runtime.MemStats sample, trimmed to the fields the
// stats endpoint reports.
type MemoryStats struct {
	Alloc         uint64    `json:"alloc_bytes"`
	TotalAlloc    uint64    `json:"total_alloc_bytes"`
	Sys           uint64    `json:"sys_bytes"`
	HeapAlloc     uint64    `json:"heap_alloc_bytes"`
	HeapSys       uint64    `json:"heap_sys_bytes"`
	HeapInuse     uint64    `json:"heap_inuse_bytes"`
	HeapObjects   uint64    `json:"heap_objects"`
	GCCPUFraction float64   `json:"gc_cpu_fraction"`
	NumGC         uint32    `json:"num_gc"`
	PauseTotalNs  uint64    `json:"gc_pause_total_ns"`
	NumGoroutine  int       `json:"num_goroutine"`
	Timestamp     time.Time `json:"timestamp"`
}

// MemoryMonitor samples the Go runtime on an interval, publishes the
// numbers into Metrics, and warns when heap utilization climbs.
type MemoryMonitor struct {
	metrics     *Metrics
	logger      *Logger
	interval    time.Duration
	warnPercent float64

	mutex      sync.RWMutex
	current    MemoryStats
	history    []MemoryStats
	maxHistory int
}

// NewMemoryMonitor creates a memory monitor that feeds the given metrics.
func NewMemoryMonitor(metrics *Metrics, logger *Logger, interval time.Duration) *MemoryMonitor {
	return &MemoryMonitor{
		metrics:     metrics,
		logger:      logger,
		interval:    interval,
		warnPercent: 85.0,
		history:     make([]MemoryStats, 0, 100),
		maxHistory:  100,
	}
}

// Start runs the sampling loop until the context is cancelled. One sample
// is taken immediately so the stats endpoint is never empty.
func (mm *MemoryMonitor) Start(ctx context.Context) {
	mm.collect()

	ticker := time.NewTicker(mm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mm.collect()
		}
	}
}

func (mm *MemoryMonitor) collect() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	sample := MemoryStats{
		Alloc:         ms.Alloc,
		TotalAlloc:    ms.TotalAlloc,
		Sys:           ms.Sys,
		HeapAlloc:     ms.HeapAlloc,
		HeapSys:       ms.HeapSys,
		HeapInuse:     ms.HeapInuse,
		HeapObjects:   ms.HeapObjects,
		GCCPUFraction: ms.GCCPUFraction,
		NumGC:         ms.NumGC,
		PauseTotalNs:  ms.PauseTotalNs,
		NumGoroutine:  runtime.NumGoroutine(),
		Timestamp:     time.Now(),
	}

	mm.mutex.Lock()
	mm.current = sample
	mm.history = append(mm.history, sample)
	if len(mm.history) > mm.maxHistory {
		mm.history = mm.history[1:]
	}
	mm.mutex.Unlock()

	mm.metrics.RecordGCMetrics(
		int64(ms.NumGC),
		int64(ms.PauseTotalNs),
		int64(ms.HeapAlloc),
		int64(ms.HeapSys),
	)

	if ms.HeapSys > 0 {
		usage := float64(ms.HeapAlloc) / float64(ms.HeapSys) * 100
		if usage > mm.warnPercent {
			mm.logger.SystemLogger("memory_pressure", fmt.Sprintf(
				"heap:%dMB/%dMB usage:%.1f%% goroutines:%d",
				ms.HeapAlloc/(1024*1024),
				ms.HeapSys/(1024*1024),
				usage,
				sample.NumGoroutine,
			))
		}
	}
}

// GetStats returns the latest sample plus derived rates for the stats
// endpoint.
func (mm *MemoryMonitor) GetStats() map[string]interface{} {
	mm.mutex.RLock()
	defer mm.mutex.RUnlock()

	heapUtilization := float64(0)
	if mm.current.HeapSys > 0 {
		heapUtilization = float64(mm.current.HeapAlloc) / float64(mm.current.HeapSys)
	}

	allocRate := float64(0)
	if len(mm.history) >= 2 {
		oldest := mm.history[0]
		window := mm.current.Timestamp.Sub(oldest.Timestamp).Seconds()
		if window > 0 {
			allocRate = float64(mm.current.TotalAlloc-oldest.TotalAlloc) / window
		}
	}

	return map[string]interface{}{
		"current": map[string]interface{}{
			"alloc_mb":        mm.current.Alloc / (1024 * 1024),
			"sys_mb":          mm.current.Sys / (1024 * 1024),
			"heap_alloc_mb":   mm.current.HeapAlloc / (1024 * 1024),
			"heap_sys_mb":     mm.current.HeapSys / (1024 * 1024),
			"heap_objects":    mm.current.HeapObjects,
			"gc_cpu_fraction": mm.current.GCCPUFraction,
			"num_gc":          mm.current.NumGC,
			"num_goroutine":   mm.current.NumGoroutine,
		},
		"derived": map[string]interface{}{
			"heap_utilization":     heapUtilization,
			"alloc_rate_bytes_sec": allocRate,
		},
		"history_count": len(mm.history),
	}
}

// History returns a copy of the retained samples.
func (mm *MemoryMonitor) History() []MemoryStats {
	mm.mutex.RLock()
	defer mm.mutex.RUnlock()

	out := make([]MemoryStats, len(mm.history))
	copy(out, mm.history)
	return out
}
