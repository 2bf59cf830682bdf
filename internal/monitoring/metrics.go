package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds service counters for the scoring API. Plain counters use
// atomics; keyed counters take their own mutex.
type Metrics struct {
	RequestCount        int64
	ErrorCount          int64
	CacheHits           int64
	CacheMisses         int64
	ScoresComputed      int64
	Stage1Rejections    int64
	AverageResponseTime int64 // in nanoseconds
	StartTime           time.Time

	// Response time window for percentiles
	ResponseTimes      []time.Duration
	ResponseTimesMutex sync.RWMutex

	// Status code tracking
	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex

	// Scoring outcome tracking
	ScoresBySegment map[string]int64
	RejectsByLabel  map[string]int64
	ScoringMutex    sync.RWMutex

	// Memory and system metrics, fed by the memory monitor
	GCCount        int64
	GCPauseTotalNs int64
	HeapAlloc      int64
	HeapSys        int64

	// Rate limit metrics
	RateLimitIPBlocks      int64
	RateLimitRedisErrors   int64
	RateLimitFallbackCount int64
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		ResponseTimes:        make([]time.Duration, 0, 1000),
		RequestCountByStatus: make(map[int]int64),
		ScoresBySegment:      make(map[string]int64),
		RejectsByLabel:       make(map[string]int64),
	}
}

// IncrementRequest increments the request count.
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count.
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementCacheHit increments cache hit count.
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss increments cache miss count.
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// RecordScore records one scored scan with the maturity segment it
// landed in.
func (m *Metrics) RecordScore(segment string) {
	atomic.AddInt64(&m.ScoresComputed, 1)
	m.ScoringMutex.Lock()
	m.ScoresBySegment[segment]++
	m.ScoringMutex.Unlock()
}

// RecordStage1Rejection records a scan rejected by the stage-1 gate.
func (m *Metrics) RecordStage1Rejection(label string) {
	atomic.AddInt64(&m.Stage1Rejections, 1)
	m.ScoringMutex.Lock()
	m.RejectsByLabel[label]++
	m.ScoringMutex.Unlock()
}

// RecordResponseTime records response time for averaging and percentiles.
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	current := atomic.LoadInt64(&m.AverageResponseTime)
	newAverage := (current + duration.Nanoseconds()) / 2
	atomic.StoreInt64(&m.AverageResponseTime, newAverage)

	// Keep the last 1000 samples for percentiles.
	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = append(m.ResponseTimes, duration)
	if len(m.ResponseTimes) > 1000 {
		m.ResponseTimes = m.ResponseTimes[1:]
	}
	m.ResponseTimesMutex.Unlock()
}

// RecordRequestByStatus records request count by HTTP status code.
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.StatusMutex.Lock()
	defer m.StatusMutex.Unlock()
	m.RequestCountByStatus[statusCode]++
}

// RecordGCMetrics records Go garbage collector metrics.
func (m *Metrics) RecordGCMetrics(gcCount int64, gcPauseTotalNs int64, heapAlloc, heapSys int64) {
	atomic.StoreInt64(&m.GCCount, gcCount)
	atomic.StoreInt64(&m.GCPauseTotalNs, gcPauseTotalNs)
	atomic.StoreInt64(&m.HeapAlloc, heapAlloc)
	atomic.StoreInt64(&m.HeapSys, heapSys)
}

// IncrementRateLimitIPBlock increments IP-based rate limit blocks.
func (m *Metrics) IncrementRateLimitIPBlock() {
	atomic.AddInt64(&m.RateLimitIPBlocks, 1)
}

// IncrementRateLimitRedisError increments Redis error count for rate limiting.
func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.RateLimitRedisErrors, 1)
}

// IncrementRateLimitFallback increments fallback rate limiter usage count.
func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallbackCount, 1)
}

// GetPercentileResponseTime calculates percentile response time.
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.ResponseTimesMutex.RLock()
	defer m.ResponseTimesMutex.RUnlock()

	if len(m.ResponseTimes) == 0 {
		return 0
	}

	times := make([]time.Duration, len(m.ResponseTimes))
	copy(times, m.ResponseTimes)

	sort.Slice(times, func(i, j int) bool {
		return times[i] < times[j]
	})

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}

	return times[index]
}

// GetStatusCodeDistribution returns request count by status code.
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.StatusMutex.RLock()
	defer m.StatusMutex.RUnlock()

	distribution := make(map[int]int64)
	for code, count := range m.RequestCountByStatus {
		distribution[code] = count
	}
	return distribution
}

// GetScoringStats returns scoring outcome statistics.
func (m *Metrics) GetScoringStats() map[string]interface{} {
	m.ScoringMutex.RLock()
	segments := make(map[string]int64, len(m.ScoresBySegment))
	for k, v := range m.ScoresBySegment {
		segments[k] = v
	}
	rejects := make(map[string]int64, len(m.RejectsByLabel))
	for k, v := range m.RejectsByLabel {
		rejects[k] = v
	}
	m.ScoringMutex.RUnlock()

	return map[string]interface{}{
		"scores_computed":   atomic.LoadInt64(&m.ScoresComputed),
		"stage1_rejections": atomic.LoadInt64(&m.Stage1Rejections),
		"by_segment":        segments,
		"rejects_by_label":  rejects,
	}
}

// GetRateLimitStats returns rate limiting statistics.
func (m *Metrics) GetRateLimitStats() map[string]interface{} {
	return map[string]interface{}{
		"ip_blocks":      atomic.LoadInt64(&m.RateLimitIPBlocks),
		"redis_errors":   atomic.LoadInt64(&m.RateLimitRedisErrors),
		"fallback_count": atomic.LoadInt64(&m.RateLimitFallbackCount),
	}
}

// ErrorRatePercent returns the share of requests that errored.
func (m *Metrics) ErrorRatePercent() float64 {
	requests := atomic.LoadInt64(&m.RequestCount)
	if requests == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&m.ErrorCount)) / float64(requests) * 100
}

// HeapUsagePercent returns heap allocation as a share of heap reserved
// from the OS, or 0 before the first memory sample.
func (m *Metrics) HeapUsagePercent() float64 {
	heapSys := atomic.LoadInt64(&m.HeapSys)
	if heapSys == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&m.HeapAlloc)) / float64(heapSys) * 100
}

// GetStats returns current metrics statistics.
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)
	avgResponseTime := atomic.LoadInt64(&m.AverageResponseTime)

	cacheHitRate := float64(0)
	totalCacheRequests := cacheHits + cacheMisses
	if totalCacheRequests > 0 {
		cacheHitRate = float64(cacheHits) / float64(totalCacheRequests) * 100
	}

	uptime := time.Since(m.StartTime)

	return map[string]interface{}{
		"uptime_seconds":         uptime.Seconds(),
		"total_requests":         requests,
		"error_count":            errors,
		"error_rate_percent":     m.ErrorRatePercent(),
		"cache_hits":             cacheHits,
		"cache_misses":           cacheMisses,
		"cache_hit_rate_percent": cacheHitRate,
		"avg_response_time_ms":   float64(avgResponseTime) / 1e6,
		"start_time":             m.StartTime.Format(time.RFC3339),

		"p50_response_time_ms": float64(m.GetPercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms": float64(m.GetPercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms": float64(m.GetPercentileResponseTime(99)) / 1e6,

		"status_code_distribution": m.GetStatusCodeDistribution(),
		"scoring":                  m.GetScoringStats(),
		"rate_limit":               m.GetRateLimitStats(),

		"go_gc_count":          atomic.LoadInt64(&m.GCCount),
		"go_gc_pause_total_ns": atomic.LoadInt64(&m.GCPauseTotalNs),
		"go_heap_alloc_bytes":  atomic.LoadInt64(&m.HeapAlloc),
		"go_heap_sys_bytes":    atomic.LoadInt64(&m.HeapSys),
	}
}

// Reset resets all metrics (useful for testing).
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.RequestCount, 0)
	atomic.StoreInt64(&m.ErrorCount, 0)
	atomic.StoreInt64(&m.CacheHits, 0)
	atomic.StoreInt64(&m.CacheMisses, 0)
	atomic.StoreInt64(&m.ScoresComputed, 0)
	atomic.StoreInt64(&m.Stage1Rejections, 0)
	atomic.StoreInt64(&m.AverageResponseTime, 0)
	atomic.StoreInt64(&m.GCCount, 0)
	atomic.StoreInt64(&m.GCPauseTotalNs, 0)
	atomic.StoreInt64(&m.HeapAlloc, 0)
	atomic.StoreInt64(&m.HeapSys, 0)
	atomic.StoreInt64(&m.RateLimitIPBlocks, 0)
	atomic.StoreInt64(&m.RateLimitRedisErrors, 0)
	atomic.StoreInt64(&m.RateLimitFallbackCount, 0)

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = m.ResponseTimes[:0]
	m.ResponseTimesMutex.Unlock()

	m.StatusMutex.Lock()
	m.RequestCountByStatus = make(map[int]int64)
	m.StatusMutex.Unlock()

	m.ScoringMutex.Lock()
	m.ScoresBySegment = make(map[string]int64)
	m.RejectsByLabel = make(map[string]int64)
	m.ScoringMutex.Unlock()

	m.StartTime = time.Now()
}
