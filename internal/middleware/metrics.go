package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	AnalysesSuccess    uint64
	AnalysesFailed     uint64
	FileAnalyses       uint64
	PromptAnalyses     uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// IncrementRequests increments total request counter
func IncrementRequests() {
	atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
}

// IncrementInProgress increments in-progress request counter
func IncrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
}

// DecrementInProgress decrements in-progress request counter
func DecrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))
}

// IncrementAnalysesSuccess increments successful dispatch counter
func IncrementAnalysesSuccess() {
	atomic.AddUint64(&globalMetrics.AnalysesSuccess, 1)
}

// IncrementAnalysesFailed increments failed dispatch counter
func IncrementAnalysesFailed() {
	atomic.AddUint64(&globalMetrics.AnalysesFailed, 1)
}

// IncrementFileAnalyses increments event-sourced file analysis counter
func IncrementFileAnalyses() {
	atomic.AddUint64(&globalMetrics.FileAnalyses, 1)
}

// IncrementPromptAnalyses increments direct prompt analysis counter
func IncrementPromptAnalyses() {
	atomic.AddUint64(&globalMetrics.PromptAnalyses, 1)
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"analyses_success":     atomic.LoadUint64(&globalMetrics.AnalysesSuccess),
		"analyses_failed":      atomic.LoadUint64(&globalMetrics.AnalysesFailed),
		"file_analyses":        atomic.LoadUint64(&globalMetrics.FileAnalyses),
		"prompt_analyses":      atomic.LoadUint64(&globalMetrics.PromptAnalyses),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		IncrementInProgress()
		defer DecrementInProgress()

		next.ServeHTTP(w, r)
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}
