// Package metrics exposes pipeline counters and latency histograms in
// Prometheus text format.
package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	analysisStartedTotal   atomic.Uint64
	analysisCompletedTotal atomic.Uint64
	analysisFailedTotal    atomic.Uint64
	analysisCacheHitTotal  atomic.Uint64

	stageDegradedMu    sync.Mutex
	stageDegradedTotal = map[string]uint64{}

	stageDurationMu sync.Mutex
	stageDurations  = map[string]*histogram{}

	// Buckets span quick local-model calls through CPU-bound minutes-long ones.
	stageBuckets = []float64{250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000, 300000}
)

// IncAnalysisStarted increments the started counter.
func IncAnalysisStarted() {
	analysisStartedTotal.Add(1)
}

// IncAnalysisCompleted increments the completed counter.
func IncAnalysisCompleted() {
	analysisCompletedTotal.Add(1)
}

// IncAnalysisFailed increments the failed counter.
func IncAnalysisFailed() {
	analysisFailedTotal.Add(1)
}

// IncCacheHit increments the cache-hit counter.
func IncCacheHit() {
	analysisCacheHitTotal.Add(1)
}

// IncStageDegraded records a parse degradation for a stage.
func IncStageDegraded(stage string) {
	stageDegradedMu.Lock()
	stageDegradedTotal[stage]++
	stageDegradedMu.Unlock()
}

// ObserveStageDurationMs records one backend call's duration for a stage.
func ObserveStageDurationMs(stage string, value float64) {
	if value < 0 {
		value = 0
	}
	stageDurationMu.Lock()
	h, ok := stageDurations[stage]
	if !ok {
		h = newHistogram(stageBuckets)
		stageDurations[stage] = h
	}
	stageDurationMu.Unlock()
	h.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders all metrics.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "analysis_started_total", "Total analyses started", analysisStartedTotal.Load())
	writeCounter(&buf, "analysis_completed_total", "Total analyses completed", analysisCompletedTotal.Load())
	writeCounter(&buf, "analysis_failed_total", "Total analyses failed", analysisFailedTotal.Load())
	writeCounter(&buf, "analysis_cache_hit_total", "Total analyses served from cache", analysisCacheHitTotal.Load())
	writeStageDegraded(&buf)
	writeStageDurations(&buf)
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeStageDegraded(buf *bytes.Buffer) {
	stageDegradedMu.Lock()
	stages := make([]string, 0, len(stageDegradedTotal))
	for stage := range stageDegradedTotal {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	fmt.Fprintf(buf, "# HELP stage_degraded_total Total stage parse degradations\n")
	fmt.Fprintf(buf, "# TYPE stage_degraded_total counter\n")
	for _, stage := range stages {
		fmt.Fprintf(buf, "stage_degraded_total{stage=%q} %d\n", stage, stageDegradedTotal[stage])
	}
	stageDegradedMu.Unlock()
}

func writeStageDurations(buf *bytes.Buffer) {
	stageDurationMu.Lock()
	stages := make([]string, 0, len(stageDurations))
	for stage := range stageDurations {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	snaps := make(map[string]histogramSnapshot, len(stages))
	for _, stage := range stages {
		snaps[stage] = stageDurations[stage].Snapshot()
	}
	stageDurationMu.Unlock()

	fmt.Fprintf(buf, "# HELP stage_duration_ms Backend call duration per stage in milliseconds\n")
	fmt.Fprintf(buf, "# TYPE stage_duration_ms histogram\n")
	for _, stage := range stages {
		snap := snaps[stage]
		var cumulative uint64
		for i, bound := range snap.buckets {
			cumulative += snap.counts[i]
			fmt.Fprintf(buf, "stage_duration_ms_bucket{stage=%q,le=\"%s\"} %d\n", stage, formatFloat(bound), cumulative)
		}
		fmt.Fprintf(buf, "stage_duration_ms_bucket{stage=%q,le=\"+Inf\"} %d\n", stage, snap.count)
		fmt.Fprintf(buf, "stage_duration_ms_sum{stage=%q} %s\n", stage, formatFloat(snap.sum))
		fmt.Fprintf(buf, "stage_duration_ms_count{stage=%q} %d\n", stage, snap.count)
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
