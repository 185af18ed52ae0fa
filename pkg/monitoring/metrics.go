package monitoring

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Collector tracks resolver activity counters and timing. All methods are
// safe for concurrent use.
type Collector struct {
	mu sync.RWMutex

	resolvesTotal     int64
	resolvesSucceeded int64
	resolvesFailed    int64
	notFound          int64
	invalidInput      int64

	// per reconciliation source
	sourceHTML   int64
	sourceAPI    int64
	sourceMerged int64

	totalDuration time.Duration
	maxDuration   time.Duration

	startedAt time.Time
	lastAt    time.Time
}

func NewCollector() *Collector {
	return &Collector{startedAt: time.Now().UTC()}
}

// RecordResolve records one completed resolve attempt. source is empty for
// failures.
func (c *Collector) RecordResolve(source string, d time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resolvesTotal++
	c.lastAt = time.Now().UTC()
	c.totalDuration += d

	if d > c.maxDuration {
		c.maxDuration = d
	}

	if err != nil {
		c.resolvesFailed++

		return
	}

	c.resolvesSucceeded++

	switch source {
	case "html":
		c.sourceHTML++
	case "api":
		c.sourceAPI++
	case "merged":
		c.sourceMerged++
	}
}

func (c *Collector) RecordNotFound() {
	c.mu.Lock()
	c.notFound++
	c.mu.Unlock()
}

func (c *Collector) RecordInvalidInput() {
	c.mu.Lock()
	c.invalidInput++
	c.mu.Unlock()
}

// Snapshot is a point-in-time view of the collector plus host resource usage.
type Snapshot struct {
	ResolvesTotal     int64     `json:"resolves_total"`
	ResolvesSucceeded int64     `json:"resolves_succeeded"`
	ResolvesFailed    int64     `json:"resolves_failed"`
	NotFound          int64     `json:"not_found"`
	InvalidInput      int64     `json:"invalid_input"`
	SourceHTML        int64     `json:"source_html"`
	SourceAPI         int64     `json:"source_api"`
	SourceMerged      int64     `json:"source_merged"`
	AvgDurationMs     float64   `json:"avg_duration_ms"`
	MaxDurationMs     float64   `json:"max_duration_ms"`
	UptimeSeconds     float64   `json:"uptime_seconds"`
	LastActivity      time.Time `json:"last_activity"`

	MemoryUsedPercent float64 `json:"memory_used_percent"`
	CPUPercent        float64 `json:"cpu_percent"`
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()

	s := Snapshot{
		ResolvesTotal:     c.resolvesTotal,
		ResolvesSucceeded: c.resolvesSucceeded,
		ResolvesFailed:    c.resolvesFailed,
		NotFound:          c.notFound,
		InvalidInput:      c.invalidInput,
		SourceHTML:        c.sourceHTML,
		SourceAPI:         c.sourceAPI,
		SourceMerged:      c.sourceMerged,
		MaxDurationMs:     float64(c.maxDuration.Milliseconds()),
		UptimeSeconds:     time.Since(c.startedAt).Seconds(),
		LastActivity:      c.lastAt,
	}

	if c.resolvesTotal > 0 {
		s.AvgDurationMs = float64(c.totalDuration.Milliseconds()) / float64(c.resolvesTotal)
	}

	c.mu.RUnlock()

	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemoryUsedPercent = vm.UsedPercent
	}

	// Non-blocking sample: percentages since the previous call.
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		s.CPUPercent = percents[0]
	}

	return s
}
